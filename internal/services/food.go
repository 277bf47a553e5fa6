package services

import (
	"encoding/json"
	"strings"
)

// System instruction for the vision model. The reply must embed a single JSON
// object so the bot can parse it back out of free text.
const foodVisionPrompt = `Você é um nutricionista que analisa fotos de refeições. ` +
	`Estime o prato e os macronutrientes e responda com um objeto JSON com exatamente estes campos: ` +
	`"prato" (string), "calorias" (número), "proteinas_g" (número), "carboidratos_g" (número), ` +
	`"gorduras_g" (número) e "comentario" (string curta e motivadora, em português do Brasil). ` +
	`Não inclua nada além do objeto JSON.`

const defaultFoodComment = "Continue registrando suas refeições! 💪"

// FoodAnalysis is the structured estimate extracted from the vision model's
// answer
type FoodAnalysis struct {
	Prato         string  `json:"prato"`
	Calorias      float64 `json:"calorias"`
	ProteinasG    float64 `json:"proteinas_g"`
	CarboidratosG float64 `json:"carboidratos_g"`
	GordurasG     float64 `json:"gorduras_g"`
	Comentario    string  `json:"comentario"`
}

// extractJSONBlock returns the first top-level {...} block of s by brace
// matching. Braces inside string values will confuse it; the vision prompt
// keeps the payload simple enough that this has held up in practice.
func extractJSONBlock(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// parseFoodAnalysis extracts and parses the analysis out of the model's free
// text. On any failure it returns safe defaults and ok=false: the reply is
// still composed from them, but nothing gets persisted.
func parseFoodAnalysis(raw string) (analysis *FoodAnalysis, jsonBlock string, ok bool) {
	fallback := &FoodAnalysis{Prato: "Refeição", Comentario: defaultFoodComment}

	block, found := extractJSONBlock(raw)
	if !found {
		return fallback, "", false
	}

	var parsed FoodAnalysis
	if err := json.Unmarshal([]byte(block), &parsed); err != nil {
		return fallback, "", false
	}

	if parsed.Comentario == "" {
		parsed.Comentario = defaultFoodComment
	}

	// A parse that produced neither a dish nor a calorie estimate is as good
	// as a failed one; don't log half-empty meals.
	if strings.TrimSpace(parsed.Prato) == "" && parsed.Calorias <= 0 {
		if strings.TrimSpace(parsed.Prato) == "" {
			parsed.Prato = "Refeição"
		}
		return &parsed, "", false
	}

	return &parsed, block, true
}
