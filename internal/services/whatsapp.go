package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zapfit/zapfit-backend/internal/models"
	"github.com/zapfit/zapfit-backend/internal/storage"
)

const (
	// Max inbound messages per user per rolling hour before replies stop
	rateLimitPerHour = 30

	// Conversation turns sent to the model as context
	historyLimit = 5

	// Workouts shown by /treino
	workoutListLimit = 3
)

const coachPersona = `Você é a Zapi, coach virtual de nutrição e treinos do ZapFit. ` +
	`Responda sempre em português do Brasil, em mensagens curtas adequadas para WhatsApp, ` +
	`com tom amigável e motivador. Dê orientações práticas de alimentação e treino, ` +
	`mas nunca prescreva dietas restritivas nem substitua um médico.`

// Fixed replies for the gate and error paths
const (
	replyNotRegistered = "👋 Oi! Não encontrei seu cadastro por aqui. Baixe o app ZapFit e crie sua conta para conversar comigo!"
	replyPremiumOnly   = "🔒 O coach pelo WhatsApp é um recurso do plano premium. Ative seu plano no app para continuar!"
	replyThrottled     = "⏳ Calma lá! Você mandou muitas mensagens na última hora. Respira, bebe uma água 💧 e volta daqui a pouco."
	replyUnknown       = "🤔 Não reconheci esse comando. Digite /menu para ver tudo que eu sei fazer!"
	replyWeightUsage   = "⚖️ Não consegui entender o número. Envie assim: /peso 82,3"
	replyWaterUsage    = "💧 Não consegui entender a quantidade. Envie assim: /agua 300"
	replySaveProblem   = "😕 Tive um problema para salvar isso agora. Tente de novo em instantes!"
	replyAIThrottled   = "⏳ Muitas conversas ao mesmo tempo! Tente de novo em alguns minutos."
	replyAIQuota       = "🚫 O limite de uso da IA foi atingido. Tente novamente mais tarde!"
	replyAIProblem     = "😕 Tive um problema para falar com a IA. Tente de novo mais tarde!"
	replyAIDefault     = "Prontinho! ✅"
	replyPhotoProblem  = "😕 Não consegui analisar a foto agora. Tente enviar de novo mais tarde!"
)

const menuText = `📋 *Comandos do ZapFit:*

▶️ */inicio* - Começar por aqui
⚖️ */peso 82,3* - Registrar seu peso de hoje
💧 */agua 300* - Registrar água (em ml)
🏋️ */treino* - Ver seus treinos
📊 */relatorio* - Resumo dos últimos 7 dias

📸 Mande uma *foto da sua refeição* que eu calculo as calorias!
💬 Ou é só conversar comigo sobre dieta e treino.`

// InboundMessage is one incoming WhatsApp message after webhook decoding
type InboundMessage struct {
	From       string // channel-prefixed, e.g. "whatsapp:+5511999999999"
	Body       string
	MediaURLs  []string
	MessageSid string
}

// WhatsAppService routes incoming WhatsApp messages: resolves the sender,
// throttles, classifies (command / photo / chat) and sends exactly one reply.
type WhatsAppService struct {
	store  storage.Store
	sender MessageSender
	ai     *AIService
}

// NewWhatsAppService creates a new WhatsApp router
func NewWhatsAppService(store storage.Store, sender MessageSender, ai *AIService) *WhatsAppService {
	return &WhatsAppService{
		store:  store,
		sender: sender,
		ai:     ai,
	}
}

// HandleIncoming runs the full pipeline for one inbound message. It never
// returns business failures: every path ends with a reply (or a logged send
// error), so the webhook can always ACK.
func (w *WhatsAppService) HandleIncoming(ctx context.Context, msg InboundMessage) {
	phone := strings.TrimPrefix(msg.From, "whatsapp:")

	user, err := w.store.GetUserByPhone(phone)
	if err != nil || user == nil {
		log.Printf("📱 Message from unknown number %s", phone)
		w.reply(phone, replyNotRegistered)
		return
	}

	if !user.IsPremium() || !user.WhatsAppActive {
		w.reply(phone, replyPremiumOnly)
		return
	}

	inbound := w.logMessage(user.ID, models.DirectionInbound, msg.Body, firstMedia(msg.MediaURLs), msg.MessageSid)

	count, err := w.store.CountInboundSince(user.ID, time.Now().Add(-time.Hour))
	if err == nil && count > rateLimitPerHour {
		log.Printf("⏳ User %d throttled (%d messages in the last hour)", user.ID, count)
		w.sendReply(user, phone, replyThrottled)
		return
	}

	text := strings.TrimSpace(msg.Body)

	var response string
	switch {
	case len(msg.MediaURLs) > 0:
		response = w.handleFoodPhoto(ctx, user, msg.MediaURLs[0])
	case strings.HasPrefix(text, "/"):
		response = w.handleCommand(user, text)
	default:
		response = w.handleChat(ctx, user, text, inboundID(inbound))
	}

	w.sendReply(user, phone, response)
}

// reply answers a sender that never made it past the gate. Nothing is logged:
// log rows are keyed by user and the exchange was refused.
func (w *WhatsAppService) reply(phone, body string) {
	if err := w.sender.SendWhatsAppMessage(phone, body); err != nil {
		log.Printf("❌ Failed to send WhatsApp reply to %s: %v", phone, err)
	}
}

// sendReply delivers the handler's reply, logs it and refreshes the user's
// activity markers. Send failures are logged and swallowed.
func (w *WhatsAppService) sendReply(user *models.User, phone, body string) {
	if err := w.sender.SendWhatsAppMessage(phone, body); err != nil {
		log.Printf("❌ Failed to send WhatsApp reply to %s: %v", phone, err)
	}

	w.logMessage(user.ID, models.DirectionOutbound, body, "", "")

	if err := w.store.UpdateUserActivity(user.ID, time.Now()); err != nil {
		log.Printf("❌ Failed to update activity for user %d: %v", user.ID, err)
	}
}

func (w *WhatsAppService) logMessage(userID uint, direction, body, mediaURL, sid string) *models.MessageLog {
	if sid == "" {
		sid = uuid.NewString()
	}
	entry := &models.MessageLog{
		UserID:     userID,
		Direction:  direction,
		Body:       body,
		MediaURL:   mediaURL,
		MessageSid: sid,
	}
	if err := w.store.CreateMessageLog(entry); err != nil {
		log.Printf("❌ Failed to log %s message for user %d: %v", direction, userID, err)
		return nil
	}
	return entry
}

// ===== Commands =====

func (w *WhatsAppService) handleCommand(user *models.User, text string) string {
	fields := strings.Fields(text)
	command := strings.ToLower(fields[0])
	args := fields[1:]

	log.Printf("Processing command '%s' from user %d", command, user.ID)

	switch command {
	case "/inicio":
		return w.welcomeMessage(user)
	case "/menu":
		return menuText
	case "/peso":
		return w.handleWeight(user, args)
	case "/agua":
		return w.handleWater(user, args)
	case "/treino":
		return w.handleWorkouts(user)
	case "/relatorio":
		return w.handleWeeklyReport(user)
	default:
		return replyUnknown
	}
}

func (w *WhatsAppService) welcomeMessage(user *models.User) string {
	greeting := "💪 Bem-vindo ao ZapFit!"
	if name := user.FirstName(); name != "" {
		greeting = fmt.Sprintf("💪 Bem-vindo ao ZapFit, %s!", name)
	}
	return greeting + "\n\nEu sou a Zapi, sua coach de nutrição e treinos aqui no WhatsApp. " +
		"Mande uma foto da sua refeição, registre seu peso e sua água, ou só converse comigo.\n\n" +
		"Digite /menu para ver todos os comandos!"
}

func (w *WhatsAppService) handleWeight(user *models.User, args []string) string {
	if len(args) == 0 {
		return replyWeightUsage
	}

	value, err := parseDecimal(args[0])
	if err != nil {
		return replyWeightUsage
	}

	entry := &models.WeightLog{
		UserID:   user.ID,
		Date:     storage.StartOfDay(time.Now()),
		WeightKg: value,
	}
	if err := w.store.CreateWeightLog(entry); err != nil {
		log.Printf("❌ Failed to save weight for user %d: %v", user.ID, err)
		return replySaveProblem
	}

	return fmt.Sprintf("⚖️ Peso de %s kg registrado! Continue assim que a constância é o segredo. 🎯", formatDecimal(value))
}

func (w *WhatsAppService) handleWater(user *models.User, args []string) string {
	if len(args) == 0 {
		return replyWaterUsage
	}

	ml, err := strconv.Atoi(args[0])
	if err != nil || ml <= 0 {
		return replyWaterUsage
	}

	total, err := w.store.AddWaterIntake(user.ID, time.Now(), ml)
	if err != nil {
		log.Printf("❌ Failed to save water intake for user %d: %v", user.ID, err)
		return replySaveProblem
	}

	return fmt.Sprintf("💧 Mais %dml registrados! Total de hoje: %dml. Hidratação em dia! 🙌", ml, total)
}

func (w *WhatsAppService) handleWorkouts(user *models.User) string {
	templates, err := w.store.GetWorkoutTemplates(workoutListLimit)
	if err != nil {
		log.Printf("❌ Failed to list workouts for user %d: %v", user.ID, err)
		return replySaveProblem
	}
	if len(templates) == 0 {
		return "🏋️ Nenhum treino encontrado por aqui ainda. Monte seu primeiro treino no app! 📲"
	}

	var sb strings.Builder
	sb.WriteString("🏋️ *Seus treinos:*\n\n")
	for i, t := range templates {
		sb.WriteString(fmt.Sprintf("%d. *%s* — %s (%d min)\n", i+1, t.Name, t.Focus, t.DurationMin))
	}
	sb.WriteString("\nAbra o app para ver os exercícios completos! 📲")
	return sb.String()
}

func (w *WhatsAppService) handleWeeklyReport(user *models.User) string {
	since := time.Now().AddDate(0, 0, -7)

	workouts, err := w.store.CountWorkoutsSince(user.ID, since)
	if err != nil {
		log.Printf("❌ Failed to count workouts for user %d: %v", user.ID, err)
	}
	waterTotal, err := w.store.SumWaterSince(user.ID, since)
	if err != nil {
		log.Printf("❌ Failed to sum water for user %d: %v", user.ID, err)
	}
	meals, err := w.store.CountMealsSince(user.ID, since)
	if err != nil {
		log.Printf("❌ Failed to count meals for user %d: %v", user.ID, err)
	}

	return fmt.Sprintf(`📊 *Seu resumo dos últimos 7 dias:*

🏋️ Treinos concluídos: %d
💧 Média de água por dia: %dml
🍽️ Refeições registradas: %d`, workouts, waterTotal/7, meals)
}

// ===== Food photos =====

func (w *WhatsAppService) handleFoodPhoto(ctx context.Context, user *models.User, photoURL string) string {
	raw, err := w.ai.AnalyzeFoodPhoto(ctx, photoURL)
	if err != nil {
		log.Printf("❌ Food photo analysis failed for user %d: %v", user.ID, err)
		return replyPhotoProblem
	}

	analysis, jsonBlock, ok := parseFoodAnalysis(raw)
	if ok {
		meal := &models.Meal{
			UserID:      user.ID,
			AteAt:       time.Now(),
			Description: analysis.Prato,
			Calories:    analysis.Calorias,
			ProteinG:    analysis.ProteinasG,
			CarbsG:      analysis.CarboidratosG,
			FatG:        analysis.GordurasG,
			PhotoURL:    photoURL,
			RawAnalysis: jsonBlock,
		}
		if err := w.store.CreateMeal(meal); err != nil {
			log.Printf("❌ Failed to save meal for user %d: %v", user.ID, err)
			ok = false
		}
	}

	reply := fmt.Sprintf(`🍽️ *%s*

🔥 Calorias: ~%.0f kcal
🥩 Proteínas: %.0fg
🍞 Carboidratos: %.0fg
🥑 Gorduras: %.0fg

%s`, analysis.Prato, analysis.Calorias, analysis.ProteinasG, analysis.CarboidratosG, analysis.GordurasG, analysis.Comentario)

	if ok {
		reply += "\n\n✅ Refeição registrada automaticamente no seu diário!"
	}
	return reply
}

// ===== Free-text chat =====

func (w *WhatsAppService) handleChat(ctx context.Context, user *models.User, text string, beforeID uint) string {
	messages := []ChatMessage{{Role: "system", Content: coachPersona + w.userContext(user)}}

	history, err := w.store.GetRecentMessages(user.ID, historyLimit, beforeID)
	if err != nil {
		log.Printf("❌ Failed to load history for user %d: %v", user.ID, err)
	}
	// newest-first from the store; the model wants oldest-first
	for i := len(history) - 1; i >= 0; i-- {
		role := "user"
		if history[i].Direction == models.DirectionOutbound {
			role = "assistant"
		}
		messages = append(messages, ChatMessage{Role: role, Content: history[i].Body})
	}

	messages = append(messages, ChatMessage{Role: "user", Content: text})

	content, err := w.ai.Chat(ctx, messages)
	switch {
	case errors.Is(err, ErrAIRateLimited):
		return replyAIThrottled
	case errors.Is(err, ErrAIQuotaExceeded):
		return replyAIQuota
	case err != nil:
		log.Printf("❌ AI chat failed for user %d: %v", user.ID, err)
		return replyAIProblem
	}

	if content == "" {
		return replyAIDefault
	}
	return content
}

func (w *WhatsAppService) userContext(user *models.User) string {
	var parts []string
	if name := user.FirstName(); name != "" {
		parts = append(parts, fmt.Sprintf("O usuário se chama %s.", name))
	}
	if user.Goal != "" {
		parts = append(parts, fmt.Sprintf("Objetivo: %s.", user.Goal))
	}
	if user.ActivityLevel != "" {
		parts = append(parts, fmt.Sprintf("Nível de atividade: %s.", user.ActivityLevel))
	}
	if len(parts) == 0 {
		return ""
	}
	return "\n\nSobre o usuário: " + strings.Join(parts, " ")
}

// ===== Helpers =====

// parseDecimal accepts "82.3" or "82,3" and rejects non-finite or
// non-positive values
func parseDecimal(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("invalid value: %s", s)
	}
	return v, nil
}

// formatDecimal renders a weight the way Brazilians write it: comma decimals
func formatDecimal(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', -1, 64), ".", ",", 1)
}

func firstMedia(urls []string) string {
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}

func inboundID(entry *models.MessageLog) uint {
	if entry == nil {
		return math.MaxUint32
	}
	return entry.ID
}
