package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config carries everything the service needs from the environment. Loaded
// once in main and injected into constructors so handlers can be built with
// fakes in tests.
type Config struct {
	Port string

	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string

	AIGatewayURL  string
	AIAPIKey      string
	AIModel       string
	AIVisionModel string

	JWTSecret string

	UseMemoryStore           bool
	DisableWebhookValidation bool
}

// Load reads the environment (and a local .env file, if present)
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found - using environment variables")
	}

	return &Config{
		Port: getenv("PORT", "8080"),

		TwilioAccountSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppFrom: os.Getenv("TWILIO_WHATSAPP_FROM"), // Format: "whatsapp:+14155238886"

		AIGatewayURL:  getenv("AI_GATEWAY_URL", "https://api.openai.com/v1"),
		AIAPIKey:      os.Getenv("AI_API_KEY"),
		AIModel:       getenv("AI_MODEL", "gpt-4o-mini"),
		AIVisionModel: getenv("AI_VISION_MODEL", "gpt-4o"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		UseMemoryStore:           os.Getenv("USE_MEMORY_STORE") == "true",
		DisableWebhookValidation: os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true",
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
