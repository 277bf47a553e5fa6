package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/zapfit/zapfit-backend/internal/config"
	"github.com/zapfit/zapfit-backend/internal/handlers"
	"github.com/zapfit/zapfit-backend/internal/middleware"
	"github.com/zapfit/zapfit-backend/internal/services"
	"github.com/zapfit/zapfit-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, cfg *config.Config, store storage.Store, whatsappService *services.WhatsAppService) {

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "ZapFit Backend",
			"version": "1.0.0",
			"endpoints": fiber.Map{
				"health":  "/health",
				"webhook": "/webhook/whatsapp",
				"admin":   "/admin",
			},
		})
	})

	// Health check endpoint for monitoring
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"services": fiber.Map{
				"twilio": cfg.TwilioAccountSID != "",
				"ai":     cfg.AIAPIKey != "",
			},
		})
	})

	// ========== WEBHOOK ROUTES ==========
	whatsappHandler := handlers.NewWhatsAppHandler(whatsappService)
	webhooks := app.Group("/webhook")

	if cfg.DisableWebhookValidation {
		// Development: skip validation for ngrok
		log.Println("⚠️  WhatsApp webhook validation DISABLED")
		webhooks.Post("/whatsapp", whatsappHandler.HandleWebhook)
	} else {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(cfg.TwilioAuthToken), whatsappHandler.HandleWebhook)
	}

	// ========== ADMIN ROUTES ==========
	adminHandler := handlers.NewAdminHandler(store)
	admin := app.Group("/admin", middleware.RequireAdminToken(cfg.JWTSecret))
	admin.Get("/overview", adminHandler.Overview)
}
