package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/zapfit/zapfit-backend/database"
	"github.com/zapfit/zapfit-backend/internal/config"
	"github.com/zapfit/zapfit-backend/internal/jobs"
	"github.com/zapfit/zapfit-backend/internal/models"
	"github.com/zapfit/zapfit-backend/internal/routes"
	"github.com/zapfit/zapfit-backend/internal/services"
	"github.com/zapfit/zapfit-backend/internal/storage"
)

func main() {
	cfg := config.Load()

	// Initialize storage
	var store storage.Store

	if cfg.UseMemoryStore {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.User{},
			&models.MessageLog{},
			&models.WeightLog{},
			&models.WaterIntake{},
			&models.Meal{},
			&models.WorkoutTemplate{},
			&models.WorkoutSession{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
	}

	// Initialize Twilio service
	twilioService, err := services.NewTwilioService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom)
	if err != nil {
		log.Fatal("Failed to initialize Twilio service:", err)
	}
	log.Println("✅ Twilio service initialized")

	// Initialize AI gateway client and the message router
	aiService := services.NewAIService(cfg.AIGatewayURL, cfg.AIAPIKey, cfg.AIModel, cfg.AIVisionModel)
	whatsappService := services.NewWhatsAppService(store, twilioService, aiService)

	// Start the daily re-engagement job
	reminderJob := jobs.NewReminderJob(store, twilioService)
	if err := reminderJob.Start(); err != nil {
		log.Fatal("Failed to start reminder job:", err)
	}

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "ZapFit Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	routes.SetupRoutes(app, cfg, store, whatsappService)

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		reminderJob.Stop()
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 ZapFit Backend starting on port %s", cfg.Port)
	log.Printf("📱 WhatsApp: %s", whatsAppStatus(cfg.TwilioAccountSID))
	log.Println("========================================")

	log.Fatal(app.Listen(":" + cfg.Port))
}

func whatsAppStatus(twilioSID string) string {
	if twilioSID == "" {
		return "Not configured"
	}
	return "Configured"
}
