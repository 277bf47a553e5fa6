package handlers

import (
	"fmt"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/zapfit/zapfit-backend/internal/services"
)

// WhatsAppHandler handles WhatsApp webhook requests
type WhatsAppHandler struct {
	service *services.WhatsAppService
}

// NewWhatsAppHandler creates a new WhatsApp handler
func NewWhatsAppHandler(service *services.WhatsAppService) *WhatsAppHandler {
	return &WhatsAppHandler{service: service}
}

// TwilioWebhookPayload represents an incoming WhatsApp message from Twilio
type TwilioWebhookPayload struct {
	MessageSid string `form:"MessageSid"`
	AccountSid string `form:"AccountSid"`
	From       string `form:"From"` // WhatsApp number (whatsapp:+5511999999999)
	To         string `form:"To"`   // Your Twilio number
	Body       string `form:"Body"` // Message text
	NumMedia   string `form:"NumMedia"`
}

// HandleWebhook processes incoming WhatsApp messages. Business failures never
// bubble up: Twilio retries on 5xx and we don't want duplicate deliveries.
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	// Status callbacks and other events arrive without a sender
	if payload.From == "" {
		return c.SendStatus(fiber.StatusOK)
	}

	log.Printf("📱 WhatsApp message from %s: %q", payload.From, payload.Body)

	numMedia, _ := strconv.Atoi(payload.NumMedia)
	var mediaURLs []string
	for i := 0; i < numMedia; i++ {
		if url := c.FormValue(fmt.Sprintf("MediaUrl%d", i)); url != "" {
			mediaURLs = append(mediaURLs, url)
		}
	}

	h.service.HandleIncoming(c.Context(), services.InboundMessage{
		From:       payload.From,
		Body:       payload.Body,
		MediaURLs:  mediaURLs,
		MessageSid: payload.MessageSid,
	})

	// Acknowledge webhook receipt
	return c.SendStatus(fiber.StatusOK)
}
