package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zapfit/zapfit-backend/internal/storage"
)

// AdminHandler serves the usage overview consumed by the admin panel
type AdminHandler struct {
	store storage.Store
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store storage.Store) *AdminHandler {
	return &AdminHandler{store: store}
}

// Overview returns aggregate usage counters
func (h *AdminHandler) Overview(c *fiber.Ctx) error {
	stats, err := h.store.GetUsageStats()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load usage stats",
		})
	}

	return c.JSON(fiber.Map{
		"total_users":       stats.TotalUsers,
		"premium_users":     stats.PremiumUsers,
		"messages_last_24h": stats.MessagesLast24h,
		"meals_last_24h":    stats.MealsLast24h,
	})
}
