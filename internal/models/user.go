package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Plan types
const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// User represents an app user reachable over WhatsApp.
// Profiles are created by the signup flow in the app; this service mostly
// reads them and only touches the WhatsApp activity fields.
type User struct {
	gorm.Model

	Name           string     `json:"name"`
	Email          string     `json:"email" gorm:"uniqueIndex"`
	WhatsAppPhone  string     `json:"whatsapp_phone" gorm:"uniqueIndex"` // E.164, e.g. +5511999999999
	WhatsAppOptIn  bool       `json:"whatsapp_opt_in" gorm:"default:true"`
	WhatsAppActive bool       `json:"whatsapp_active" gorm:"default:false"`
	PlanType       string     `json:"plan_type" gorm:"default:free"` // "free" | "premium"
	Goal           string     `json:"goal"`                          // e.g. "emagrecer", "ganhar massa"
	ActivityLevel  string     `json:"activity_level"`                // e.g. "sedentário", "ativo"
	LastMessageAt  *time.Time `json:"last_message_at"`
}

// BeforeCreate hook to normalize the WhatsApp phone number
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.WhatsAppPhone = strings.ReplaceAll(u.WhatsAppPhone, " ", "")

	// Ensure E.164 (default to Brazil country code)
	if u.WhatsAppPhone != "" && !strings.HasPrefix(u.WhatsAppPhone, "+") {
		u.WhatsAppPhone = "+55" + strings.TrimPrefix(u.WhatsAppPhone, "55")
	}

	if u.PlanType == "" {
		u.PlanType = PlanFree
	}

	return nil
}

// IsPremium reports whether the user is on a paid plan
func (u *User) IsPremium() bool {
	return u.PlanType == PlanPremium
}

// FirstName returns the first word of the user's name for casual replies
func (u *User) FirstName() string {
	fields := strings.Fields(u.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
