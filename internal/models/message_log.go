package models

import "gorm.io/gorm"

// Message directions
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// MessageLog is one WhatsApp message, either direction. Append-only: rows are
// never updated or deleted, and the rolling rate-limit window is computed
// straight from this table.
type MessageLog struct {
	gorm.Model

	UserID     uint   `json:"user_id" gorm:"index"`
	Direction  string `json:"direction" gorm:"index"`
	Body       string `json:"body" gorm:"type:text"`
	MediaURL   string `json:"media_url"`
	MessageSid string `json:"message_sid"`
}
