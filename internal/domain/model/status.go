package model

import "time"

// BotStatus is the last known state of the bot process, read by the dashboard.
type BotStatus struct {
	Running     bool      `json:"running"`
	LastMessage string    `json:"last_message,omitempty"`
	Error       string    `json:"error,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
