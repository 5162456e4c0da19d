// File: internal/domain/ports/adapter/telegram.go
package adapter

import "context"

// Document is a file sent to a chat.
type Document struct {
	Name    string
	Data    []byte
	Caption string
}

// Messenger is the outbound side of the bot.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, doc Document) error
}
