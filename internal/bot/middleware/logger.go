// Package middleware holds the cross-cutting update handling: logging,
// panic recovery and per-user rate limiting.
package middleware

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// LogMessage logs an incoming message: user, chat, first 50 chars of text.
func LogMessage(message *tgbotapi.Message) {
	if message == nil || message.From == nil {
		return
	}

	text := message.Text
	if len(text) > 50 {
		text = text[:50] + "..."
	}

	log.WithFields(log.Fields{
		"user_id":  message.From.ID,
		"chat_id":  message.Chat.ID,
		"username": message.From.UserName,
		"text":     text,
	}).Debug("Incoming message")
}

// LogCallback logs an inline button press.
func LogCallback(cb *tgbotapi.CallbackQuery) {
	if cb == nil || cb.From == nil {
		return
	}
	log.WithFields(log.Fields{
		"user_id": cb.From.ID,
		"data":    cb.Data,
	}).Debug("Incoming callback")
}
