// Package ledger: handlers.go answers the "Daily Reward" button.
package ledger

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/terajutt/INSTA-UNC/internal/common"
)

type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
}

func NewHandler(service *Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleDailyClaim credits the daily reward or reports the remaining
// cooldown.
func (h *Handler) HandleDailyClaim(ctx context.Context, chatID, userID int64) {
	res, err := h.service.ClaimDaily(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrDailyNotReady):
			left, lerr := h.service.NextClaimIn(ctx, userID)
			if lerr != nil {
				h.sendMessage(chatID, "⏳ Daily reward not ready yet.")
				return
			}
			h.sendMessage(chatID, fmt.Sprintf("⏳ Next daily reward in %s.", common.FormatDuration(left)))
		case errors.Is(err, common.ErrUserNotFound):
			h.sendMessage(chatID, "❌ User not found. Send /start first.")
		default:
			log.WithError(err).WithField("user_id", userID).Error("daily claim failed")
			h.sendMessage(chatID, "❌ Failed to claim the daily reward, try again.")
		}
		return
	}

	h.sendMessage(chatID, fmt.Sprintf(
		"🎁 Daily reward claimed: +%d %s!\n💰 Balance: %d %s",
		res.Awarded, common.PluralizePoints(res.Awarded),
		res.Balance, common.PluralizePoints(res.Balance),
	))
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
	}
}
