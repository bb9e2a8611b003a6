// Package redemption: handlers.go answers the "Redeem Account" and
// "My History" buttons. The redeemed credential is delivered with a
// report button carrying the redemption ID, so a later dispute pins to
// this exact redemption.
package redemption

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

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

// HandleRedeem runs the exchange and delivers the credential.
func (h *Handler) HandleRedeem(ctx context.Context, chatID, userID int64) {
	res, err := h.service.Redeem(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUserNotFound):
			h.sendMessage(chatID, "❌ User not found. Send /start first.")
		case errors.Is(err, common.ErrInsufficientPoints):
			h.sendMessage(chatID, "❌ Not enough points to redeem. Invite friends or claim your daily reward!")
		case errors.Is(err, common.ErrOutOfStock):
			h.sendMessage(chatID, "⚠️ No accounts left in stock. More coming soon!")
		default:
			log.WithError(err).WithField("user_id", userID).Error("redeem failed")
			h.sendMessage(chatID, "❌ Redemption failed, nothing was deducted. Try again.")
		}
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatDelivery(res))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚠️ Report Broken Account", fmt.Sprintf("report:%d", res.RecordID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Back to Menu", "dashboard"),
		),
	)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to deliver credential")
	}
}

// HandleHistory shows the user's redemptions, passwords masked.
func (h *Handler) HandleHistory(ctx context.Context, chatID, userID int64) {
	recs, err := h.service.History(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("history query failed")
		h.sendMessage(chatID, "❌ Failed to load your history.")
		return
	}

	if len(recs) == 0 {
		h.sendMessage(chatID, "📜 You haven't redeemed any accounts yet.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, formatHistory(recs))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send history")
	}
}

// formatDelivery renders the redeemed credential. Payloads are raw
// vault text and may contain HTML metacharacters; they must be escaped
// or Telegram rejects the message after the points are already spent.
func formatDelivery(res *Result) string {
	return fmt.Sprintf(
		"🔐 <b>ACCOUNT REDEEMED SUCCESSFULLY!</b> 🔐\n\n"+
			"<code>%s</code>\n\n"+
			"Cost: -%d %s\n💰 Balance: %d %s",
		html.EscapeString(res.Payload),
		res.Cost, common.PluralizePoints(res.Cost),
		res.Balance, common.PluralizePoints(res.Balance),
	)
}

// formatHistory renders past redemptions, passwords masked.
func formatHistory(recs []Record) string {
	var sb strings.Builder
	sb.WriteString("📜 <b>REDEMPTION HISTORY</b>\n\n")
	for i, rec := range recs {
		sb.WriteString(fmt.Sprintf("%d. <code>%s</code> — %s\n",
			i+1, html.EscapeString(common.MaskCredential(rec.Account)), common.FormatDateTime(rec.CreatedAt)))
	}
	return sb.String()
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
	}
}
