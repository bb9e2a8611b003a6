// Package reports: handlers.go drives the two-step report flow: the
// report button opens the reason keyboard, the chosen reason files the
// dispute and pings the admins.
package reports

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/terajutt/INSTA-UNC/internal/common"
	"github.com/terajutt/INSTA-UNC/internal/config"
)

type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
	cfg     *config.Config
}

func NewHandler(service *Service, bot *tgbotapi.BotAPI, cfg *config.Config) *Handler {
	return &Handler{service: service, bot: bot, cfg: cfg}
}

// HandleReportButton shows the reason keyboard for callback data
// "report:<redemptionID>".
func (h *Handler) HandleReportButton(ctx context.Context, chatID int64, data string) {
	redemptionID := parseID(data)

	markup := tgbotapi.NewInlineKeyboardMarkup(
		reasonRow(redemptionID, ReasonPasswordChanged),
		reasonRow(redemptionID, ReasonAccountLocked),
		reasonRow(redemptionID, ReasonTwoFactorEnabled),
		reasonRow(redemptionID, ReasonOther),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔙 Cancel", "dashboard"),
		),
	)

	msg := tgbotapi.NewMessage(chatID,
		"⚠️ <b>REPORT BROKEN ACCOUNT</b> ⚠️\n\nWhy doesn't this account work?")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send reason keyboard")
	}
}

func reasonRow(redemptionID int64, reason Reason) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(
			reason.Label(),
			fmt.Sprintf("reason:%d:%s", redemptionID, reason),
		),
	)
}

// HandleReasonChosen files the report for callback data
// "reason:<redemptionID>:<code>" and notifies the admins.
func (h *Handler) HandleReasonChosen(ctx context.Context, chatID, userID int64, username, data string) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 {
		return
	}
	redemptionID, _ := strconv.ParseInt(parts[1], 10, 64)
	reasonCode := parts[2]

	reportID, err := h.service.FileForRedemption(ctx, userID, redemptionID, reasonCode)
	if err != nil {
		if errors.Is(err, common.ErrReportNotFound) {
			h.sendMessage(chatID, "❌ You have no redemption to report.")
			return
		}
		log.WithError(err).WithField("user_id", userID).Error("failed to file report")
		h.sendMessage(chatID, "❌ Failed to submit the report, try again.")
		return
	}

	reason := NormalizeReason(reasonCode)
	h.sendMessage(chatID, fmt.Sprintf(
		"✅ Report #%d submitted (%s).\nOur admins will review it; if approved, your points come back.",
		reportID, reason.Label(),
	))

	if username == "" {
		username = strconv.FormatInt(userID, 10)
	}
	notice := fmt.Sprintf(
		"⚠️ <b>NEW ACCOUNT REPORT</b> ⚠️\n\nReport #%d from %s (ID: %d)\nReason: %s\n\nUse /admin to review.",
		reportID, username, userID, reason.Label(),
	)
	for _, adminID := range h.cfg.AdminIDs {
		msg := tgbotapi.NewMessage(adminID, notice)
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := h.bot.Send(msg); err != nil {
			log.WithError(err).WithField("admin_id", adminID).Debug("admin notification failed")
		}
	}
}

func parseID(data string) int64 {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return 0
	}
	id, _ := strconv.ParseInt(parts[1], 10, 64)
	return id
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
	}
}
