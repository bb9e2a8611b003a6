// Package users: handlers.go drives /start, the dashboard and the
// referral leaderboard.
package users

import (
	"context"
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

// ReferralLink builds the deep link that credits userID for signups.
func (h *Handler) ReferralLink(userID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%d", h.bot.Self.UserName, userID)
}

// DashboardMarkup is the main menu shown under the dashboard.
func (h *Handler) DashboardMarkup(userID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 Check Points", "dashboard"),
			tgbotapi.NewInlineKeyboardButtonData("🎁 Daily Reward", "daily"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔑 Redeem Account", "redeem"),
			tgbotapi.NewInlineKeyboardButtonData("📜 My History", "history"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏆 Leaderboard", "leaderboard"),
			tgbotapi.NewInlineKeyboardButtonURL("📣 Share Referral", h.ReferralLink(userID)),
		),
	)
}

// HandleStart registers the user (idempotent) and shows the welcome
// message. A numeric /start payload is the referrer's ID.
func (h *Handler) HandleStart(ctx context.Context, chatID, userID int64, username string, args []string) {
	var refBy *int64
	if len(args) > 0 {
		if id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64); err == nil && id > 0 {
			refBy = &id
		}
	}

	created, err := h.service.Register(ctx, userID, username, refBy)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("registration failed")
		h.sendMessage(chatID, "❌ Something went wrong, please try /start again.")
		return
	}

	name := username
	if name == "" {
		name = strconv.FormatInt(userID, 10)
	}

	var text string
	if created {
		text = fmt.Sprintf(
			"🌟 <b>WELCOME TO IG VAULT!</b> 🌟\n\n"+
				"Hello, <b>%s</b>! 👋\n\n"+
				"Earn points by:\n"+
				"• 👥 Inviting friends (+%d points per referral)\n"+
				"• 🎁 Claiming daily rewards (+%d points)\n"+
				"• ⭐ Becoming VIP (%d+ referrals)\n\n"+
				"<b>VIP benefits:</b> +%d daily points and redemptions for %d instead of %d.\n\n"+
				"<b>Your referral link:</b>\n<code>%s</code>",
			name, h.cfg.ReferralReward, h.cfg.DailyReward, h.cfg.VIPThreshold,
			h.cfg.DailyRewardVIP, h.cfg.RedeemCostVIP, h.cfg.RedeemCost,
			h.ReferralLink(userID),
		)
	} else {
		text = fmt.Sprintf("👋 Welcome back, <b>%s</b>!", name)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = h.DashboardMarkup(userID)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send welcome")
	}
}

// HandleDashboard shows the points/referrals/VIP summary.
func (h *Handler) HandleDashboard(ctx context.Context, chatID, userID int64) {
	u, err := h.service.Get(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("dashboard lookup failed")
		h.sendMessage(chatID, "❌ User not found. Send /start first.")
		return
	}

	vipStatus := "❌ Not VIP"
	if u.VIP {
		vipStatus = "✅ VIP Member"
	}
	lastClaim := "Never"
	if u.LastDaily != nil {
		lastClaim = common.FormatDateTime(*u.LastDaily)
	}

	text := fmt.Sprintf(
		"🏆 <b>USER DASHBOARD</b> 🏆\n\n"+
			"👤 <b>Username:</b> %s\n"+
			"💰 <b>Points:</b> %d\n"+
			"👥 <b>Referrals:</b> %d\n"+
			"⭐ <b>Status:</b> %s\n"+
			"⏱ <b>Last Reward:</b> %s\n\n"+
			"<i>Invite friends to earn more points!</i>",
		u.DisplayName(), u.Points, u.Referrals, vipStatus, lastClaim,
	)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = h.DashboardMarkup(userID)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send dashboard")
	}
}

// HandleLeaderboard shows the top referrers.
func (h *Handler) HandleLeaderboard(ctx context.Context, chatID int64) {
	top, err := h.service.TopReferrers(ctx, 10)
	if err != nil {
		log.WithError(err).Error("leaderboard query failed")
		h.sendMessage(chatID, "❌ Failed to load the leaderboard.")
		return
	}

	if len(top) == 0 {
		h.sendMessage(chatID, "🏆 No referrals yet. Be the first!")
		return
	}

	medals := []string{"🥇", "🥈", "🥉"}
	var sb strings.Builder
	sb.WriteString("🏆 <b>REFERRAL LEADERBOARD</b>\n\n")
	for i, t := range top {
		pos := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			pos = medals[i]
		}
		name := t.Username
		if name == "" {
			name = strconv.FormatInt(t.UserID, 10)
		}
		sb.WriteString(fmt.Sprintf("%s %s — %d referrals\n", pos, name, t.Referrals))
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send leaderboard")
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
	}
}
