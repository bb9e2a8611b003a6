// Package admin: handlers.go drives the admin panel: /login, /admin,
// the add-accounts and broadcast dialogs, and report review.
package admin

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/terajutt/INSTA-UNC/internal/common"
	"github.com/terajutt/INSTA-UNC/internal/features/reports"
)

type Handler struct {
	service *Service
	reports *reports.Service
	bot     *tgbotapi.BotAPI
}

func NewHandler(service *Service, reportsSvc *reports.Service, bot *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, reports: reportsSvc, bot: bot}
}

func adminMenuMarkup() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add Accounts", "admin:add"),
			tgbotapi.NewInlineKeyboardButtonData("⚠️ View Reports", "admin:reports"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📢 Broadcast", "admin:broadcast"),
		),
	)
}

// HandleLogin processes "/login <password>".
func (h *Handler) HandleLogin(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "Usage: /login <password>")
		return
	}

	err := h.service.Login(ctx, userID, strings.Join(args, " "))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotAdmin):
			// Don't advertise the panel's existence to strangers.
			return
		case errors.Is(err, common.ErrTooManyAttempts):
			h.sendMessage(chatID, "⛔ Too many attempts, wait an hour.")
		case errors.Is(err, common.ErrWrongPassword):
			h.sendMessage(chatID, "❌ Wrong password.")
		default:
			log.WithError(err).WithField("user_id", userID).Error("admin login failed")
			h.sendMessage(chatID, "❌ Login failed, try again.")
		}
		return
	}

	h.sendMessage(chatID, "✅ Logged in for 24 hours. Use /admin for the panel.")
}

// HandleLogout closes the admin session.
func (h *Handler) HandleLogout(ctx context.Context, chatID, userID int64) {
	if err := h.service.Logout(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("logout failed")
		return
	}
	h.sendMessage(chatID, "👋 Logged out.")
}

// HandleAdminCommand shows the dashboard, auth permitting. Strangers get
// silence; a known admin with a dead session gets a login hint.
func (h *Handler) HandleAdminCommand(ctx context.Context, chatID, userID int64) {
	if err := h.service.RequireAdministrator(ctx, userID); err != nil {
		if errors.Is(err, common.ErrSessionExpired) {
			h.sendMessage(chatID, "🔒 Session expired. Use /login <password> to continue.")
		}
		return
	}
	h.showDashboard(ctx, chatID)
}

func (h *Handler) showDashboard(ctx context.Context, chatID int64) {
	stats, err := h.service.GetStats(ctx)
	if err != nil {
		log.WithError(err).Error("stats query failed")
		h.sendMessage(chatID, "❌ Failed to load stats.")
		return
	}

	text := fmt.Sprintf(
		"📊 <b>ADMIN DASHBOARD</b> 📊\n\n"+
			"👥 <b>Total Users:</b> %d\n"+
			"🔑 <b>Stock:</b> %d (standard %d / premium %d)\n"+
			"🎁 <b>Total Redemptions:</b> %d\n"+
			"⚠️ <b>Pending Reports:</b> %d",
		stats.Users, stats.Stock,
		stats.StockByTier["standard"], stats.StockByTier["premium"],
		stats.Redemptions, stats.PendingReports,
	)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = adminMenuMarkup()
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send dashboard")
	}
}

// HandleCallback routes admin:* and approve/reject callbacks. Returns
// false when the data is not an admin callback.
func (h *Handler) HandleCallback(ctx context.Context, chatID, userID int64, data string) bool {
	isAdminData := strings.HasPrefix(data, "admin:") ||
		strings.HasPrefix(data, "approve:") || strings.HasPrefix(data, "reject:")
	if !isAdminData {
		return false
	}
	if err := h.service.RequireAdministrator(ctx, userID); err != nil {
		if errors.Is(err, common.ErrSessionExpired) {
			h.sendMessage(chatID, "🔒 Session expired. Use /login <password> to continue.")
		}
		return true
	}

	switch {
	case data == "admin:menu":
		h.service.ClearState(userID)
		h.showDashboard(ctx, chatID)

	case data == "admin:add":
		h.service.SetState(userID, StateAwaitingBulkAdd)
		h.sendMessage(chatID,
			"➕ Paste the accounts to add.\n\nSupported formats:\n"+
				"1. user:pass, one per line (standard tier)\n"+
				"2. Decorated blocks with USERNAME/EMAIL/RESET (premium tier)")

	case data == "admin:broadcast":
		h.service.SetState(userID, StateAwaitingBroadcast)
		h.sendMessage(chatID, "📢 Send the broadcast text. It goes to every registered user.")

	case data == "admin:reports":
		h.showPendingReports(ctx, chatID)

	case strings.HasPrefix(data, "approve:"):
		h.decide(ctx, chatID, data, reports.DecisionApprove)

	case strings.HasPrefix(data, "reject:"):
		h.decide(ctx, chatID, data, reports.DecisionReject)
	}
	return true
}

// HandleMessage consumes an admin's plain message while a dialog is
// active. Returns false when the admin is idle.
func (h *Handler) HandleMessage(ctx context.Context, chatID, userID int64, text string) bool {
	state := h.service.State(userID)
	if state == StateIdle {
		return false
	}
	if !h.service.IsAdministrator(ctx, userID) {
		h.service.ClearState(userID)
		return false
	}

	switch state {
	case StateAwaitingBulkAdd:
		h.service.ClearState(userID)
		res, err := h.service.AddAccounts(ctx, text)
		if err != nil {
			log.WithError(err).Error("bulk add failed")
			h.sendMessage(chatID, "❌ Failed to add accounts, try again.")
			return true
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "✅ Added %d accounts to the pool.\n", res.Added)
		if len(res.Rejected) > 0 {
			fmt.Fprintf(&sb, "\n❌ %d rejected entries:\n", len(res.Rejected))
			for i, rej := range res.Rejected {
				if i == 5 {
					fmt.Fprintf(&sb, "... and %d more\n", len(res.Rejected)-5)
					break
				}
				fmt.Fprintf(&sb, "%d. %s\n", i+1, rej)
			}
		}
		h.sendMessage(chatID, sb.String())

	case StateAwaitingBroadcast:
		h.service.ClearState(userID)
		if strings.TrimSpace(text) == "" {
			h.sendMessage(chatID, "❌ Broadcast message cannot be empty.")
			return true
		}
		formatted := fmt.Sprintf("📢 <b>ANNOUNCEMENT</b> 📢\n\n%s", text)
		res, err := h.service.Broadcast(ctx, formatted, func(userID int64, text string) error {
			msg := tgbotapi.NewMessage(userID, text)
			msg.ParseMode = tgbotapi.ModeHTML
			_, err := h.bot.Send(msg)
			return err
		})
		if err != nil {
			log.WithError(err).Error("broadcast failed")
			h.sendMessage(chatID, "❌ Broadcast failed, try again.")
			return true
		}
		h.sendMessage(chatID, fmt.Sprintf(
			"📢 Broadcast completed!\n\n✅ Sent: %d\n❌ Failed: %d", res.Sent, res.Failed))
	}
	return true
}

func (h *Handler) showPendingReports(ctx context.Context, chatID int64) {
	pending, err := h.reports.Pending(ctx)
	if err != nil {
		log.WithError(err).Error("pending reports query failed")
		h.sendMessage(chatID, "❌ Failed to load reports.")
		return
	}

	if len(pending) == 0 {
		h.sendMessage(chatID, "⚠️ No reports pending review.")
		return
	}

	var sb strings.Builder
	sb.WriteString("⚠️ <b>PENDING REPORTS</b>\n\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, rep := range pending {
		if i == 5 {
			fmt.Fprintf(&sb, "... and %d more\n", len(pending)-5)
			break
		}
		fmt.Fprintf(&sb, "<b>Report #%d</b>\nFrom: %s (ID: %d)\nAccount: <code>%s</code>\nReason: %s\nDate: %s\n\n",
			rep.ID, html.EscapeString(rep.Username), rep.UserID,
			html.EscapeString(common.Truncate(rep.Account, 60)), rep.Reason.Label(),
			common.FormatDateTime(rep.CreatedAt))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✅ Approve #%d", rep.ID), fmt.Sprintf("approve:%d", rep.ID)),
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("❌ Reject #%d", rep.ID), fmt.Sprintf("reject:%d", rep.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Back", "admin:menu")))

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send reports")
	}
}

func (h *Handler) decide(ctx context.Context, chatID int64, data string, decision reports.Decision) {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return
	}
	reportID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return
	}

	res, err := h.reports.Decide(ctx, reportID, decision)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrAlreadyDecided):
			h.sendMessage(chatID, fmt.Sprintf("⚠️ Report #%d was already decided.", reportID))
		case errors.Is(err, common.ErrReportNotFound):
			h.sendMessage(chatID, fmt.Sprintf("❌ Report #%d not found.", reportID))
		default:
			log.WithError(err).WithField("report_id", reportID).Error("decision failed")
			h.sendMessage(chatID, "❌ Failed to process the decision, try again.")
		}
		return
	}

	if res.Approved {
		h.sendMessage(chatID, fmt.Sprintf(
			"✅ Report #%d approved, %d %s refunded.",
			res.ReportID, res.Refund, common.PluralizePoints(res.Refund)))
		h.notifyUser(res.UserID, fmt.Sprintf(
			"✅ Your report was approved! %d %s refunded to your balance.",
			res.Refund, common.PluralizePoints(res.Refund)))
	} else {
		h.sendMessage(chatID, fmt.Sprintf("❌ Report #%d rejected.", res.ReportID))
		h.notifyUser(res.UserID, "❌ Your account report was reviewed and rejected.")
	}
}

func (h *Handler) notifyUser(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("user notification failed")
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
	}
}
