// Package bot runs the long-polling loop and routes updates to the
// feature handlers. Every update is handled in its own goroutine behind
// a bounded in-flight semaphore.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/terajutt/INSTA-UNC/internal/bot/middleware"
	"github.com/terajutt/INSTA-UNC/internal/config"
	"github.com/terajutt/INSTA-UNC/internal/features/admin"
	"github.com/terajutt/INSTA-UNC/internal/features/ledger"
	"github.com/terajutt/INSTA-UNC/internal/features/redemption"
	"github.com/terajutt/INSTA-UNC/internal/features/reports"
	"github.com/terajutt/INSTA-UNC/internal/features/users"
)

// Bot ties the transport pieces together.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	rateLimiter *middleware.RateLimiter

	userHandler       *users.Handler
	ledgerHandler     *ledger.Handler
	redemptionHandler *redemption.Handler
	reportHandler     *reports.Handler
	adminHandler      *admin.Handler

	// bounds parallel update handling
	inflight chan struct{}
}

func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	userHandler *users.Handler,
	ledgerHandler *ledger.Handler,
	redemptionHandler *redemption.Handler,
	reportHandler *reports.Handler,
	adminHandler *admin.Handler,
) *Bot {
	maxInflight := cfg.BotMaxInflight
	if maxInflight <= 0 {
		maxInflight = 64
	}

	return &Bot{
		api:               api,
		cfg:               cfg,
		rateLimiter:       middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		userHandler:       userHandler,
		ledgerHandler:     ledgerHandler,
		redemptionHandler: redemptionHandler,
		reportHandler:     reportHandler,
		adminHandler:      adminHandler,
		inflight:          make(chan struct{}, maxInflight),
	}
}

// Start polls Telegram until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Bot started, waiting for updates...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Bot stopping (ctx done)...")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Updates channel closed, bot stopped")
				b.rateLimiter.Close()
				return
			}

			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate processes one update: either a message or a button press.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.Text == "" {
		return
	}
	message := update.Message

	middleware.LogMessage(message)

	// The bot only works in direct messages.
	if !message.Chat.IsPrivate() || message.From == nil {
		return
	}

	userID := message.From.ID
	chatID := message.Chat.ID

	if !b.rateLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limited")
		return
	}

	// Admin dialogs (bulk add, broadcast) eat the next plain message.
	if b.adminHandler.HandleMessage(ctx, chatID, userID, message.Text) {
		return
	}

	cmd, args, isCommand := parseCommand(message.Text)
	if !isCommand {
		return
	}
	b.routeCommand(ctx, chatID, userID, message.From.UserName, cmd, args)
}

// routeCommand dispatches a slash command.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, username, cmd string, args []string) {
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")

	switch cmd {
	case "start":
		b.userHandler.HandleStart(ctx, chatID, userID, username, args)

	case "help":
		b.sendMessage(chatID,
			"Commands:\n/start — register and show the menu\n/dashboard — your points and referrals\n"+
				"/help — this message\n\nAdmins: /login <password>, /admin, /logout")

	case "dashboard":
		b.userHandler.HandleDashboard(ctx, chatID, userID)

	case "login":
		b.adminHandler.HandleLogin(ctx, chatID, userID, args)

	case "logout":
		b.adminHandler.HandleLogout(ctx, chatID, userID)

	case "admin":
		b.adminHandler.HandleAdminCommand(ctx, chatID, userID)
	}
}

// handleCallback dispatches an inline button press.
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	middleware.LogCallback(cb)

	if cb.From == nil || cb.Message == nil {
		return
	}
	userID := cb.From.ID
	chatID := cb.Message.Chat.ID
	data := cb.Data

	if !b.rateLimiter.Allow(userID) {
		b.answerCallback(cb.ID, "Slow down a little.")
		return
	}

	// Acknowledge first so the button stops spinning.
	b.answerCallback(cb.ID, "")

	if b.adminHandler.HandleCallback(ctx, chatID, userID, data) {
		return
	}

	switch {
	case data == "dashboard":
		b.userHandler.HandleDashboard(ctx, chatID, userID)

	case data == "daily":
		b.ledgerHandler.HandleDailyClaim(ctx, chatID, userID)

	case data == "redeem":
		b.redemptionHandler.HandleRedeem(ctx, chatID, userID)

	case data == "history":
		b.redemptionHandler.HandleHistory(ctx, chatID, userID)

	case data == "leaderboard":
		b.userHandler.HandleLeaderboard(ctx, chatID)

	case strings.HasPrefix(data, "report:"):
		b.reportHandler.HandleReportButton(ctx, chatID, data)

	case strings.HasPrefix(data, "reason:"):
		b.reportHandler.HandleReasonChosen(ctx, chatID, userID, cb.From.UserName, data)
	}
}

func (b *Bot) answerCallback(callbackID, text string) {
	cb := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(cb); err != nil {
		log.WithError(err).Debug("failed to answer callback")
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
	}
}

// SendMessageToUser delivers a message to a user's DM (used by cron jobs).
func (b *Bot) SendMessageToUser(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("delivery failed")
	}
}

// parseCommand splits "/cmd arg arg" into its parts. Only "/" commands
// count; anything else is plain text.
func parseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}

	parts := strings.Fields(strings.TrimPrefix(text, "/"))
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	// "/start@BotName" arrives from share links
	if i := strings.Index(command, "@"); i >= 0 {
		command = command[:i]
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	return command, args, true
}
