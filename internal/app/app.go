// Package app wires the application together: database pool, migrations,
// Telegram API, repositories, services, handlers, scheduler and the HTTP
// status server.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/terajutt/INSTA-UNC/internal/bot"
	"github.com/terajutt/INSTA-UNC/internal/config"
	"github.com/terajutt/INSTA-UNC/internal/db/postgres"
	"github.com/terajutt/INSTA-UNC/internal/features/admin"
	"github.com/terajutt/INSTA-UNC/internal/features/inventory"
	"github.com/terajutt/INSTA-UNC/internal/features/ledger"
	"github.com/terajutt/INSTA-UNC/internal/features/redemption"
	"github.com/terajutt/INSTA-UNC/internal/features/reports"
	"github.com/terajutt/INSTA-UNC/internal/features/users"
	"github.com/terajutt/INSTA-UNC/internal/jobs"
	"github.com/terajutt/INSTA-UNC/internal/web"
)

// App holds every long-lived component.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	Web       *web.Server
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// New builds the application. Initialization order matters: database
// first, then the Telegram API, then everything that depends on both.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Database ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}

	if err := postgres.Migrate(ctx, pool); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Authorized as @%s", botAPI.Self.UserName)

	// === 3. Repositories ===
	userRepo := users.NewRepository(pool)
	ledgerRepo := ledger.NewRepository(pool)
	inventoryRepo := inventory.NewRepository(pool)
	redemptionRepo := redemption.NewRepository(pool)
	reportRepo := reports.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 4. Services ===
	userService := users.NewService(userRepo, cfg)
	ledgerService := ledger.NewService(ledgerRepo, cfg)
	inventoryService := inventory.NewService(inventoryRepo)
	redemptionService := redemption.NewService(redemptionRepo, cfg)
	reportService := reports.NewService(reportRepo, userService, redemptionService, cfg)
	adminService := admin.NewService(adminRepo, userService, inventoryService, redemptionService, reportService, cfg)

	// === 5. Handlers ===
	userHandler := users.NewHandler(userService, botAPI, cfg)
	ledgerHandler := ledger.NewHandler(ledgerService, botAPI)
	redemptionHandler := redemption.NewHandler(redemptionService, botAPI)
	reportHandler := reports.NewHandler(reportService, botAPI, cfg)
	adminHandler := admin.NewHandler(adminService, reportService, botAPI)

	// === 6. Bot ===
	b := bot.New(
		botAPI, cfg,
		userHandler, ledgerHandler, redemptionHandler, reportHandler, adminHandler,
	)

	// === 7. Background jobs + HTTP status server ===
	scheduler := jobs.NewScheduler(inventoryService, adminService, cfg, b.SendMessageToUser)
	webServer := web.New(cfg.HTTPAddr)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		Web:       webServer,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}
