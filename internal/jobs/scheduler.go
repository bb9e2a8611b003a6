// Package jobs runs the background tasks: the hourly low-stock check and
// a nightly stats log line.
package jobs

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/terajutt/INSTA-UNC/internal/config"
	"github.com/terajutt/INSTA-UNC/internal/features/admin"
	"github.com/terajutt/INSTA-UNC/internal/features/inventory"
)

// Scheduler owns the cron runner.
type Scheduler struct {
	cron      *cron.Cron
	inventory *inventory.Service
	admin     *admin.Service
	cfg       *config.Config
	sendFunc  func(userID int64, text string)
}

func NewScheduler(inventorySvc *inventory.Service, adminSvc *admin.Service, cfg *config.Config, sendFunc func(userID int64, text string)) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		inventory: inventorySvc,
		admin:     adminSvc,
		cfg:       cfg,
		sendFunc:  sendFunc,
	}
}

// Start registers and launches all background jobs.
func (s *Scheduler) Start(ctx context.Context) {
	// Hourly stock check: ping the admins when the pool runs dry.
	s.cron.AddFunc("0 * * * *", func() {
		count, err := s.inventory.Count(ctx)
		if err != nil {
			log.WithError(err).Error("[CRON] stock check failed")
			return
		}
		if count >= s.cfg.StockAlertFloor {
			return
		}
		log.WithField("stock", count).Warn("[CRON] stock low")
		text := fmt.Sprintf("⚠️ Low stock: %d accounts left in the pool. Time to restock.", count)
		for _, adminID := range s.cfg.AdminIDs {
			s.sendFunc(adminID, text)
		}
	})

	// Nightly stats snapshot in the logs.
	s.cron.AddFunc("0 0 * * *", func() {
		stats, err := s.admin.GetStats(ctx)
		if err != nil {
			log.WithError(err).Error("[CRON] stats snapshot failed")
			return
		}
		log.WithFields(log.Fields{
			"users":           stats.Users,
			"stock":           stats.Stock,
			"redemptions":     stats.Redemptions,
			"pending_reports": stats.PendingReports,
		}).Info("[CRON] daily stats")
	})

	s.cron.Start()
	log.Info("Scheduler started")
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Scheduler stopped")
}
