// Package ledger: service.go wires the balance rules to the repository.
package ledger

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/terajutt/INSTA-UNC/internal/common"
	"github.com/terajutt/INSTA-UNC/internal/config"
)

type Service struct {
	repo *Repository
	cfg  *config.Config
}

func NewService(repo *Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// Points returns the current balance.
func (s *Service) Points(ctx context.Context, userID int64) (int, error) {
	return s.repo.Points(ctx, userID)
}

// AdjustPoints applies a credit or debit. On failure no mutation occurred.
func (s *Service) AdjustPoints(ctx context.Context, userID int64, delta int) (int, error) {
	if delta == 0 {
		return s.repo.Points(ctx, userID)
	}
	return s.repo.AdjustPoints(ctx, userID, delta)
}

// PromoteIfEligible flips the VIP flag at the configured referral
// threshold. Safe to call repeatedly.
func (s *Service) PromoteIfEligible(ctx context.Context, userID int64) error {
	return s.repo.PromoteIfEligible(ctx, userID, s.cfg.VIPThreshold)
}

// CanClaimDaily reports whether the 24h cooldown has elapsed.
func (s *Service) CanClaimDaily(ctx context.Context, userID int64) (bool, error) {
	last, err := s.repo.LastDaily(ctx, userID)
	if err != nil {
		return false, err
	}
	return CanClaimAt(last, time.Now().UTC()), nil
}

// NextClaimIn returns the remaining cooldown, zero when available.
func (s *Service) NextClaimIn(ctx context.Context, userID int64) (time.Duration, error) {
	last, err := s.repo.LastDaily(ctx, userID)
	if err != nil {
		return 0, err
	}
	return NextClaimIn(last, time.Now().UTC()), nil
}

// ClaimDaily credits the daily reward once per 24 hours. Returns
// common.ErrDailyNotReady inside the cooldown and common.ErrUserNotFound
// for unknown accounts.
func (s *Service) ClaimDaily(ctx context.Context, userID int64) (*ClaimResult, error) {
	res, err := s.repo.ClaimDaily(ctx, userID, s.cfg.DailyReward, s.cfg.DailyRewardVIP)
	if err != nil {
		if errors.Is(err, common.ErrDailyNotReady) {
			// The guarded UPDATE matched no row: unknown user and "too
			// early" look identical, so tell them apart here.
			if _, lerr := s.repo.LastDaily(ctx, userID); lerr != nil {
				return nil, lerr
			}
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"awarded": res.Awarded,
		"balance": res.Balance,
	}).Info("Daily reward claimed")
	return res, nil
}
