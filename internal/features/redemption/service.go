// Package redemption: service.go applies the price table and logs the
// outcome; the atomicity lives in the repository transaction.
package redemption

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/terajutt/INSTA-UNC/internal/config"
)

type Service struct {
	repo *Repository
	cfg  *config.Config
}

func NewService(repo *Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// Redeem exchanges points for one item. Failure modes, in check order:
// common.ErrUserNotFound, common.ErrInsufficientPoints (no mutation),
// common.ErrOutOfStock (no debit).
func (s *Service) Redeem(ctx context.Context, userID int64) (*Result, error) {
	res, err := s.repo.Redeem(ctx, userID, s.cfg.RedeemCost, s.cfg.RedeemCostVIP)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"cost":    res.Cost,
		"balance": res.Balance,
	}).Info("Account redeemed")
	return res, nil
}

// History returns the user's redemption log, most recent first.
func (s *Service) History(ctx context.Context, userID int64) ([]Record, error) {
	return s.repo.History(ctx, userID)
}

// FindLatestByPayload pins a disputed payload to its redemption record.
func (s *Service) FindLatestByPayload(ctx context.Context, userID int64, payload string) (*Record, error) {
	return s.repo.FindLatestByPayload(ctx, userID, payload)
}

// GetByID returns one record, or nil when absent.
func (s *Service) GetByID(ctx context.Context, id int64) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

// Latest returns the user's most recent record, or nil.
func (s *Service) Latest(ctx context.Context, userID int64) (*Record, error) {
	return s.repo.Latest(ctx, userID)
}

// Count returns the all-time redemption total.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
