// Package users: service.go is the registration and referral business
// logic. A referral only counts when the new account was actually created
// (repeat /start with somebody's link must not farm points).
package users

import (
	"context"
	"errors"
	"fmt"

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

// Register creates the account on first contact. Returns created=false
// for an already known user (idempotent, not an error). When the account
// is new and carries a valid referrer, the referrer is credited inside
// one transaction.
func (s *Service) Register(ctx context.Context, userID int64, username string, refBy *int64) (bool, error) {
	refBy = normalizeReferrer(userID, refBy)

	created, err := s.repo.Create(ctx, userID, username, refBy)
	if err != nil {
		return false, err
	}
	if !created {
		// Returning user: keep the display name fresh, nothing else.
		if username != "" {
			if err := s.repo.UpdateUsername(ctx, userID, username); err != nil {
				log.WithError(err).WithField("user_id", userID).Warn("username refresh failed")
			}
		}
		return false, nil
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"username": username,
	}).Info("New user registered")

	if refBy != nil {
		if err := s.repo.AttributeReferral(ctx, *refBy, s.cfg.ReferralReward, s.cfg.VIPThreshold); err != nil {
			// The new account exists either way; an unresolvable referrer
			// must not fail registration.
			if errors.Is(err, common.ErrUserNotFound) {
				log.WithField("ref_by", *refBy).Debug("referrer not found, skipping attribution")
				return true, nil
			}
			return true, fmt.Errorf("attribute referral: %w", err)
		}
		log.WithFields(log.Fields{
			"user_id": userID,
			"ref_by":  *refBy,
		}).Info("Referral attributed")
	}

	return true, nil
}

// normalizeReferrer drops self-referrals and nil-safe copies the pointer.
func normalizeReferrer(userID int64, refBy *int64) *int64 {
	if refBy == nil || *refBy == userID {
		return nil
	}
	v := *refBy
	return &v
}

// Get returns the account, or common.ErrUserNotFound.
func (s *Service) Get(ctx context.Context, userID int64) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *Service) Exists(ctx context.Context, userID int64) (bool, error) {
	return s.repo.Exists(ctx, userID)
}

// TopReferrers returns the leaderboard.
func (s *Service) TopReferrers(ctx context.Context, limit int) ([]Referrer, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.repo.TopReferrers(ctx, limit)
}

// AllIDs lists every user for broadcast fan-out.
func (s *Service) AllIDs(ctx context.Context) ([]int64, error) {
	return s.repo.AllIDs(ctx)
}

// Count returns the registered user total for the admin dashboard.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
