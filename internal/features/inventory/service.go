// Package inventory: service.go exposes the pool operations and the
// bulk-add flow: parse, insert item by item, report partial success.
package inventory

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/terajutt/INSTA-UNC/internal/common"
)

// rejectEchoLimit caps how much of a rejected entry we echo back.
const rejectEchoLimit = 50

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Allocate hands out one item with tier preference and fallback. Nil item
// means the pool is empty.
func (s *Service) Allocate(ctx context.Context, tier Tier) (*Item, error) {
	if !tier.Valid() {
		tier = TierStandard
	}
	return s.repo.Allocate(ctx, tier)
}

// BulkAdd parses raw admin input and inserts every valid entry. Each
// insert succeeds or fails on its own; one bad row never aborts the
// batch. Rejected entries come back truncated for display.
func (s *Service) BulkAdd(ctx context.Context, text string) (*BulkAddResult, error) {
	batch := uuid.NewString()
	items, rejected := ParseBulkInput(text)

	res := &BulkAddResult{}
	for _, rej := range rejected {
		res.Rejected = append(res.Rejected, common.Truncate(rej, rejectEchoLimit))
	}

	for _, it := range items {
		if err := s.repo.Add(ctx, it.Payload, it.Tier); err != nil {
			log.WithError(err).WithField("batch", batch).Warn("bulk-add insert failed")
			res.Rejected = append(res.Rejected, common.Truncate(it.Payload, rejectEchoLimit))
			continue
		}
		res.Added++
	}

	log.WithFields(log.Fields{
		"batch":    batch,
		"added":    res.Added,
		"rejected": len(res.Rejected),
	}).Info("Bulk add processed")
	return res, nil
}

// Count returns remaining pool size.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// CountByTier returns remaining stock per tier for the admin dashboard.
func (s *Service) CountByTier(ctx context.Context) (map[Tier]int, error) {
	return s.repo.CountByTier(ctx)
}
