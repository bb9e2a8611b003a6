// Package reports: service.go files disputes and drives admin decisions.
package reports

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/terajutt/INSTA-UNC/internal/common"
	"github.com/terajutt/INSTA-UNC/internal/config"
	"github.com/terajutt/INSTA-UNC/internal/features/redemption"
	"github.com/terajutt/INSTA-UNC/internal/features/users"
)

// Decision is an admin verdict on a pending report.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// DecisionResult tells the transport layer who to notify and about what.
type DecisionResult struct {
	ReportID int64
	UserID   int64
	Approved bool
	Refund   int // points credited, zero on reject
}

type Service struct {
	repo        *Repository
	users       *users.Service
	redemptions *redemption.Service
	cfg         *config.Config
}

func NewService(repo *Repository, usersSvc *users.Service, redemptionSvc *redemption.Service, cfg *config.Config) *Service {
	return &Service{repo: repo, users: usersSvc, redemptions: redemptionSvc, cfg: cfg}
}

// File creates a pending report for a disputed payload. The payload is
// pinned to the reporter's most recent matching redemption when one
// exists; unknown reason codes collapse to "other".
func (s *Service) File(ctx context.Context, userID int64, payload, reasonCode string) (int64, error) {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, common.ErrUserNotFound
	}

	var redemptionID *int64
	rec, err := s.redemptions.FindLatestByPayload(ctx, userID, payload)
	if err != nil {
		return 0, err
	}
	if rec != nil {
		redemptionID = &rec.ID
		// Use the snapshotted payload: the caller may pass a truncated
		// or masked rendering of it.
		payload = rec.Account
	}

	reason := NormalizeReason(reasonCode)
	id, err := s.repo.Create(ctx, userID, redemptionID, payload, reason)
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"report_id": id,
		"user_id":   userID,
		"reason":    reason,
	}).Info("Report filed")
	return id, nil
}

// FileForRedemption files a report pinned to a redemption ID (the report
// button carries it). A stale or foreign ID falls back to the reporter's
// most recent redemption; with no redemptions at all the dispute has
// nothing to stand on and fails with ErrReportNotFound.
func (s *Service) FileForRedemption(ctx context.Context, userID, redemptionID int64, reasonCode string) (int64, error) {
	rec, err := s.redemptions.GetByID(ctx, redemptionID)
	if err != nil {
		return 0, err
	}
	if rec == nil || rec.UserID != userID {
		rec, err = s.redemptions.Latest(ctx, userID)
		if err != nil {
			return 0, err
		}
	}
	if rec == nil {
		return 0, common.ErrReportNotFound
	}

	reason := NormalizeReason(reasonCode)
	id, err := s.repo.Create(ctx, userID, &rec.ID, rec.Account, reason)
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"report_id":     id,
		"user_id":       userID,
		"redemption_id": rec.ID,
		"reason":        reason,
	}).Info("Report filed")
	return id, nil
}

// Decide settles a pending report. Approve refunds the amount the
// reporter actually paid (price-table fallback when the redemption could
// not be pinned at filing time); reject changes no balance. A second
// decision on the same report fails with common.ErrAlreadyDecided.
func (s *Service) Decide(ctx context.Context, reportID int64, decision Decision) (*DecisionResult, error) {
	switch decision {
	case DecisionApprove:
		userID, refund, err := s.repo.Approve(ctx, reportID, s.cfg.RedeemCost, s.cfg.RedeemCostVIP)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{
			"report_id": reportID,
			"user_id":   userID,
			"refund":    refund,
		}).Info("Report approved")
		return &DecisionResult{ReportID: reportID, UserID: userID, Approved: true, Refund: refund}, nil

	case DecisionReject:
		userID, err := s.repo.Reject(ctx, reportID)
		if err != nil {
			return nil, err
		}
		log.WithFields(log.Fields{
			"report_id": reportID,
			"user_id":   userID,
		}).Info("Report rejected")
		return &DecisionResult{ReportID: reportID, UserID: userID, Approved: false}, nil
	}
	return nil, fmt.Errorf("unknown decision %q", decision)
}

// Pending lists undecided reports for the admin panel.
func (s *Service) Pending(ctx context.Context) ([]Report, error) {
	return s.repo.Pending(ctx)
}

// CountPending returns the pending total.
func (s *Service) CountPending(ctx context.Context) (int, error) {
	return s.repo.CountPending(ctx)
}
