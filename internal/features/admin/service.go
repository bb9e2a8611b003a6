// Package admin: service.go holds authentication, the dialog state
// machine and the admin-only operations (broadcast, stats). The identity
// gate is the configured ADMIN_IDS list; the password session on top of
// it protects against a hijacked Telegram account.
package admin

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"github.com/terajutt/INSTA-UNC/internal/common"
	"github.com/terajutt/INSTA-UNC/internal/config"
	"github.com/terajutt/INSTA-UNC/internal/features/inventory"
	"github.com/terajutt/INSTA-UNC/internal/features/redemption"
	"github.com/terajutt/INSTA-UNC/internal/features/reports"
	"github.com/terajutt/INSTA-UNC/internal/features/users"
)

const (
	sessionTTL     = 24 * time.Hour
	dialogTTL      = 5 * time.Minute
	maxLoginTries  = 3
	loginTryWindow = 1 * time.Hour
)

type Service struct {
	repo        *Repository
	users       *users.Service
	inventory   *inventory.Service
	redemptions *redemption.Service
	reports     *reports.Service
	cfg         *config.Config

	// Dialog states are in-memory: losing them on restart just means the
	// admin presses the button again.
	dialogs   map[int64]dialog
	dialogsMu sync.RWMutex
}

func NewService(
	repo *Repository,
	usersSvc *users.Service,
	inventorySvc *inventory.Service,
	redemptionSvc *redemption.Service,
	reportsSvc *reports.Service,
	cfg *config.Config,
) *Service {
	return &Service{
		repo:        repo,
		users:       usersSvc,
		inventory:   inventorySvc,
		redemptions: redemptionSvc,
		reports:     reportsSvc,
		cfg:         cfg,
		dialogs:     make(map[int64]dialog),
	}
}

// RequireAdministrator is the authorization predicate every admin
// operation is gated on: configured identity plus a live password
// session. Strangers get common.ErrNotAdmin; a known admin without a
// live session gets common.ErrSessionExpired, so the transport can tell
// them to /login again instead of staying silent.
func (s *Service) RequireAdministrator(ctx context.Context, userID int64) error {
	if !s.cfg.IsAdmin(userID) {
		return common.ErrNotAdmin
	}
	session, err := s.repo.GetActiveSession(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("session lookup failed")
		return err
	}
	if session == nil {
		return common.ErrSessionExpired
	}
	if err := s.repo.TouchSession(ctx, userID); err != nil {
		log.WithError(err).Debug("session touch failed")
	}
	return nil
}

// IsAdministrator is the boolean form of RequireAdministrator.
func (s *Service) IsAdministrator(ctx context.Context, userID int64) bool {
	return s.RequireAdministrator(ctx, userID) == nil
}

// Login verifies the admin password and opens a 24h session.
// Three failed tries within an hour lock the user out for the hour.
func (s *Service) Login(ctx context.Context, userID int64, password string) error {
	if !s.cfg.IsAdmin(userID) {
		return common.ErrNotAdmin
	}

	failed, err := s.repo.FailedAttempts(ctx, userID, loginTryWindow)
	if err != nil {
		return err
	}
	if failed >= maxLoginTries {
		return common.ErrTooManyAttempts
	}

	match := verifyArgon2id(password, s.cfg.AdminPasswordHash)
	if err := s.repo.LogAttempt(ctx, userID, match); err != nil {
		log.WithError(err).Warn("failed to log login attempt")
	}
	if !match {
		return common.ErrWrongPassword
	}

	session := &Session{
		UserID:       userID,
		SessionToken: generateSecureToken(),
		ExpiresAt:    time.Now().Add(sessionTTL),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return err
	}

	log.WithField("user_id", userID).Info("Admin logged in")
	return nil
}

// Logout closes every session of the admin.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	s.ClearState(userID)
	return s.repo.DeactivateSessions(ctx, userID)
}

// --- Dialog state machine ---

// State returns the admin's current dialog state; expired dialogs read as
// idle.
func (s *Service) State(userID int64) DialogState {
	s.dialogsMu.RLock()
	defer s.dialogsMu.RUnlock()

	d, ok := s.dialogs[userID]
	if !ok || time.Now().After(d.ExpiresAt) {
		return StateIdle
	}
	return d.State
}

// SetState moves the admin into a dialog step with a 5-minute expiry.
func (s *Service) SetState(userID int64, state DialogState) {
	s.dialogsMu.Lock()
	defer s.dialogsMu.Unlock()
	s.dialogs[userID] = dialog{State: state, ExpiresAt: time.Now().Add(dialogTTL)}
}

// ClearState resets the dialog to idle.
func (s *Service) ClearState(userID int64) {
	s.dialogsMu.Lock()
	defer s.dialogsMu.Unlock()
	delete(s.dialogs, userID)
}

// --- Admin operations ---

// AddAccounts parses pasted credentials and stocks the pool; partial
// success comes back per entry.
func (s *Service) AddAccounts(ctx context.Context, text string) (*inventory.BulkAddResult, error) {
	return s.inventory.BulkAdd(ctx, text)
}

// Broadcast sends text to every registered user through send. Each
// delivery is independent: a blocked bot or a deleted account counts as
// one failure and the loop moves on.
func (s *Service) Broadcast(ctx context.Context, text string, send func(userID int64, text string) error) (*BroadcastResult, error) {
	ids, err := s.users.AllIDs(ctx)
	if err != nil {
		return nil, err
	}

	run := uuid.NewString()
	res := fanOut(run, ids, text, send)

	log.WithFields(log.Fields{
		"broadcast": run,
		"sent":      res.Sent,
		"failed":    res.Failed,
	}).Info("Broadcast completed")
	return res, nil
}

// fanOut delivers text to every recipient independently.
func fanOut(run string, ids []int64, text string, send func(userID int64, text string) error) *BroadcastResult {
	res := &BroadcastResult{}
	for _, id := range ids {
		if err := send(id, text); err != nil {
			res.Failed++
			log.WithError(err).WithFields(log.Fields{
				"broadcast": run,
				"user_id":   id,
			}).Debug("broadcast delivery failed")
			continue
		}
		res.Sent++
	}
	return res
}

// GetStats collects the dashboard counters.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	userCount, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	stock, err := s.inventory.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count stock: %w", err)
	}
	byTier, err := s.inventory.CountByTier(ctx)
	if err != nil {
		return nil, fmt.Errorf("count stock by tier: %w", err)
	}
	redemptions, err := s.redemptions.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count redemptions: %w", err)
	}
	pending, err := s.reports.CountPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("count pending reports: %w", err)
	}

	tiers := make(map[string]int, len(byTier))
	for t, n := range byTier {
		tiers[string(t)] = n
	}
	return &Stats{
		Users:          userCount,
		Stock:          stock,
		StockByTier:    tiers,
		Redemptions:    redemptions,
		PendingReports: pending,
	}, nil
}

// --- Crypto helpers ---

// verifyArgon2id checks a password against an encoded Argon2id hash of
// the form $argon2id$v=19$m=65536,t=3,p=2$<salt_b64>$<hash_b64>.
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		log.Error("Malformed Argon2id hash in config")
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		log.WithError(err).Error("Failed to parse Argon2id parameters")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Failed to decode Argon2id salt")
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Failed to decode Argon2id hash")
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expected)))

	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// generateSecureToken produces a session token from crypto/rand.
func generateSecureToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return base64.URLEncoding.EncodeToString(b)
}
