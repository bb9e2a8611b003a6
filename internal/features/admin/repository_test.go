package admin

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terajutt/INSTA-UNC/internal/common"
	"github.com/terajutt/INSTA-UNC/internal/config"
	"github.com/terajutt/INSTA-UNC/internal/db/postgres"
)

// testPool connects to the database named by TEST_DATABASE_URL, applies
// the schema and wipes all tables. Point it at a dedicated test
// database, never a live one.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE reports, redemptions, accounts,
		admin_login_attempts, admin_sessions, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}

func newDBService(pool *pgxpool.Pool) *Service {
	cfg := &config.Config{
		AdminIDs:          []int64{1},
		AdminPasswordHash: encodeArgon2id("swordfish", []byte("0123456789abcdef")),
	}
	return NewService(NewRepository(pool), nil, nil, nil, nil, cfg)
}

func TestLoginOpensSession(t *testing.T) {
	pool := testPool(t)
	svc := newDBService(pool)
	ctx := context.Background()
	const adminID = int64(1)

	// Known admin, but no password session yet.
	require.ErrorIs(t, svc.RequireAdministrator(ctx, adminID), common.ErrSessionExpired)
	// Strangers never learn the panel exists.
	require.ErrorIs(t, svc.RequireAdministrator(ctx, 2), common.ErrNotAdmin)

	require.ErrorIs(t, svc.Login(ctx, adminID, "wrong"), common.ErrWrongPassword)
	require.ErrorIs(t, svc.RequireAdministrator(ctx, adminID), common.ErrSessionExpired)

	require.NoError(t, svc.Login(ctx, adminID, "swordfish"))
	assert.NoError(t, svc.RequireAdministrator(ctx, adminID))
	assert.True(t, svc.IsAdministrator(ctx, adminID))
}

func TestSessionExpiry(t *testing.T) {
	pool := testPool(t)
	svc := newDBService(pool)
	ctx := context.Background()
	const adminID = int64(1)

	require.NoError(t, svc.Login(ctx, adminID, "swordfish"))
	require.NoError(t, svc.RequireAdministrator(ctx, adminID))

	_, err := pool.Exec(ctx,
		`UPDATE admin_sessions SET expires_at = NOW() - INTERVAL '1 minute' WHERE user_id = $1`, adminID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.RequireAdministrator(ctx, adminID), common.ErrSessionExpired)
}

func TestLogoutClosesSessions(t *testing.T) {
	pool := testPool(t)
	svc := newDBService(pool)
	ctx := context.Background()
	const adminID = int64(1)

	require.NoError(t, svc.Login(ctx, adminID, "swordfish"))
	require.NoError(t, svc.Logout(ctx, adminID))

	assert.ErrorIs(t, svc.RequireAdministrator(ctx, adminID), common.ErrSessionExpired)
}

func TestLoginThrottle(t *testing.T) {
	pool := testPool(t)
	svc := newDBService(pool)
	ctx := context.Background()
	const adminID = int64(1)

	for i := 0; i < maxLoginTries; i++ {
		require.ErrorIs(t, svc.Login(ctx, adminID, "wrong"), common.ErrWrongPassword)
	}

	// The lockout holds even with the correct password.
	assert.ErrorIs(t, svc.Login(ctx, adminID, "swordfish"), common.ErrTooManyAttempts)
	assert.ErrorIs(t, svc.RequireAdministrator(ctx, adminID), common.ErrSessionExpired)
}
