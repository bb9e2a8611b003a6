package reports

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terajutt/INSTA-UNC/internal/common"
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

func createUser(t *testing.T, pool *pgxpool.Pool, userID int64, points int, vip bool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO users (user_id, username, points, vip)
		VALUES ($1, $2, $3, $4)
	`, userID, "tester", points, vip)
	require.NoError(t, err)
}

func createRedemption(t *testing.T, pool *pgxpool.Pool, userID int64, account string, cost int) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO redemptions (user_id, account, cost)
		VALUES ($1, $2, $3) RETURNING id
	`, userID, account, cost).Scan(&id)
	require.NoError(t, err)
	return id
}

func userPoints(t *testing.T, pool *pgxpool.Pool, userID int64) int {
	t.Helper()
	var points int
	err := pool.QueryRow(context.Background(),
		`SELECT points FROM users WHERE user_id = $1`, userID).Scan(&points)
	require.NoError(t, err)
	return points
}

func TestApproveRefundsPaidCost(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	createUser(t, pool, 100, 0, false)
	redID := createRedemption(t, pool, 100, "insta_user:secret", 10)

	repID, err := repo.Create(ctx, 100, &redID, "insta_user:secret", ReasonPasswordChanged)
	require.NoError(t, err)

	// The recorded cost wins over the fallback price table.
	userID, refund, err := repo.Approve(ctx, repID, 15, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(100), userID)
	assert.Equal(t, 10, refund)
	assert.Equal(t, 10, userPoints(t, pool, 100))
}

func TestApproveFallbackUsesVIPRate(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	createUser(t, pool, 100, 0, true)

	repID, err := repo.Create(ctx, 100, nil, "insta_user:secret", ReasonAccountLocked)
	require.NoError(t, err)

	_, refund, err := repo.Approve(ctx, repID, 15, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, refund, "without a linked redemption a VIP reporter gets the VIP rate")
	assert.Equal(t, 10, userPoints(t, pool, 100))
}

func TestDecideExactlyOnce(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	createUser(t, pool, 100, 0, false)
	redID := createRedemption(t, pool, 100, "insta_user:secret", 10)

	repID, err := repo.Create(ctx, 100, &redID, "insta_user:secret", ReasonOther)
	require.NoError(t, err)

	_, refund, err := repo.Approve(ctx, repID, 15, 12)
	require.NoError(t, err)
	require.Equal(t, 10, refund)

	// A second decision of either kind loses to the first.
	_, err = repo.Reject(ctx, repID)
	require.ErrorIs(t, err, common.ErrAlreadyDecided)
	_, _, err = repo.Approve(ctx, repID, 15, 12)
	require.ErrorIs(t, err, common.ErrAlreadyDecided)

	assert.Equal(t, 10, userPoints(t, pool, 100), "the refund lands exactly once")
}

func TestApproveConcurrentSingleRefund(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	createUser(t, pool, 100, 0, false)
	redID := createRedemption(t, pool, 100, "insta_user:secret", 10)

	repID, err := repo.Create(ctx, 100, &redID, "insta_user:secret", ReasonOther)
	require.NoError(t, err)

	const workers = 4
	var wg sync.WaitGroup
	var mu sync.Mutex
	var wins, losses int
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := repo.Approve(ctx, repID, 15, 12)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, common.ErrAlreadyDecided):
				losses++
			default:
				t.Errorf("unexpected approve error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one admin click may decide the report")
	assert.Equal(t, workers-1, losses)
	assert.Equal(t, 10, userPoints(t, pool, 100))
}

func TestDecideUnknownReport(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	_, _, err := repo.Approve(ctx, 999, 15, 12)
	require.ErrorIs(t, err, common.ErrReportNotFound)
	_, err = repo.Reject(ctx, 999)
	require.ErrorIs(t, err, common.ErrReportNotFound)
}

func TestRejectKeepsBalance(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	createUser(t, pool, 100, 7, false)

	repID, err := repo.Create(ctx, 100, nil, "insta_user:secret", ReasonTwoFactorEnabled)
	require.NoError(t, err)

	userID, err := repo.Reject(ctx, repID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), userID)
	assert.Equal(t, 7, userPoints(t, pool, 100))

	pending, err := repo.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
