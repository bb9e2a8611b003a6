package ledger

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

func TestClaimDailyCreditsOnce(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	createUser(t, pool, 100, 0, false)

	res, err := repo.ClaimDaily(ctx, 100, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Awarded)
	assert.Equal(t, 2, res.Balance)

	// The second claim inside the cooldown must not touch the balance.
	_, err = repo.ClaimDaily(ctx, 100, 2, 4)
	require.ErrorIs(t, err, common.ErrDailyNotReady)

	points, err := repo.Points(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, points)
}

func TestClaimDailyConcurrent(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	createUser(t, pool, 100, 0, false)

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	var successes, cooldowns int
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ClaimDaily(ctx, 100, 2, 4)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, common.ErrDailyNotReady):
				cooldowns++
			default:
				t.Errorf("unexpected claim error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one concurrent claim may win")
	assert.Equal(t, workers-1, cooldowns)

	points, err := repo.Points(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, points, "the reward must be credited exactly once")
}

func TestClaimDailyVIPRate(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	createUser(t, pool, 100, 0, true)

	res, err := repo.ClaimDaily(ctx, 100, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Awarded)
	assert.Equal(t, 4, res.Balance)
}

func TestClaimDailyAfterCooldown(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	createUser(t, pool, 100, 0, false)

	_, err := repo.ClaimDaily(ctx, 100, 2, 4)
	require.NoError(t, err)

	_, err = pool.Exec(ctx,
		`UPDATE users SET last_daily = NOW() - INTERVAL '25 hours' WHERE user_id = $1`, int64(100))
	require.NoError(t, err)

	res, err := repo.ClaimDaily(ctx, 100, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Balance)
}

func TestAdjustPointsOverdraw(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	createUser(t, pool, 100, 5, false)

	_, err := repo.AdjustPoints(ctx, 100, -10)
	require.ErrorIs(t, err, common.ErrInsufficientPoints)

	points, err := repo.Points(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 5, points, "a rejected debit must leave the balance untouched")

	balance, err := repo.AdjustPoints(ctx, 100, -5)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestClaimDailyUnknownUser(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)

	_, err := repo.ClaimDaily(context.Background(), 999, 2, 4)
	require.ErrorIs(t, err, common.ErrDailyNotReady)
}
