package redemption

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terajutt/INSTA-UNC/internal/common"
	"github.com/terajutt/INSTA-UNC/internal/db/postgres"
	"github.com/terajutt/INSTA-UNC/internal/features/inventory"
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

func userPoints(t *testing.T, pool *pgxpool.Pool, userID int64) int {
	t.Helper()
	var points int
	err := pool.QueryRow(context.Background(),
		`SELECT points FROM users WHERE user_id = $1`, userID).Scan(&points)
	require.NoError(t, err)
	return points
}

func TestRedeemSuccess(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	inv := inventory.NewRepository(pool)
	ctx := context.Background()
	createUser(t, pool, 100, 15, false)
	require.NoError(t, inv.Add(ctx, "insta_user:secret", inventory.TierStandard))

	res, err := repo.Redeem(ctx, 100, 15, 10)
	require.NoError(t, err)
	assert.Equal(t, "insta_user:secret", res.Payload)
	assert.Equal(t, 15, res.Cost)
	assert.Equal(t, 0, res.Balance)
	assert.Positive(t, res.RecordID)

	recs, err := repo.History(ctx, 100)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, res.RecordID, recs[0].ID)
	assert.Equal(t, "insta_user:secret", recs[0].Account)
	assert.Equal(t, 15, recs[0].Cost)

	n, err := inv.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "the allocated item must leave the pool")
}

func TestRedeemOutOfStockRollsBack(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	createUser(t, pool, 100, 20, false)

	_, err := repo.Redeem(ctx, 100, 15, 10)
	require.ErrorIs(t, err, common.ErrOutOfStock)

	assert.Equal(t, 20, userPoints(t, pool, 100), "an empty pool must cost nothing")

	recs, err := repo.History(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, recs, "a failed redeem must not append a log row")
}

func TestRedeemInsufficientPointsKeepsItem(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	inv := inventory.NewRepository(pool)
	ctx := context.Background()
	createUser(t, pool, 100, 5, false)
	require.NoError(t, inv.Add(ctx, "insta_user:secret", inventory.TierStandard))

	_, err := repo.Redeem(ctx, 100, 15, 10)
	require.ErrorIs(t, err, common.ErrInsufficientPoints)

	assert.Equal(t, 5, userPoints(t, pool, 100))
	n, err := inv.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the item stays in the pool when the debit is refused")
}

func TestRedeemVIPPricingAndTier(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	inv := inventory.NewRepository(pool)
	ctx := context.Background()
	createUser(t, pool, 100, 10, true)
	require.NoError(t, inv.Add(ctx, "std:acct", inventory.TierStandard))
	require.NoError(t, inv.Add(ctx, "prm:acct", inventory.TierPremium))

	res, err := repo.Redeem(ctx, 100, 15, 10)
	require.NoError(t, err)
	assert.Equal(t, "prm:acct", res.Payload, "VIP redemptions prefer premium stock")
	assert.Equal(t, 10, res.Cost, "VIP pays the VIP price")
	assert.Equal(t, 0, res.Balance)
}
