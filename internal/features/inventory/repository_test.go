package inventory

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestAllocateConcurrentNoDoubleHandout(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	const stock = 4
	for i := 0; i < stock; i++ {
		require.NoError(t, repo.Add(ctx, fmt.Sprintf("user%d:pass%d", i, i), TierStandard))
	}

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	payloads := make(map[string]int)
	var misses int
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			item, err := repo.Allocate(ctx, TierStandard)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				t.Errorf("allocate failed: %v", err)
				return
			}
			if item == nil {
				misses++
				return
			}
			payloads[item.Payload]++
		}()
	}
	wg.Wait()

	assert.Len(t, payloads, stock, "every stocked item handed out exactly once")
	for payload, n := range payloads {
		assert.Equal(t, 1, n, "payload %q handed out %d times", payload, n)
	}
	assert.Equal(t, workers-stock, misses)

	item, err := repo.Allocate(ctx, TierStandard)
	require.NoError(t, err)
	assert.Nil(t, item, "the drained pool must stay empty")

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestAllocateTierFallback(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "premium_user:secret", TierPremium))

	// No standard stock: the premium item still satisfies the request.
	item, err := repo.Allocate(ctx, TierStandard)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "premium_user:secret", item.Payload)
	assert.Equal(t, TierPremium, item.Tier)

	item, err = repo.Allocate(ctx, TierStandard)
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestAllocatePrefersRequestedTier(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, "std:one", TierStandard))
	require.NoError(t, repo.Add(ctx, "prm:one", TierPremium))

	item, err := repo.Allocate(ctx, TierPremium)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "prm:one", item.Payload, "the requested tier wins while it has stock")

	byTier, err := repo.CountByTier(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[Tier]int{TierStandard: 1}, byTier)
}
