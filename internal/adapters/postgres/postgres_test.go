package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"simex/internal/adapters/postgres"
	"simex/internal/domain"
	"simex/internal/platform/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tcpg "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	pgSetupOnce sync.Once

	pgContainer *tcpg.PostgresContainer
	pgConnStr   string
)

func TestMain(m *testing.M) {
	code := m.Run()
	if pgContainer != nil {
		_ = pgContainer.Terminate(context.Background())
	}
	os.Exit(code)
}

func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests are skipped in short mode")
	}

	pgSetupOnce.Do(func() {
		startPostgres(t)
	})
	require.NotEmpty(t, pgConnStr, "postgres container failed to start")

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, pgConnStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	_, err = pool.Exec(ctx, `truncate table fx_snapshots restart identity`)
	require.NoError(t, err)

	return pool
}

func startPostgres(t *testing.T) {
	ctx := context.Background()
	pg, err := tcpg.Run(ctx,
		"postgres:16-alpine",
		tcpg.WithDatabase("postgres"),
		tcpg.WithUsername("postgres"),
		tcpg.WithPassword("postgres"),
	)
	require.NoError(t, err)
	pgContainer = pg

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		pool, poolErr := pgxpool.New(pingCtx, dsn)
		if poolErr != nil {
			return false
		}
		defer pool.Close()
		return pool.Ping(pingCtx) == nil
	}, 15*time.Second, 500*time.Millisecond)

	require.NoError(t, db.Migrate(ctx, dsn))
	pgConnStr = dsn
}

func TestSnapshotRepository_Index_Empty(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewSnapshotRepository(pool)

	names, err := repo.Index(context.Background())
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestSnapshotRepository_Index_SortedDistinctNames(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewSnapshotRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, "0002", []domain.RateRecord{{Pair: "BTC_USD", Rate: "9100"}}))
	require.NoError(t, repo.Insert(ctx, "0001", []domain.RateRecord{
		{Pair: "BTC_USD", Rate: "9000"},
		{Pair: "BTC_EUR", Rate: "8000"},
	}))

	names, err := repo.Index(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"0001", "0002"}, names)
}

func TestSnapshotRepository_Load_KeepsInsertOrder(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewSnapshotRepository(pool)
	ctx := context.Background()

	records := []domain.RateRecord{
		{Pair: "BTC_USD", Rate: "9000"},
		{Pair: "ETH_USD", Rate: "300"},
		{Pair: "BTC_USD", Rate: "9001"},
	}
	require.NoError(t, repo.Insert(ctx, "0001", records))

	got, err := repo.Load(ctx, "0001")
	require.NoError(t, err)
	require.Equal(t, records, got)
}

func TestSnapshotRepository_Insert_AllOrNothing(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewSnapshotRepository(pool)
	ctx := context.Background()

	// text columns reject NUL bytes, so the second row fails.
	err := repo.Insert(ctx, "0001", []domain.RateRecord{
		{Pair: "BTC_USD", Rate: "9000"},
		{Pair: "ETH_USD", Rate: "3\x00"},
	})
	require.Error(t, err)

	names, err := repo.Index(ctx)
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestSnapshotRepository_Load_UnknownName(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewSnapshotRepository(pool)

	got, err := repo.Load(context.Background(), "missing")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSnapshotRepository_Load_DBError(t *testing.T) {
	pool := setupPostgres(t)
	repo := postgres.NewSnapshotRepository(pool)

	// Use a canceled context to force a query error.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := repo.Load(ctx, "0001")
	require.Error(t, err)
}
