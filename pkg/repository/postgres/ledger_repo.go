package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// VersionLedger issues per-lineage counters with a single atomic upsert.
type VersionLedger struct {
	pool *pgxpool.Pool
}

func NewVersionLedger(pool *pgxpool.Pool) *VersionLedger {
	return &VersionLedger{pool: pool}
}

func (l *VersionLedger) Next(ctx context.Context, lineageKey string) (int64, error) {
	var n int64
	err := l.pool.QueryRow(ctx, `
INSERT INTO version_ledger (lineage_key, counter)
VALUES ($1, 1)
ON CONFLICT (lineage_key) DO UPDATE SET counter = version_ledger.counter + 1
RETURNING counter
`, lineageKey).Scan(&n)
	return n, err
}
