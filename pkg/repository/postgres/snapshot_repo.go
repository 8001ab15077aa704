package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artem13815/hr-optimizer/pkg/optimization"
)

// SnapshotRepository пишет журнал шагов пайплайна с перезаписью по (session_id, step).
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

func (r *SnapshotRepository) Upsert(ctx context.Context, s optimization.Snapshot) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO optimization_snapshots (session_id, step, data, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (session_id, step) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
`, s.SessionID, string(s.Step), []byte(s.Data), s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *SnapshotRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM optimization_snapshots WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
