package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/artem13815/hr-optimizer/pkg/apperr"
	"github.com/artem13815/hr-optimizer/pkg/optimization"
)

// OptimizedResumeRepository хранит результат целиком в jsonb; в колонки вынесено
// только то, по чему ищем.
type OptimizedResumeRepository struct {
	pool *pgxpool.Pool
}

func NewOptimizedResumeRepository(pool *pgxpool.Pool) *OptimizedResumeRepository {
	return &OptimizedResumeRepository{pool: pool}
}

func (r *OptimizedResumeRepository) Create(ctx context.Context, or optimization.OptimizedResume) error {
	payload, err := json.Marshal(or)
	if err != nil {
		return fmt.Errorf("encode optimized resume: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
INSERT INTO optimized_resumes (id, user_id, uploaded_resume_id, session_id, version, payload, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, or.ID, or.UserID, or.UploadedResumeID, or.SessionID, or.Metadata.Version, payload, or.CreatedAt)
	return err
}

func (r *OptimizedResumeRepository) Get(ctx context.Context, id uuid.UUID) (optimization.OptimizedResume, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT payload FROM optimized_resumes WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return optimization.OptimizedResume{}, apperr.NotFound("optimized resume")
	}
	if err != nil {
		return optimization.OptimizedResume{}, err
	}
	return decodeOptimized(payload)
}

func (r *OptimizedResumeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]optimization.OptimizedResume, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.list(ctx, `
SELECT payload FROM optimized_resumes
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`, userID, limit, offset)
}

func (r *OptimizedResumeRepository) ListLineage(ctx context.Context, uploadedResumeID uuid.UUID) ([]optimization.OptimizedResume, error) {
	return r.list(ctx, `
SELECT payload FROM optimized_resumes
WHERE uploaded_resume_id = $1
ORDER BY created_at ASC
`, uploadedResumeID)
}

func (r *OptimizedResumeRepository) Update(ctx context.Context, or optimization.OptimizedResume) error {
	payload, err := json.Marshal(or)
	if err != nil {
		return fmt.Errorf("encode optimized resume: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `UPDATE optimized_resumes SET payload = $2 WHERE id = $1`, or.ID, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("optimized resume")
	}
	return nil
}

// Delete is a hard delete. Of two concurrent deletes exactly one affects a row.
func (r *OptimizedResumeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM optimized_resumes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("optimized resume")
	}
	return nil
}

func (r *OptimizedResumeRepository) list(ctx context.Context, query string, args ...any) ([]optimization.OptimizedResume, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []optimization.OptimizedResume
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		or, err := decodeOptimized(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, or)
	}
	return out, rows.Err()
}

func decodeOptimized(payload []byte) (optimization.OptimizedResume, error) {
	var or optimization.OptimizedResume
	if err := json.Unmarshal(payload, &or); err != nil {
		return optimization.OptimizedResume{}, fmt.Errorf("decode optimized resume: %w", err)
	}
	return or, nil
}
