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
	"github.com/artem13815/hr-optimizer/pkg/coverletter"
)

type CoverLetterRepository struct {
	pool *pgxpool.Pool
}

func NewCoverLetterRepository(pool *pgxpool.Pool) *CoverLetterRepository {
	return &CoverLetterRepository{pool: pool}
}

func (r *CoverLetterRepository) Create(ctx context.Context, c coverletter.CoverLetter) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cover letter: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
INSERT INTO cover_letters (id, user_id, optimized_resume_id, payload, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (optimized_resume_id) DO NOTHING
`, c.ID, c.UserID, c.OptimizedResumeID, payload, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return coverletter.ErrConflict
	}
	return nil
}

func (r *CoverLetterRepository) Get(ctx context.Context, id uuid.UUID) (coverletter.CoverLetter, error) {
	return r.one(ctx, `SELECT payload FROM cover_letters WHERE id = $1`, id)
}

func (r *CoverLetterRepository) GetByOptimizedResume(ctx context.Context, optimizedResumeID uuid.UUID) (coverletter.CoverLetter, error) {
	return r.one(ctx, `SELECT payload FROM cover_letters WHERE optimized_resume_id = $1`, optimizedResumeID)
}

// Update is a compare-and-swap on the version stored in the payload. A row
// that is gone or already moved on both end in ErrConflict; the caller rereads.
func (r *CoverLetterRepository) Update(ctx context.Context, c coverletter.CoverLetter, prevVersion string) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cover letter: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
UPDATE cover_letters SET payload = $2, updated_at = $3
WHERE id = $1 AND payload->>'version' = $4
`, c.ID, payload, c.UpdatedAt, prevVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return coverletter.ErrConflict
	}
	return nil
}

func (r *CoverLetterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cover_letters WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("cover letter")
	}
	return nil
}

func (r *CoverLetterRepository) one(ctx context.Context, query string, arg any) (coverletter.CoverLetter, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, query, arg).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return coverletter.CoverLetter{}, apperr.NotFound("cover letter")
	}
	if err != nil {
		return coverletter.CoverLetter{}, err
	}
	var c coverletter.CoverLetter
	if err := json.Unmarshal(payload, &c); err != nil {
		return coverletter.CoverLetter{}, fmt.Errorf("decode cover letter: %w", err)
	}
	return c, nil
}
