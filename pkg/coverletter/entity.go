package coverletter

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type HistoryEntry struct {
	Content     string    `json:"content"`
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// CoverLetter — одно письмо на оптимизированное резюме; перегенерация
// поднимает версию, прежний текст уходит в историю.
type CoverLetter struct {
	ID                uuid.UUID      `json:"id"`
	UserID            uuid.UUID      `json:"userId"`
	OptimizedResumeID uuid.UUID      `json:"optimizedResumeId"`
	Content           string         `json:"content"`
	Version           string         `json:"version"`
	VersionHistory    []HistoryEntry `json:"versionHistory"`
	Highlights        []string       `json:"highlights"`
	Confidence        int            `json:"confidence"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// ErrConflict — запись изменилась между чтением и записью; перечитать и повторить.
var ErrConflict = errors.New("cover letter changed concurrently")

// Repository returns apperr NOT_FOUND for missing records.
type Repository interface {
	// Create returns ErrConflict when the optimized resume already has a letter.
	Create(ctx context.Context, c CoverLetter) error
	Get(ctx context.Context, id uuid.UUID) (CoverLetter, error)
	GetByOptimizedResume(ctx context.Context, optimizedResumeID uuid.UUID) (CoverLetter, error)
	// Update stores c only while the stored version is still prevVersion,
	// otherwise it returns ErrConflict.
	Update(ctx context.Context, c CoverLetter, prevVersion string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
