package optimization

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/artem13815/hr-optimizer/pkg/resume"
)

// Repository хранит оптимизированные резюме.
// Get/Update/Delete возвращают apperr NOT_FOUND, если записи нет.
type Repository interface {
	Create(ctx context.Context, r OptimizedResume) error
	Get(ctx context.Context, id uuid.UUID) (OptimizedResume, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]OptimizedResume, error)
	// ListLineage returns every record of one uploaded resume, oldest first.
	ListLineage(ctx context.Context, uploadedResumeID uuid.UUID) ([]OptimizedResume, error)
	Update(ctx context.Context, r OptimizedResume) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type SnapshotRepository interface {
	Upsert(ctx context.Context, s Snapshot) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// UploadedResumes is the read side of the uploaded resume store.
type UploadedResumes interface {
	GetMeta(ctx context.Context, id uuid.UUID) (resume.Resume, error)
	GetParsed(ctx context.Context, resumeID uuid.UUID) (resume.Parsed, error)
}
