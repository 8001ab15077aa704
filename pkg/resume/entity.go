package resume

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Resume хранит метаданные загруженного файла.
type Resume struct {
	ID         uuid.UUID `json:"id"`
	OwnerID    uuid.UUID `json:"ownerId"`
	Filename   string    `json:"filename"`
	MimeType   string    `json:"mimeType"`
	Size       int64     `json:"size"`
	StorageURI string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Parsed хранит извлечённый из резюме текст.
type Parsed struct {
	ResumeID uuid.UUID `json:"resumeId"`
	Text     string    `json:"text"`
}

// Repository даёт доступ к загруженным резюме.
// Get/Delete возвращают apperr NOT_FOUND, если записи нет.
type Repository interface {
	Create(ctx context.Context, r Resume) error
	SaveParsed(ctx context.Context, p Parsed) error
	GetParsed(ctx context.Context, resumeID uuid.UUID) (Parsed, error)
	GetMeta(ctx context.Context, id uuid.UUID) (Resume, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]Resume, error)
	// Delete returns deleted meta for file cleanup.
	Delete(ctx context.Context, id uuid.UUID) (Resume, error)
}
