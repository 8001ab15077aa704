package resume

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artem13815/hr-optimizer/pkg/apperr"
	"github.com/artem13815/hr-optimizer/pkg/auth"
)

// UseCase — загрузка и управление исходными резюме пользователя.
type UseCase interface {
	Upload(ctx context.Context, ownerID uuid.UUID, filename, mimeType string, data []byte) (Resume, error)
	List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]Resume, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (Resume, Parsed, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

type service struct {
	repo    Repository
	authz   auth.Authorizer
	baseDir string
	log     *slog.Logger
}

func NewService(repo Repository, authz auth.Authorizer, baseDir string) UseCase {
	if baseDir == "" {
		baseDir = "uploads"
	}
	return &service{repo: repo, authz: authz, baseDir: baseDir, log: slog.With("component", "resumes")}
}

func (s *service) Upload(ctx context.Context, ownerID uuid.UUID, filename, mimeType string, data []byte) (Resume, error) {
	if ownerID == uuid.Nil {
		return Resume{}, apperr.Unauthenticated()
	}
	mime, ok := DetectMIME(filename, mimeType)
	if !ok {
		return Resume{}, apperr.InvalidInput("unsupported file format: only pdf and docx are allowed")
	}
	text, err := ParseDocument(data, mime)
	if err != nil {
		return Resume{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Resume{}, apperr.New(apperr.CodeParsing, "document contains no extractable text")
	}

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return Resume{}, apperr.Fatal(err)
	}
	id := uuid.New()
	dst := filepath.Join(s.baseDir, id.String()+filepath.Ext(strings.ToLower(filename)))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return Resume{}, apperr.Fatal(err)
	}
	meta := Resume{
		ID:         id,
		OwnerID:    ownerID,
		Filename:   filepath.Base(filename),
		MimeType:   mime,
		Size:       int64(len(data)),
		StorageURI: dst,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, meta); err != nil {
		_ = os.Remove(dst)
		return Resume{}, apperr.Fatal(err)
	}
	if err := s.repo.SaveParsed(ctx, Parsed{ResumeID: id, Text: text}); err != nil {
		return Resume{}, apperr.Fatal(err)
	}
	s.log.InfoContext(ctx, "resume uploaded", "resume_id", id.String(), "size", len(data), "chars", len(text))
	return meta, nil
}

func (s *service) List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]Resume, error) {
	if ownerID == uuid.Nil {
		return nil, apperr.Unauthenticated()
	}
	items, err := s.repo.ListByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, apperr.From(err)
	}
	if items == nil {
		items = []Resume{}
	}
	return items, nil
}

func (s *service) Get(ctx context.Context, ownerID, id uuid.UUID) (Resume, Parsed, error) {
	meta, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return Resume{}, Parsed{}, err
	}
	parsed, err := s.repo.GetParsed(ctx, id)
	if err != nil && !apperr.IsCode(err, apperr.CodeNotFound) {
		return Resume{}, Parsed{}, apperr.From(err)
	}
	return meta, parsed, nil
}

// Delete removes the upload. Optimized resumes derived from it are kept.
func (s *service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return err
	}
	meta, err := s.repo.Delete(ctx, id)
	if err != nil {
		return apperr.From(err)
	}
	if meta.StorageURI != "" {
		_ = os.Remove(meta.StorageURI)
	}
	return nil
}

func (s *service) owned(ctx context.Context, ownerID, id uuid.UUID) (Resume, error) {
	if ownerID == uuid.Nil {
		return Resume{}, apperr.Unauthenticated()
	}
	meta, err := s.repo.GetMeta(ctx, id)
	if err != nil {
		return Resume{}, apperr.From(err)
	}
	if !s.authz.IsAuthorized(ownerID, meta.OwnerID) {
		return Resume{}, apperr.Forbidden("resume")
	}
	return meta, nil
}
