package optimization

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/artem13815/hr-optimizer/pkg/apperr"
	"github.com/artem13815/hr-optimizer/pkg/progress"
	"github.com/artem13815/hr-optimizer/pkg/render"
	"github.com/artem13815/hr-optimizer/pkg/scoring"
)

// UseCase — сценарии работы с оптимизированными резюме.
// Все операции, кроме Optimize, сначала проверяют владельца.
type UseCase interface {
	Optimize(ctx context.Context, req Request, ch progress.Channel) (OptimizedResume, error)
	AnalyzeExisting(ctx context.Context, userID, id uuid.UUID) (Report, error)
	Get(ctx context.Context, userID, id uuid.UUID) (OptimizedResume, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]OptimizedResume, error)
	GetVersion(ctx context.Context, userID, id uuid.UUID, ver string) (OptimizedResume, error)
	Download(ctx context.Context, userID, id uuid.UUID, format string) (render.File, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	orch     *Orchestrator
	repo     Repository
	renderer render.Renderer
	log      *slog.Logger
}

func NewService(d Deps, renderer render.Renderer) UseCase {
	orch := NewOrchestrator(d)
	return &service{orch: orch, repo: d.Repo, renderer: renderer, log: slog.With("component", "optimized_resumes")}
}

func (s *service) Optimize(ctx context.Context, req Request, ch progress.Channel) (OptimizedResume, error) {
	return s.orch.Run(ctx, req, ch)
}

// AnalyzeExisting re-scores the stored original and optimized texts. Each side
// is replaced only by a fresh non-zero score.
func (s *service) AnalyzeExisting(ctx context.Context, userID, id uuid.UUID) (Report, error) {
	or, err := s.owned(ctx, userID, id)
	if err != nil {
		return Report{}, err
	}
	var before, after scoring.Result
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		before = s.orch.d.Scorer.Score(ctx, or.OriginalContent, or.JobDescription)
	}()
	go func() {
		defer wg.Done()
		after = s.orch.d.Scorer.Score(ctx, or.Content, or.JobDescription)
	}()
	wg.Wait()

	beforeOK := before.Score != (scoring.MatchScore{})
	afterOK := after.Score != (scoring.MatchScore{})
	if !beforeOK && !afterOK {
		return Report{}, apperr.New(apperr.CodeAnalysis, "match analysis is unavailable, try again later")
	}
	// Сторона, которую скорер не смог посчитать, остаётся сохранённой.
	if !beforeOK {
		before.Score = or.Metrics.Before
		s.log.WarnContext(ctx, "original text not rescored, keeping stored metrics", "optimized_resume_id", id.String())
	}
	if !afterOK {
		after.Score = or.Metrics.After
		s.log.WarnContext(ctx, "optimized text not rescored, keeping stored metrics", "optimized_resume_id", id.String())
	}
	or.Metrics = Metrics{Before: before.Score, After: after.Score}
	if err := s.repo.Update(ctx, or); err != nil {
		s.log.WarnContext(ctx, "refreshed metrics not stored", "optimized_resume_id", id.String(), "error", err)
	}
	return Report{Before: before.Score, After: after.Score, Analysis: after.Analysis}, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (OptimizedResume, error) {
	return s.owned(ctx, userID, id)
}

func (s *service) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]OptimizedResume, error) {
	if userID == uuid.Nil {
		return nil, apperr.Unauthenticated()
	}
	items, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, apperr.From(err)
	}
	if items == nil {
		items = []OptimizedResume{}
	}
	return items, nil
}

// GetVersion looks the version up in the lineage of id.
func (s *service) GetVersion(ctx context.Context, userID, id uuid.UUID, ver string) (OptimizedResume, error) {
	or, err := s.owned(ctx, userID, id)
	if err != nil {
		return OptimizedResume{}, err
	}
	ver = strings.TrimSpace(ver)
	if or.Metadata.Version == ver {
		return or, nil
	}
	lineage, err := s.repo.ListLineage(ctx, or.UploadedResumeID)
	if err != nil {
		return OptimizedResume{}, apperr.From(err)
	}
	for _, item := range lineage {
		if item.UserID == userID && item.Metadata.Version == ver {
			return item, nil
		}
	}
	return OptimizedResume{}, apperr.NotFound("version " + ver)
}

func (s *service) Download(ctx context.Context, userID, id uuid.UUID, format string) (render.File, error) {
	or, err := s.owned(ctx, userID, id)
	if err != nil {
		return render.File{}, err
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		return render.File{}, err
	}
	data, err := s.renderer.Render(ctx, render.FromResume(or.ResumeContent, or.Content), f)
	if err != nil {
		return render.File{}, err
	}
	base := strings.TrimSuffix(or.Metadata.Filename, filepath.Ext(or.Metadata.Filename))
	if base == "" {
		base = "resume"
	}
	return render.File{
		Name:        base + "-optimized-v" + or.Metadata.Version + "." + string(f),
		ContentType: f.ContentType(),
		Data:        data,
	}, nil
}

// Delete is a hard delete; a second call ends in NOT_FOUND.
func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.From(err)
	}
	s.log.InfoContext(ctx, "optimized resume deleted", "optimized_resume_id", id.String(), "user_id", userID.String())
	return nil
}

func (s *service) owned(ctx context.Context, userID, id uuid.UUID) (OptimizedResume, error) {
	if userID == uuid.Nil {
		return OptimizedResume{}, apperr.Unauthenticated()
	}
	or, err := s.repo.Get(ctx, id)
	if err != nil {
		return OptimizedResume{}, apperr.From(err)
	}
	if !s.orch.d.Authz.IsAuthorized(userID, or.UserID) {
		return OptimizedResume{}, apperr.Forbidden("optimized resume")
	}
	return or, nil
}
