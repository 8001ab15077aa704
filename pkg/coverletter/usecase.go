package coverletter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artem13815/hr-optimizer/pkg/apperr"
	"github.com/artem13815/hr-optimizer/pkg/auth"
	"github.com/artem13815/hr-optimizer/pkg/llm"
	"github.com/artem13815/hr-optimizer/pkg/nlp"
	"github.com/artem13815/hr-optimizer/pkg/optimization"
	"github.com/artem13815/hr-optimizer/pkg/render"
	"github.com/artem13815/hr-optimizer/pkg/scoring"
	"github.com/artem13815/hr-optimizer/pkg/version"
)

// OptimizedResumes is the owner-checked read side of optimized resumes.
type OptimizedResumes interface {
	Get(ctx context.Context, userID, id uuid.UUID) (optimization.OptimizedResume, error)
	GetVersion(ctx context.Context, userID, id uuid.UUID, ver string) (optimization.OptimizedResume, error)
}

type UseCase interface {
	// Generate creates the letter or regenerates it. ver picks an older
	// version of the optimized resume as the source; empty means id itself.
	Generate(ctx context.Context, userID, optimizedResumeID uuid.UUID, ver string) (CoverLetter, error)
	Get(ctx context.Context, userID, id uuid.UUID) (CoverLetter, error)
	GetVersion(ctx context.Context, userID, id uuid.UUID, ver string) (HistoryEntry, error)
	Download(ctx context.Context, userID, id uuid.UUID, format string) (render.File, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type Deps struct {
	Repo     Repository
	Resumes  OptimizedResumes
	Authz    auth.Authorizer
	LLM      llm.ChatModel
	Ledger   version.Ledger
	Renderer render.Renderer
	Timeout  time.Duration
	Now      func() time.Time
}

type service struct {
	d   Deps
	log *slog.Logger
}

func NewService(d Deps) UseCase {
	if d.Timeout <= 0 {
		d.Timeout = 90 * time.Second
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Authz == nil {
		d.Authz = auth.OwnerOnly{}
	}
	return &service{d: d, log: slog.With("component", "cover_letters")}
}

type payload struct {
	Content    string   `json:"content"`
	Highlights []string `json:"highlights"`
	Confidence any      `json:"confidence"`
}

var letterSchema = llm.MustSchema(`{
  "type": "object",
  "required": ["content"],
  "properties": {
    "content": {"type": "string", "minLength": 1},
    "highlights": {"type": ["array", "null"], "items": {"type": "string"}},
    "confidence": {}
  }
}`)

const systemPrompt = "You write concise, specific cover letters. Use only facts from the resume. Return STRICTLY one JSON object, no markdown."

const userPrompt = `Position: %s at %s
Job description:
<<<
%s
>>>

Candidate resume:
<<<
%s
>>>

Write a cover letter of 3-4 short paragraphs addressed to the hiring team.
Return JSON: {"content": string, "highlights": string[] (resume facts you leaned on), "confidence": 0-100}`

func (s *service) Generate(ctx context.Context, userID, optimizedResumeID uuid.UUID, ver string) (CoverLetter, error) {
	src, err := s.d.Resumes.Get(ctx, userID, optimizedResumeID)
	if err != nil {
		return CoverLetter{}, err
	}
	if ver = strings.TrimSpace(ver); ver != "" && ver != src.Metadata.Version {
		if src, err = s.d.Resumes.GetVersion(ctx, userID, optimizedResumeID, ver); err != nil {
			return CoverLetter{}, err
		}
	}

	start := time.Now()
	user := fmt.Sprintf(userPrompt,
		src.JobDetails.Title, src.JobDetails.Company,
		nlp.Truncate(src.JobDescription, 8000),
		nlp.Truncate(src.Content, 12000),
	)
	res, err := llm.GenerateStructured[payload](ctx, s.d.LLM, s.d.Timeout, systemPrompt, user, letterSchema)
	if err != nil {
		if errors.Is(err, llm.ErrTimeout) {
			return CoverLetter{}, apperr.Wrap(apperr.CodeTimeout, "cover letter generation timed out", err)
		}
		return CoverLetter{}, apperr.Wrap(apperr.CodeOptimization, "cover letter generation failed", err)
	}
	if !res.OK() || strings.TrimSpace(res.Value.Content) == "" {
		return CoverLetter{}, apperr.Wrap(apperr.CodeOptimization, "model returned malformed cover letter", errors.New(res.Reason))
	}

	ledgerVer, err := version.Next(ctx, s.d.Ledger, version.CoverLetterKey(optimizedResumeID.String()))
	if err != nil {
		return CoverLetter{}, apperr.Fatal(err)
	}
	draft := CoverLetter{
		ID:                uuid.New(),
		UserID:            userID,
		OptimizedResumeID: optimizedResumeID,
		Content:           strings.TrimSpace(res.Value.Content),
		Version:           ledgerVer,
		VersionHistory:    []HistoryEntry{},
		Highlights:        nlp.DedupeSkills(res.Value.Highlights),
		Confidence:        scoring.Coerce(res.Value.Confidence),
	}
	for attempt := 1; ; attempt++ {
		draft.UpdatedAt = s.d.Now().UTC()
		cl, err := s.save(ctx, draft)
		if err == nil {
			s.log.InfoContext(ctx, "cover letter stored",
				"cover_letter_id", cl.ID.String(),
				"version", ledgerVer,
				"current_version", cl.Version,
				"attempt", attempt,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return cl, nil
		}
		if !errors.Is(err, ErrConflict) || attempt == maxSaveAttempts {
			return CoverLetter{}, apperr.From(err)
		}
		s.log.DebugContext(ctx, "cover letter write conflict, retrying", "version", ledgerVer, "attempt", attempt)
	}
}

// maxSaveAttempts bounds optimistic retries of concurrent generations.
const maxSaveAttempts = 5

// save creates the letter or folds draft into the stored one. Concurrent
// writers surface as ErrConflict.
func (s *service) save(ctx context.Context, draft CoverLetter) (CoverLetter, error) {
	existing, err := s.d.Repo.GetByOptimizedResume(ctx, draft.OptimizedResumeID)
	switch {
	case err == nil:
		merged := merge(existing, draft)
		if err := s.d.Repo.Update(ctx, merged, existing.Version); err != nil {
			return CoverLetter{}, err
		}
		return merged, nil
	case apperr.IsCode(err, apperr.CodeNotFound):
		draft.CreatedAt = draft.UpdatedAt
		if err := s.d.Repo.Create(ctx, draft); err != nil {
			return CoverLetter{}, err
		}
		return draft, nil
	default:
		return CoverLetter{}, err
	}
}

// merge makes the higher version current and keeps the other one in the
// history, so a slower writer never drops a version a faster one stored.
func merge(existing, draft CoverLetter) CoverLetter {
	prev := HistoryEntry{Content: existing.Content, Version: existing.Version, GeneratedAt: existing.UpdatedAt}
	mine := HistoryEntry{Content: draft.Content, Version: draft.Version, GeneratedAt: draft.UpdatedAt}

	out := existing
	out.VersionHistory = append([]HistoryEntry(nil), existing.VersionHistory...)
	if version.Parse(draft.Version) > version.Parse(existing.Version) {
		out.VersionHistory = append(out.VersionHistory, prev)
		out.Content = draft.Content
		out.Version = draft.Version
		out.Highlights = draft.Highlights
		out.Confidence = draft.Confidence
		out.UpdatedAt = draft.UpdatedAt
	} else {
		out.VersionHistory = append(out.VersionHistory, mine)
	}
	sort.SliceStable(out.VersionHistory, func(i, j int) bool {
		return version.Parse(out.VersionHistory[i].Version) < version.Parse(out.VersionHistory[j].Version)
	})
	return out
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (CoverLetter, error) {
	return s.owned(ctx, userID, id)
}

func (s *service) GetVersion(ctx context.Context, userID, id uuid.UUID, ver string) (HistoryEntry, error) {
	cl, err := s.owned(ctx, userID, id)
	if err != nil {
		return HistoryEntry{}, err
	}
	ver = strings.TrimSpace(ver)
	if cl.Version == ver {
		return HistoryEntry{Content: cl.Content, Version: cl.Version, GeneratedAt: cl.UpdatedAt}, nil
	}
	for _, h := range cl.VersionHistory {
		if h.Version == ver {
			return h, nil
		}
	}
	return HistoryEntry{}, apperr.NotFound("version " + ver)
}

func (s *service) Download(ctx context.Context, userID, id uuid.UUID, format string) (render.File, error) {
	cl, err := s.owned(ctx, userID, id)
	if err != nil {
		return render.File{}, err
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		return render.File{}, err
	}
	var name string
	if or, err := s.d.Resumes.Get(ctx, userID, cl.OptimizedResumeID); err == nil {
		name = or.ContactInfo.FullName
	}
	data, err := s.d.Renderer.Render(ctx, render.FromCoverLetter(name, cl.Content), f)
	if err != nil {
		return render.File{}, err
	}
	return render.File{
		Name:        "cover-letter-v" + cl.Version + "." + string(f),
		ContentType: f.ContentType(),
		Data:        data,
	}, nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.d.Repo.Delete(ctx, id); err != nil {
		return apperr.From(err)
	}
	return nil
}

func (s *service) owned(ctx context.Context, userID, id uuid.UUID) (CoverLetter, error) {
	if userID == uuid.Nil {
		return CoverLetter{}, apperr.Unauthenticated()
	}
	cl, err := s.d.Repo.Get(ctx, id)
	if err != nil {
		return CoverLetter{}, apperr.From(err)
	}
	if !s.d.Authz.IsAuthorized(userID, cl.UserID) {
		return CoverLetter{}, apperr.Forbidden("cover letter")
	}
	return cl, nil
}
