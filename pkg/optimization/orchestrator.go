package optimization

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/artem13815/hr-optimizer/pkg/alert"
	"github.com/artem13815/hr-optimizer/pkg/apperr"
	"github.com/artem13815/hr-optimizer/pkg/auth"
	"github.com/artem13815/hr-optimizer/pkg/jobdetails"
	"github.com/artem13815/hr-optimizer/pkg/optimizer"
	"github.com/artem13815/hr-optimizer/pkg/progress"
	"github.com/artem13815/hr-optimizer/pkg/resume"
	"github.com/artem13815/hr-optimizer/pkg/scoring"
	"github.com/artem13815/hr-optimizer/pkg/version"
)

// ErrCancelled is the cause of a run stopped at a step boundary because the
// stream went away.
var ErrCancelled = errors.New("optimization cancelled")

// alertTimeout bounds operator alert delivery after a run has completed.
const alertTimeout = 10 * time.Second

// Request — запуск пайплайна для одного загруженного резюме.
type Request struct {
	UserID           uuid.UUID
	UploadedResumeID uuid.UUID
	Job              jobdetails.Input
}

// Deps are the collaborators of a run. Now, Authz, Alerts and Counters have defaults.
type Deps struct {
	Resumes   UploadedResumes
	Repo      Repository
	Snapshots SnapshotRepository
	Authz     auth.Authorizer
	Resolver  jobdetails.Resolver
	Parser    resume.ContentParser
	Analyzer  jobdetails.Analyzer
	Scorer    scoring.Scorer
	Optimizer optimizer.Optimizer
	Ledger    version.Ledger
	Alerts    alert.Notifier
	Counters  *alert.Counters
	Now       func() time.Time
}

// Orchestrator проводит один прогон через все шаги, пишет снапшоты и события.
type Orchestrator struct {
	d   Deps
	log *slog.Logger
}

func NewOrchestrator(d Deps) *Orchestrator {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Authz == nil {
		d.Authz = auth.OwnerOnly{}
	}
	if d.Alerts == nil {
		d.Alerts = alert.Log{}
	}
	if d.Counters == nil {
		d.Counters = &alert.Counters{}
	}
	return &Orchestrator{d: d, log: slog.With("component", "orchestrator")}
}

// run holds the state that flows from one step into the next.
type run struct {
	req       Request
	session   uuid.UUID
	meta      resume.Resume
	text      string
	details   jobdetails.JobDetails
	content   resume.Content
	analysis  jobdetails.Analysis
	before    scoring.Result
	optimized optimizer.Result
	after     scoring.Result
	ch        progress.Channel
	log       *slog.Logger
}

// Run executes the pipeline and reports every step on ch. Exactly one terminal
// event is sent unless the channel was already cancelled. The returned entity
// is the one sent in the completed event.
func (o *Orchestrator) Run(ctx context.Context, req Request, ch progress.Channel) (OptimizedResume, error) {
	start := time.Now()
	r := &run{
		req:     req,
		session: uuid.New(),
		ch:      ch,
	}
	r.log = o.log.With(
		"session_id", r.session.String(),
		"user_id", req.UserID.String(),
		"uploaded_resume_id", req.UploadedResumeID.String(),
	)

	if err := o.prepare(ctx, r); err != nil {
		return OptimizedResume{}, o.fail(ctx, r, err)
	}
	r.log.InfoContext(ctx, "optimization started", "has_url", strings.TrimSpace(req.Job.URL) != "")

	steps := []struct {
		status  progress.Status
		message string
		fn      func(context.Context, *run) (any, error)
	}{
		{progress.StatusStarted, "Optimization started", o.started},
		{progress.StatusExtractingDetails, "Extracting job details", o.extractDetails},
		{progress.StatusParsingResume, "Parsing resume", o.parseResume},
		{progress.StatusAnalyzingDescription, "Analyzing job description", o.analyzeDescription},
		{progress.StatusOptimizingResume, "Optimizing resume", o.optimize},
		{progress.StatusCalculatingMetrics, "Calculating metrics", o.calculateMetrics},
	}
	for _, s := range steps {
		if err := o.cancelled(ctx, r, s.status); err != nil {
			return OptimizedResume{}, o.fail(ctx, r, err)
		}
		_ = ch.Send(progress.Step(s.status, s.message))
		data, err := s.fn(ctx, r)
		if err != nil {
			return OptimizedResume{}, o.fail(ctx, r, apperr.From(err).WithStep(string(s.status)))
		}
		o.snapshot(ctx, r, s.status, data)
	}

	entity, warning, pending := o.persist(ctx, r)
	_ = ch.Send(progress.Completed(entity, warning))
	o.d.Counters.Completed()
	if pending != nil {
		o.notify(ctx, r, *pending)
	}
	r.log.InfoContext(ctx, "optimization completed",
		"optimized_resume_id", entity.ID.String(),
		"version", entity.Metadata.Version,
		"before", entity.Metrics.Before.Overall,
		"after", entity.Metrics.After.Overall,
		"warning", warning,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return entity, nil
}

// prepare runs every check that must pass before the first event.
func (o *Orchestrator) prepare(ctx context.Context, r *run) error {
	if r.req.Job.Empty() {
		return apperr.New(apperr.CodeMissingJobInfo, "either a job URL or a job description is required")
	}
	if r.req.UserID == uuid.Nil {
		return apperr.Unauthenticated()
	}
	meta, err := o.d.Resumes.GetMeta(ctx, r.req.UploadedResumeID)
	if err != nil {
		return apperr.From(err)
	}
	if !o.d.Authz.IsAuthorized(r.req.UserID, meta.OwnerID) {
		return apperr.Forbidden("resume")
	}
	parsed, err := o.d.Resumes.GetParsed(ctx, r.req.UploadedResumeID)
	if err != nil && !apperr.IsCode(err, apperr.CodeNotFound) {
		return apperr.From(err)
	}
	if strings.TrimSpace(parsed.Text) == "" {
		return apperr.New(apperr.CodeParsing, "uploaded resume has no text")
	}
	r.meta = meta
	r.text = parsed.Text
	return nil
}

func (o *Orchestrator) started(_ context.Context, r *run) (any, error) {
	return map[string]any{
		"uploadedResumeId": r.req.UploadedResumeID,
		"jobUrl":           r.req.Job.URL,
		"hasDescription":   strings.TrimSpace(r.req.Job.Description) != "",
	}, nil
}

func (o *Orchestrator) extractDetails(ctx context.Context, r *run) (any, error) {
	details, err := o.d.Resolver.Resolve(ctx, r.req.Job)
	if err != nil {
		return nil, err
	}
	r.details = details
	return details, nil
}

func (o *Orchestrator) parseResume(ctx context.Context, r *run) (any, error) {
	content, err := o.d.Parser.Parse(ctx, r.text)
	if err != nil {
		return nil, err
	}
	r.content = content
	return content, nil
}

func (o *Orchestrator) analyzeDescription(ctx context.Context, r *run) (any, error) {
	analysis, err := o.d.Analyzer.Analyze(ctx, r.details, r.text)
	if err != nil {
		if !apperr.IsCode(err, apperr.CodeAnalysis) {
			err = apperr.Wrap(apperr.CodeAnalysis, "job description analysis failed", err)
		}
		return nil, err
	}
	r.analysis = analysis
	r.before = o.d.Scorer.Score(ctx, r.text, r.jobDescription())
	return map[string]any{"analysis": analysis, "before": r.before}, nil
}

// optimize makes one recovery pass on a non-timeout failure. If that fails
// too, the first error is what the run reports.
func (o *Orchestrator) optimize(ctx context.Context, r *run) (any, error) {
	in := optimizer.Input{
		ResumeText:     r.text,
		JobDescription: r.jobDescription(),
		JobDetails:     r.details,
		JobAnalysis:    r.analysis,
		Original:       r.content,
	}
	res, err := o.d.Optimizer.Optimize(ctx, in)
	if err != nil && !apperr.IsCode(err, apperr.CodeTimeout) {
		r.log.WarnContext(ctx, "optimization failed, running recovery pass", "error", err)
		o.d.Counters.RecoveryPass()
		retried, retryErr := o.d.Optimizer.Optimize(ctx, in)
		if retryErr != nil {
			r.log.WarnContext(ctx, "recovery pass failed", "error", retryErr)
			return nil, err
		}
		res, err = retried, nil
	}
	if err != nil {
		return nil, err
	}
	r.optimized = res
	return res, nil
}

func (o *Orchestrator) calculateMetrics(ctx context.Context, r *run) (any, error) {
	r.after = o.d.Scorer.Score(ctx, r.optimized.OptimizedContent, r.jobDescription())
	return map[string]any{"before": r.before.Score, "after": r.after.Score}, nil
}

// persist issues the version and stores the entity. Failures here never turn
// a successful run into an error: the client gets the in-memory entity with a
// warning, and the returned alert goes to the operator after the completed event.
func (o *Orchestrator) persist(ctx context.Context, r *run) (OptimizedResume, string, *alert.Alert) {
	pctx := context.WithoutCancel(ctx)

	lineage, err := o.d.Repo.ListLineage(pctx, r.req.UploadedResumeID)
	if err != nil {
		r.log.WarnContext(ctx, "lineage lookup failed", "error", err)
		lineage = nil
	}
	ver, persistErr := version.Next(pctx, o.d.Ledger, r.req.UploadedResumeID.String())
	if persistErr != nil {
		ver = version.Format(int64(len(lineage)) + 1)
	}

	now := o.d.Now().UTC()
	entity := OptimizedResume{
		ID:               uuid.New(),
		UserID:           r.req.UserID,
		UploadedResumeID: r.req.UploadedResumeID,
		SessionID:        r.session,
		Content:          r.optimized.OptimizedContent,
		OriginalContent:  r.text,
		JobDescription:   r.jobDescription(),
		JobURL:           strings.TrimSpace(r.req.Job.URL),
		JobDetails:       r.details,
		Metrics:          Metrics{Before: r.before.Score, After: r.after.Score},
		Analysis:         mergeAnalysis(r.optimized.Analysis, r.after.Analysis),
		Changes:          r.optimized.Changes,
		ResumeContent:    r.optimized.ResumeContent,
		ContactInfo:      r.optimized.ResumeContent.ContactInfo,
		Metadata: Metadata{
			Filename:    r.meta.Filename,
			OptimizedAt: now.Format(time.RFC3339),
			Version:     ver,
		},
		CreatedAt: now,
	}
	entity.VersionHistory = history(lineage, entity)

	if persistErr == nil {
		persistErr = o.d.Repo.Create(pctx, entity)
	}
	if persistErr == nil {
		return entity, "", nil
	}

	o.d.Counters.Unpersisted()
	r.log.ErrorContext(ctx, "optimized resume not persisted", "error", persistErr, "version", ver)
	return entity, WarningPersistenceFailed, &alert.Alert{
		Kind:      WarningPersistenceFailed,
		SessionID: r.session.String(),
		UserID:    r.req.UserID.String(),
		Message:   "optimization completed but the result was not stored",
		Err:       persistErr,
	}
}

// notify delivers an operator alert on a bounded context detached from the request.
func (o *Orchestrator) notify(ctx context.Context, r *run, a alert.Alert) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)
	defer cancel()
	if err := o.d.Alerts.Notify(nctx, a); err != nil {
		r.log.WarnContext(ctx, "alert delivery failed", "error", err)
	}
}

func (o *Orchestrator) snapshot(ctx context.Context, r *run, step progress.Status, data any) {
	if o.d.Snapshots == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		r.log.WarnContext(ctx, "snapshot encode failed", "step", string(step), "error", err)
		return
	}
	now := o.d.Now().UTC()
	err = o.d.Snapshots.Upsert(context.WithoutCancel(ctx), Snapshot{
		SessionID: r.session,
		Step:      step,
		Data:      raw,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		r.log.WarnContext(ctx, "snapshot write failed", "step", string(step), "error", err)
	}
}

func (o *Orchestrator) cancelled(ctx context.Context, r *run, next progress.Status) error {
	select {
	case <-r.ch.Cancelled():
	case <-ctx.Done():
	default:
		return nil
	}
	r.log.InfoContext(ctx, "run cancelled at step boundary", "next_step", string(next))
	return apperr.Wrap(apperr.CodeTimeout, "optimization cancelled", ErrCancelled).WithStep(string(next))
}

func (o *Orchestrator) fail(ctx context.Context, r *run, err error) error {
	ae := apperr.From(err)
	_ = r.ch.Send(progress.Failed(string(ae.Code), ae.Message))
	o.d.Counters.Failed()
	r.log.WarnContext(ctx, "optimization failed", "code", string(ae.Code), "step", ae.Step, "error", ae.Error())
	return ae
}

func (r *run) jobDescription() string {
	if d := strings.TrimSpace(r.req.Job.Description); d != "" {
		return d
	}
	return r.details.Description
}

// mergeAnalysis prefers the optimizer's lists and fills empty ones from the after-score.
func mergeAnalysis(opt optimizer.Analysis, after scoring.Analysis) optimizer.Analysis {
	if len(opt.Strengths) == 0 {
		opt.Strengths = after.Strengths
	}
	if len(opt.Gaps) == 0 {
		opt.Gaps = after.Gaps
	}
	if len(opt.Suggestions) == 0 {
		opt.Suggestions = after.Suggestions
	}
	for _, s := range []*[]string{&opt.Strengths, &opt.Improvements, &opt.Gaps, &opt.Suggestions} {
		if *s == nil {
			*s = []string{}
		}
	}
	return opt
}

// history lists the earlier versions of the owner's lineage plus the new one.
func history(lineage []OptimizedResume, current OptimizedResume) []VersionEntry {
	out := make([]VersionEntry, 0, len(lineage)+1)
	for _, prev := range lineage {
		if prev.UserID != current.UserID || prev.ID == current.ID {
			continue
		}
		out = append(out, VersionEntry{
			Version:   prev.Metadata.Version,
			Metrics:   prev.Metrics,
			Timestamp: prev.Metadata.OptimizedAt,
		})
	}
	out = append(out, VersionEntry{
		Version:   current.Metadata.Version,
		Metrics:   current.Metrics,
		Timestamp: current.Metadata.OptimizedAt,
	})
	sort.SliceStable(out, func(i, j int) bool {
		return version.Parse(out[i].Version) < version.Parse(out[j].Version)
	})
	return out
}
