package optimization

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/artem13815/hr-optimizer/pkg/alert"
	"github.com/artem13815/hr-optimizer/pkg/apperr"
	"github.com/artem13815/hr-optimizer/pkg/jobdetails"
	"github.com/artem13815/hr-optimizer/pkg/optimizer"
	"github.com/artem13815/hr-optimizer/pkg/progress"
	"github.com/artem13815/hr-optimizer/pkg/resume"
	"github.com/artem13815/hr-optimizer/pkg/scoring"
	"github.com/artem13815/hr-optimizer/pkg/version"
)

const resumeText = "Jane Doe\njane@example.com\nGo developer with five years of PostgreSQL and REST API experience."

var optimizedText = "OPTIMIZED\nSUMMARY\n" + strings.Repeat("Go engineer experienced with Kubernetes, PostgreSQL and distributed systems. ", 3)

type memUploads struct {
	mu      sync.Mutex
	meta    map[uuid.UUID]resume.Resume
	parsed  map[uuid.UUID]resume.Parsed
	lookups atomic.Int32
}

func newMemUploads() *memUploads {
	return &memUploads{meta: map[uuid.UUID]resume.Resume{}, parsed: map[uuid.UUID]resume.Parsed{}}
}

func (m *memUploads) add(owner uuid.UUID, text string) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.meta[id] = resume.Resume{ID: id, OwnerID: owner, Filename: "jane.pdf"}
	m.parsed[id] = resume.Parsed{ResumeID: id, Text: text}
	return id
}

func (m *memUploads) remove(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.meta, id)
	delete(m.parsed, id)
}

func (m *memUploads) GetMeta(_ context.Context, id uuid.UUID) (resume.Resume, error) {
	m.lookups.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.meta[id]
	if !ok {
		return resume.Resume{}, apperr.NotFound("resume")
	}
	return r, nil
}

func (m *memUploads) GetParsed(_ context.Context, id uuid.UUID) (resume.Parsed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parsed[id]
	if !ok {
		return resume.Parsed{}, apperr.NotFound("parsed resume")
	}
	return p, nil
}

type memRepo struct {
	mu        sync.Mutex
	items     map[uuid.UUID]OptimizedResume
	createErr error
}

func newMemRepo() *memRepo { return &memRepo{items: map[uuid.UUID]OptimizedResume{}} }

func (m *memRepo) Create(_ context.Context, r OptimizedResume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.items[r.ID] = r
	return nil
}

func (m *memRepo) Get(_ context.Context, id uuid.UUID) (OptimizedResume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return OptimizedResume{}, apperr.NotFound("optimized resume")
	}
	return r, nil
}

func (m *memRepo) ListByUser(_ context.Context, userID uuid.UUID, _, _ int) ([]OptimizedResume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []OptimizedResume
	for _, r := range m.items {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) ListLineage(_ context.Context, uploadedID uuid.UUID) ([]OptimizedResume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []OptimizedResume
	for _, r := range m.items {
		if r.UploadedResumeID == uploadedID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return version.Parse(out[i].Metadata.Version) < version.Parse(out[j].Metadata.Version)
	})
	return out, nil
}

func (m *memRepo) Update(_ context.Context, r OptimizedResume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[r.ID]; !ok {
		return apperr.NotFound("optimized resume")
	}
	m.items[r.ID] = r
	return nil
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return apperr.NotFound("optimized resume")
	}
	delete(m.items, id)
	return nil
}

type memSnapshots struct {
	mu    sync.Mutex
	items map[string]Snapshot
	err   error
}

func (m *memSnapshots) Upsert(_ context.Context, s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.items == nil {
		m.items = map[string]Snapshot{}
	}
	m.items[s.SessionID.String()+"/"+string(s.Step)] = s
	return nil
}

func (m *memSnapshots) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

func (m *memSnapshots) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type fakeResolver struct {
	calls atomic.Int32
	err   error
}

func (f *fakeResolver) Resolve(_ context.Context, in jobdetails.Input) (jobdetails.JobDetails, error) {
	f.calls.Add(1)
	if f.err != nil {
		return jobdetails.JobDetails{}, f.err
	}
	desc := in.Description
	if desc == "" {
		desc = "Backend engineer with Go and Kubernetes"
	}
	return jobdetails.JobDetails{
		Title:          "Backend Engineer",
		Company:        "Acme",
		Description:    desc,
		PositionLevel:  jobdetails.LevelSenior,
		SkillsAndTools: []string{"Go", "Kubernetes"},
	}, nil
}

type fakeParser struct {
	calls   atomic.Int32
	err     error
	onParse func()
}

func (f *fakeParser) Parse(context.Context, string) (resume.Content, error) {
	f.calls.Add(1)
	if f.onParse != nil {
		f.onParse()
	}
	if f.err != nil {
		return resume.Content{}, f.err
	}
	c := resume.Content{ContactInfo: resume.ContactInfo{FullName: "Jane Doe", Email: "jane@example.com"}}
	return c.Normalize(), nil
}

type fakeAnalyzer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeAnalyzer) Analyze(context.Context, jobdetails.JobDetails, string) (jobdetails.Analysis, error) {
	f.calls.Add(1)
	if f.err != nil {
		return jobdetails.Analysis{}, f.err
	}
	return jobdetails.Analysis{MatchedSkills: []string{"Go"}, MissingSkills: []string{"Kubernetes"}, Summary: "Go backend"}, nil
}

type fakeScorer struct {
	calls atomic.Int32
	zero  bool
	// zeroOptimized degrades only the optimized text.
	zeroOptimized bool
}

func (f *fakeScorer) Score(_ context.Context, text, _ string) scoring.Result {
	f.calls.Add(1)
	if f.zero || (f.zeroOptimized && strings.HasPrefix(text, "OPTIMIZED")) {
		return scoring.Zero()
	}
	overall := 40
	if strings.HasPrefix(text, "OPTIMIZED") {
		overall = 85
	}
	r := scoring.Zero()
	r.Score = scoring.MatchScore{Overall: overall, Keywords: overall, Confidence: 70}
	r.Analysis.Strengths = []string{"Go"}
	return r
}

// fakeOptimizer returns errs[i] on the i-th call while errs lasts, then succeeds.
type fakeOptimizer struct {
	mu    sync.Mutex
	calls int
	errs  []error
}

func (f *fakeOptimizer) Optimize(_ context.Context, in optimizer.Input) (optimizer.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= len(f.errs) && f.errs[f.calls-1] != nil {
		return optimizer.Result{}, f.errs[f.calls-1]
	}
	content := in.Original
	return optimizer.Result{
		OptimizedContent: optimizedText,
		Changes:          []string{"Highlighted Kubernetes"},
		ResumeContent:    content,
		Analysis:         optimizer.Analysis{Improvements: []string{"Reordered skills"}},
	}, nil
}

func (f *fakeOptimizer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type failingLedger struct{}

func (failingLedger) Next(context.Context, string) (int64, error) {
	return 0, errors.New("redis: connection refused")
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []alert.Alert
}

func (r *recordingNotifier) Notify(_ context.Context, a alert.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
	return nil
}

// slowNotifier stands in for an operator channel that takes its time.
type slowNotifier struct {
	delay time.Duration
	ch    *recorder

	mu            sync.Mutex
	calls         int
	sawCompleted  bool
	deadlineIsSet bool
}

func (n *slowNotifier) Notify(ctx context.Context, _ alert.Alert) error {
	n.mu.Lock()
	n.calls++
	if n.ch != nil {
		n.sawCompleted = n.ch.last().Status == progress.StatusCompleted
	}
	_, n.deadlineIsSet = ctx.Deadline()
	n.mu.Unlock()
	select {
	case <-time.After(n.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// recorder is an in-memory progress.Channel.
type recorder struct {
	mu       sync.Mutex
	events   []progress.Event
	terminal bool
	cancel   chan struct{}
	once     sync.Once
}

func newRecorder() *recorder { return &recorder{cancel: make(chan struct{})} }

func (r *recorder) Send(ev progress.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.terminal {
		return progress.ErrClosed
	}
	r.events = append(r.events, ev)
	r.terminal = ev.Status.Terminal()
	return nil
}

func (r *recorder) Close() {}

func (r *recorder) Cancelled() <-chan struct{} { return r.cancel }

func (r *recorder) disconnect() { r.once.Do(func() { close(r.cancel) }) }

func (r *recorder) statuses() []progress.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]progress.Status, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Status)
	}
	return out
}

func (r *recorder) last() progress.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type harness struct {
	owner     uuid.UUID
	uploads   *memUploads
	repo      *memRepo
	snapshots *memSnapshots
	resolver  *fakeResolver
	parser    *fakeParser
	analyzer  *fakeAnalyzer
	scorer    *fakeScorer
	optimizer *fakeOptimizer
	notifier  *recordingNotifier
	counters  *alert.Counters
	deps      Deps
}

func newHarness() *harness {
	h := &harness{
		owner:     uuid.New(),
		uploads:   newMemUploads(),
		repo:      newMemRepo(),
		snapshots: &memSnapshots{},
		resolver:  &fakeResolver{},
		parser:    &fakeParser{},
		analyzer:  &fakeAnalyzer{},
		scorer:    &fakeScorer{},
		optimizer: &fakeOptimizer{},
		notifier:  &recordingNotifier{},
		counters:  &alert.Counters{},
	}
	h.deps = Deps{
		Resumes:   h.uploads,
		Repo:      h.repo,
		Snapshots: h.snapshots,
		Resolver:  h.resolver,
		Parser:    h.parser,
		Analyzer:  h.analyzer,
		Scorer:    h.scorer,
		Optimizer: h.optimizer,
		Ledger:    version.NewMemoryLedger(),
		Alerts:    h.notifier,
		Counters:  h.counters,
		Now:       func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) },
	}
	return h
}

func (h *harness) request(uploadID uuid.UUID) Request {
	return Request{
		UserID:           h.owner,
		UploadedResumeID: uploadID,
		Job:              jobdetails.Input{Description: "Backend engineer with Go and Kubernetes"},
	}
}
