package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/hr-optimizer/api/http/presenter"
	"github.com/artem13815/hr-optimizer/pkg/alert"
	"github.com/artem13815/hr-optimizer/pkg/apperr"
	"github.com/artem13815/hr-optimizer/pkg/auth"
	"github.com/artem13815/hr-optimizer/pkg/coverletter"
	"github.com/artem13815/hr-optimizer/pkg/health"
	"github.com/artem13815/hr-optimizer/pkg/optimization"
	"github.com/artem13815/hr-optimizer/pkg/progress"
	"github.com/artem13815/hr-optimizer/pkg/render"
	"github.com/artem13815/hr-optimizer/pkg/resume"
	"github.com/artem13815/hr-optimizer/pkg/security/jwt"
)

var testUser = uuid.MustParse("8a5b1f3e-2c4d-4e6f-8a9b-0c1d2e3f4a5b")

// fakeOptimizations keeps optimized resumes in a map owned by testUser.
type fakeOptimizations struct {
	mu       sync.Mutex
	items    map[uuid.UUID]optimization.OptimizedResume
	events   []progress.Event
	lastReq  optimization.Request
	optimize error
}

func newFakeOptimizations() *fakeOptimizations {
	return &fakeOptimizations{items: map[uuid.UUID]optimization.OptimizedResume{}}
}

func (f *fakeOptimizations) Optimize(_ context.Context, req optimization.Request, ch progress.Channel) (optimization.OptimizedResume, error) {
	f.mu.Lock()
	f.lastReq = req
	f.mu.Unlock()
	if f.optimize != nil {
		e := apperr.From(f.optimize)
		_ = ch.Send(progress.Failed(string(e.Code), e.Message))
		return optimization.OptimizedResume{}, f.optimize
	}
	for _, ev := range f.events {
		_ = ch.Send(ev)
	}
	return optimization.OptimizedResume{}, nil
}

func (f *fakeOptimizations) owned(userID, id uuid.UUID) (optimization.OptimizedResume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	or, ok := f.items[id]
	if !ok {
		return or, apperr.NotFound("optimized resume")
	}
	if or.UserID != userID {
		return or, apperr.Forbidden("optimized resume")
	}
	return or, nil
}

func (f *fakeOptimizations) AnalyzeExisting(_ context.Context, userID, id uuid.UUID) (optimization.Report, error) {
	or, err := f.owned(userID, id)
	if err != nil {
		return optimization.Report{}, err
	}
	return optimization.Report{Before: or.Metrics.Before, After: or.Metrics.After}, nil
}

func (f *fakeOptimizations) Get(_ context.Context, userID, id uuid.UUID) (optimization.OptimizedResume, error) {
	return f.owned(userID, id)
}

func (f *fakeOptimizations) List(_ context.Context, userID uuid.UUID, _, _ int) ([]optimization.OptimizedResume, error) {
	return nil, nil
}

func (f *fakeOptimizations) GetVersion(_ context.Context, userID, id uuid.UUID, ver string) (optimization.OptimizedResume, error) {
	or, err := f.owned(userID, id)
	if err != nil {
		return or, err
	}
	if or.Metadata.Version != ver {
		return optimization.OptimizedResume{}, apperr.NotFound("version " + ver)
	}
	return or, nil
}

func (f *fakeOptimizations) Download(_ context.Context, userID, id uuid.UUID, format string) (render.File, error) {
	if _, err := f.owned(userID, id); err != nil {
		return render.File{}, err
	}
	ff, err := render.ParseFormat(format)
	if err != nil {
		return render.File{}, err
	}
	return render.File{Name: "cv-optimized-v1.0." + string(ff), ContentType: ff.ContentType(), Data: []byte("%PDF-1.4")}, nil
}

func (f *fakeOptimizations) Delete(_ context.Context, userID, id uuid.UUID) error {
	if _, err := f.owned(userID, id); err != nil {
		return err
	}
	f.mu.Lock()
	delete(f.items, id)
	f.mu.Unlock()
	return nil
}

type fakeLetters struct {
	coverletter.UseCase
	gotVersion string
}

func (f *fakeLetters) Generate(_ context.Context, userID, orID uuid.UUID, ver string) (coverletter.CoverLetter, error) {
	f.gotVersion = ver
	return coverletter.CoverLetter{ID: uuid.New(), UserID: userID, OptimizedResumeID: orID, Version: "1.0", Content: "Dear team"}, nil
}

func (f *fakeLetters) Get(_ context.Context, _, _ uuid.UUID) (coverletter.CoverLetter, error) {
	return coverletter.CoverLetter{}, apperr.NotFound("cover letter")
}

type fakeReadiness struct{ err error }

func (f fakeReadiness) Ready(context.Context) (health.Report, error) {
	if f.err != nil {
		return health.Report{Status: "unavailable", Dependencies: map[string]string{"postgres": f.err.Error()}}, f.err
	}
	return health.Report{Status: "ok", Dependencies: map[string]string{"postgres": "ok"}}, nil
}

type fakeAuth struct{ err error }

func (f fakeAuth) Register(_ context.Context, email, _ string) (auth.AuthResult, error) {
	if f.err != nil {
		return auth.AuthResult{}, f.err
	}
	return auth.AuthResult{User: auth.User{ID: testUser, Email: email}, Token: "t"}, nil
}

func (f fakeAuth) Login(context.Context, string, string) (auth.AuthResult, error) {
	return auth.AuthResult{}, auth.ErrInvalidCredentials
}

type fakeResumes struct{ resume.UseCase }

func asUser(id uuid.UUID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(jwt.LocalsUserID, id)
		return c.Next()
	}
}

func newTestApp(opt *fakeOptimizations, letters *fakeLetters) *fiber.App {
	app := fiber.New()
	app.Use(asUser(testUser))
	oh := NewOptimizationsHandler(opt, time.Hour, time.Minute)
	app.Post("/optimizations", oh.Start)
	h := NewOptimizedResumesHandler(opt, letters)
	app.Get("/optimized-resumes/:id", h.Get)
	app.Post("/optimized-resumes/:id/analyze", h.Analyze)
	app.Post("/optimized-resumes/:id/cover-letter", h.CoverLetter)
	app.Get("/optimized-resumes/:id/versions/:version", h.GetVersion)
	app.Get("/optimized-resumes/:id/download", h.Download)
	app.Delete("/optimized-resumes/:id", h.Delete)
	cl := NewCoverLettersHandler(letters)
	app.Get("/cover-letters/:id", cl.Get)
	rh := NewResumesHandler(fakeResumes{})
	app.Post("/resumes", rh.Upload)
	return app
}

func decodeError(t *testing.T, resp *http.Response) presenter.ErrorResponse {
	t.Helper()
	var body presenter.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func seed(opt *fakeOptimizations, owner uuid.UUID) uuid.UUID {
	id := uuid.New()
	opt.items[id] = optimization.OptimizedResume{ID: id, UserID: owner, Metadata: optimization.Metadata{Version: "1.0"}}
	return id
}

func TestOptimizedGetMapsErrorCodes(t *testing.T) {
	opt := newFakeOptimizations()
	app := newTestApp(opt, &fakeLetters{})
	foreign := seed(opt, uuid.New())

	cases := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"bad id", "/optimized-resumes/not-a-uuid", http.StatusBadRequest, "INVALID_INPUT"},
		{"missing", "/optimized-resumes/" + uuid.NewString(), http.StatusNotFound, "NOT_FOUND"},
		{"foreign", "/optimized-resumes/" + foreign.String(), http.StatusForbidden, "UNAUTHORIZED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tc.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, tc.code, decodeError(t, resp).Code)
		})
	}
}

func TestDownloadSetsAttachmentHeaders(t *testing.T) {
	opt := newFakeOptimizations()
	app := newTestApp(opt, &fakeLetters{})
	id := seed(opt, testUser)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/optimized-resumes/"+id.String()+"/download?format=pdf", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `attachment; filename="cv-optimized-v1.0.pdf"`)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/optimized-resumes/"+id.String()+"/download?format=txt", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDownloadForeignRecordIsForbiddenWhateverTheFormat(t *testing.T) {
	opt := newFakeOptimizations()
	app := newTestApp(opt, &fakeLetters{})
	foreign := seed(opt, uuid.New())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/optimized-resumes/"+foreign.String()+"/download?format=txt", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDeleteTwiceReturnsNotFound(t *testing.T) {
	opt := newFakeOptimizations()
	app := newTestApp(opt, &fakeLetters{})
	id := seed(opt, testUser)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/optimized-resumes/"+id.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/optimized-resumes/"+id.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetVersion(t *testing.T) {
	opt := newFakeOptimizations()
	app := newTestApp(opt, &fakeLetters{})
	id := seed(opt, testUser)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/optimized-resumes/"+id.String()+"/versions/1.0", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/optimized-resumes/"+id.String()+"/versions/9.9", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCoverLetterGenerate(t *testing.T) {
	opt := newFakeOptimizations()
	letters := &fakeLetters{}
	app := newTestApp(opt, letters)
	id := seed(opt, testUser)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/optimized-resumes/"+id.String()+"/cover-letter", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Empty(t, letters.gotVersion)

	req := httptest.NewRequest(http.MethodPost, "/optimized-resumes/"+id.String()+"/cover-letter", strings.NewReader(`{"version":" 1.0 "}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "1.0", letters.gotVersion)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/cover-letters/"+uuid.NewString(), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func startRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/optimizations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func readEvents(t *testing.T, r io.Reader) []progress.Event {
	t.Helper()
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	var out []progress.Event
	for _, frame := range strings.Split(string(raw), "\n\n") {
		if frame == "" {
			continue
		}
		var ev progress.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &ev))
		out = append(out, ev)
	}
	return out
}

func TestStartStreamsEvents(t *testing.T) {
	opt := newFakeOptimizations()
	opt.events = []progress.Event{
		progress.Step(progress.StatusStarted, "Optimization started"),
		progress.Step(progress.StatusOptimizingResume, "Optimizing resume"),
		progress.Completed(map[string]string{"id": "x"}, ""),
	}
	app := newTestApp(opt, &fakeLetters{})
	rid := uuid.New()

	resp, err := app.Test(startRequest(`{"uploadedResumeId":"`+rid.String()+`","jobDescription":"Go engineer"}`), 5000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	evs := readEvents(t, resp.Body)
	require.Len(t, evs, 3)
	assert.Equal(t, progress.StatusStarted, evs[0].Status)
	assert.Equal(t, progress.StatusCompleted, evs[2].Status)
	assert.Equal(t, rid, opt.lastReq.UploadedResumeID)
	assert.Equal(t, testUser, opt.lastReq.UserID)
	assert.Equal(t, "Go engineer", opt.lastReq.Job.Description)
}

func TestStartErrorsArriveAsEvents(t *testing.T) {
	opt := newFakeOptimizations()
	opt.optimize = apperr.New(apperr.CodeMissingJobInfo, "either a job URL or a job description is required")
	app := newTestApp(opt, &fakeLetters{})

	resp, err := app.Test(startRequest(`{"uploadedResumeId":"`+uuid.NewString()+`"}`), 5000)
	require.NoError(t, err)
	evs := readEvents(t, resp.Body)
	require.Len(t, evs, 1)
	assert.Equal(t, progress.StatusError, evs[0].Status)
	assert.Equal(t, "MISSING_JOB_INFO", evs[0].Code)
}

func TestStartRejectsBadResumeID(t *testing.T) {
	app := newTestApp(newFakeOptimizations(), &fakeLetters{})

	resp, err := app.Test(startRequest(`{"uploadedResumeId":"nope","jobDescription":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadRequiresFile(t *testing.T) {
	app := newTestApp(newFakeOptimizations(), &fakeLetters{})

	req := httptest.NewRequest(http.MethodPost, "/resumes", bytes.NewReader(nil))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthHandlers(t *testing.T) {
	counters := &alert.Counters{}
	counters.Unpersisted()
	counters.Completed()

	app := fiber.New()
	down := NewHealthHandler(fakeReadiness{err: errors.New("connection refused")}, counters)
	app.Get("/ready", down.Ready)
	app.Get("/metrics/pipeline", down.Pipeline)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var rep health.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rep))
	assert.Equal(t, "connection refused", rep.Dependencies["postgres"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics/pipeline", nil))
	require.NoError(t, err)
	var snap alert.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, int64(1), snap.UnpersistedRuns)
	assert.Equal(t, int64(1), snap.CompletedRuns)
}

func TestRegisterErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"weak", auth.ErrWeakPassword, http.StatusBadRequest},
		{"duplicate", auth.ErrUserAlreadyExists, http.StatusConflict},
		{"storage", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Post("/register", NewAuthHandler(fakeAuth{err: tc.err}).Register)
			req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"email":"a@b.c","password":"x"}`))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	app := fiber.New()
	app.Post("/login", NewAuthHandler(fakeAuth{}).Login)
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"a@b.c","password":"whatever"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
