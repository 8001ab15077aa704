package resume

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/hr-optimizer/pkg/apperr"
	"github.com/artem13815/hr-optimizer/pkg/auth"
)

func docx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	body := `<w:document><w:body>`
	for _, p := range paragraphs {
		body += `<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`
	}
	body += `</w:body></w:document>`
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDetectMIME(t *testing.T) {
	cases := []struct {
		file, declared, want string
		ok                   bool
	}{
		{"cv.pdf", "application/octet-stream", MimePDF, true},
		{"cv.DOCX", "", MimeDOCX, true},
		{"cv.bin", MimePDF + "; charset=binary", MimePDF, true},
		{"cv.txt", "text/plain", "", false},
	}
	for _, tc := range cases {
		got, ok := DetectMIME(tc.file, tc.declared)
		assert.Equal(t, tc.ok, ok, tc.file)
		assert.Equal(t, tc.want, got, tc.file)
	}
}

func TestParseDocumentDocx(t *testing.T) {
	text, err := ParseDocument(docx(t, "Ada Lovelace", "Go &amp; Postgres"), MimeDOCX)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace\nGo & Postgres", text)
}

func TestParseDocumentBroken(t *testing.T) {
	_, err := ParseDocument([]byte("not a zip"), MimeDOCX)
	assert.True(t, apperr.IsCode(err, apperr.CodeParsing))

	_, err = ParseDocument([]byte("x"), "text/plain")
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidInput))
}

type memRepo struct {
	mu     sync.Mutex
	metas  map[uuid.UUID]Resume
	parsed map[uuid.UUID]Parsed
}

func newMemRepo() *memRepo {
	return &memRepo{metas: map[uuid.UUID]Resume{}, parsed: map[uuid.UUID]Parsed{}}
}

func (m *memRepo) Create(_ context.Context, r Resume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metas[r.ID] = r
	return nil
}

func (m *memRepo) SaveParsed(_ context.Context, p Parsed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parsed[p.ResumeID] = p
	return nil
}

func (m *memRepo) GetParsed(_ context.Context, id uuid.UUID) (Parsed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parsed[id]
	if !ok {
		return Parsed{}, apperr.NotFound("parsed resume")
	}
	return p, nil
}

func (m *memRepo) GetMeta(_ context.Context, id uuid.UUID) (Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.metas[id]
	if !ok {
		return Resume{}, apperr.NotFound("resume")
	}
	return r, nil
}

func (m *memRepo) ListByOwner(_ context.Context, owner uuid.UUID, _, _ int) ([]Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Resume
	for _, r := range m.metas {
		if r.OwnerID == owner {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID) (Resume, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.metas[id]
	if !ok {
		return Resume{}, apperr.NotFound("resume")
	}
	delete(m.metas, id)
	delete(m.parsed, id)
	return r, nil
}

func TestUploadGetDelete(t *testing.T) {
	repo := newMemRepo()
	uc := NewService(repo, auth.OwnerOnly{}, t.TempDir())
	ctx := context.Background()
	owner := uuid.New()

	meta, err := uc.Upload(ctx, owner, "cv.docx", "application/octet-stream", docx(t, "Senior Go engineer"))
	require.NoError(t, err)
	assert.Equal(t, MimeDOCX, meta.MimeType)
	_, err = os.Stat(meta.StorageURI)
	require.NoError(t, err)

	got, parsed, err := uc.Get(ctx, owner, meta.ID)
	require.NoError(t, err)
	assert.Equal(t, meta.ID, got.ID)
	assert.Equal(t, "Senior Go engineer", parsed.Text)

	_, _, err = uc.Get(ctx, uuid.New(), meta.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthorized))

	require.NoError(t, uc.Delete(ctx, owner, meta.ID))
	_, err = os.Stat(meta.StorageURI)
	assert.True(t, os.IsNotExist(err))

	err = uc.Delete(ctx, owner, meta.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestUploadRejects(t *testing.T) {
	uc := NewService(newMemRepo(), auth.OwnerOnly{}, t.TempDir())
	ctx := context.Background()

	_, err := uc.Upload(ctx, uuid.Nil, "cv.docx", "", docx(t, "x"))
	assert.True(t, apperr.IsCode(err, apperr.CodeAuth))

	_, err = uc.Upload(ctx, uuid.New(), "cv.txt", "text/plain", []byte("hello"))
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidInput))

	_, err = uc.Upload(ctx, uuid.New(), "empty.docx", "", docx(t))
	assert.True(t, apperr.IsCode(err, apperr.CodeParsing))
}

func TestListNeverNil(t *testing.T) {
	uc := NewService(newMemRepo(), auth.OwnerOnly{}, t.TempDir())
	items, err := uc.List(context.Background(), uuid.New(), 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

type scriptedModel struct {
	reply string
	err   error
	delay time.Duration
}

func (m scriptedModel) Ask(ctx context.Context, _, _ string) (string, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.reply, m.err
}

func TestContentParserFillsDefaults(t *testing.T) {
	reply := "```json\n" + `{"contactInfo":{"fullName":"Ada Lovelace","email":"ada@example.com"},"professionalSummary":"Engineer","skills":{"technical":["Go"]},"experience":[{"title":"Engineer","company":"Analytical","startDate":"2020"}]}` + "\n```"
	p := NewContentParser(scriptedModel{reply: reply}, time.Second)

	c, err := p.Parse(context.Background(), "Ada Lovelace, Go engineer")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", c.ContactInfo.FullName)
	assert.Equal(t, []string{"Go"}, c.Skills.Technical)
	assert.NotNil(t, c.Skills.Soft)
	assert.NotNil(t, c.Experience[0].Achievements)
	assert.NotNil(t, c.Publications)
}

func TestContentParserErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewContentParser(scriptedModel{reply: "{}"}, time.Second).Parse(ctx, "   ")
	assert.True(t, apperr.IsCode(err, apperr.CodeParsing))

	_, err = NewContentParser(scriptedModel{reply: "not json"}, time.Second).Parse(ctx, "text")
	assert.True(t, apperr.IsCode(err, apperr.CodeParsing))

	_, err = NewContentParser(scriptedModel{reply: "{}", delay: time.Second}, 20*time.Millisecond).Parse(ctx, "text")
	assert.True(t, apperr.IsCode(err, apperr.CodeParsingTimeout))
}
