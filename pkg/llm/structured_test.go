package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Title  string   `json:"title"`
	Skills []string `json:"skills"`
}

var payloadSchema = MustSchema(`{
  "type": "object",
  "required": ["title"],
  "properties": {
    "title": {"type": "string"},
    "skills": {"type": "array", "items": {"type": "string"}}
  }
}`)

type stubModel struct {
	reply string
	err   error
	delay time.Duration
	calls int
}

func (s *stubModel) Ask(ctx context.Context, _, _ string) (string, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.reply, s.err
}

// blockingModel never returns on its own and ignores ctx.
type blockingModel struct{ release chan struct{} }

func (b blockingModel) Ask(context.Context, string, string) (string, error) {
	<-b.release
	return "{}", nil
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		malformed bool
		title     string
	}{
		{name: "plain", raw: `{"title":"Go Engineer","skills":["go"]}`, title: "Go Engineer"},
		{name: "fenced", raw: "```json\n{\"title\":\"SRE\"}\n```", title: "SRE"},
		{name: "chatter around", raw: "Sure! Here it is: {\"title\":\"QA\"} hope it helps", title: "QA"},
		{name: "no json", raw: "I cannot help with that", malformed: true},
		{name: "broken json", raw: `{"title": "x",}`, malformed: true},
		{name: "schema violation", raw: `{"skills":["go"]}`, malformed: true},
		{name: "wrong type", raw: `{"title": 12}`, malformed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Decode[payload](tt.raw, payloadSchema)
			assert.Equal(t, tt.malformed, res.Malformed, res.Reason)
			assert.Equal(t, tt.raw, res.Raw)
			if !tt.malformed {
				assert.Equal(t, tt.title, res.Value.Title)
			}
		})
	}
}

func TestGenerateStructuredTransportError(t *testing.T) {
	boom := errors.New("502 bad gateway")
	_, err := GenerateStructured[payload](context.Background(), &stubModel{err: boom}, time.Second, "", "", payloadSchema)
	assert.ErrorIs(t, err, boom)
}

func TestAskWithTimeoutEnforcedWhenModelIgnoresContext(t *testing.T) {
	m := blockingModel{release: make(chan struct{})}
	defer close(m.release)

	start := time.Now()
	_, err := AskWithTimeout(context.Background(), m, 30*time.Millisecond, "", "")

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAskWithTimeoutDetachedFromParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	m := &stubModel{reply: "ok", delay: 10 * time.Millisecond}
	out, err := AskWithTimeout(parent, m, time.Second, "", "")

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestAskWithTimeoutNilModel(t *testing.T) {
	_, err := AskWithTimeout(context.Background(), nil, time.Second, "", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCleanResponse(t *testing.T) {
	assert.Equal(t, `{"a":1}`, CleanResponse("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, CleanResponse("```{\"a\":1}```"))
	assert.Equal(t, "plain", CleanResponse("  plain  "))
}
