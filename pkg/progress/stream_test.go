package progress

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	failing bool
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing {
		return 0, errors.New("broken pipe")
	}
	return b.buf.Write(p)
}

func (b *syncBuffer) Flush() error { return nil }

func (b *syncBuffer) fail() {
	b.mu.Lock()
	b.failing = true
	b.mu.Unlock()
}

func (b *syncBuffer) events(t *testing.T) []Event {
	t.Helper()
	b.mu.Lock()
	raw := b.buf.String()
	b.mu.Unlock()
	var out []Event
	for _, frame := range strings.Split(raw, "\n\n") {
		if frame == "" {
			continue
		}
		require.True(t, strings.HasPrefix(frame, "data: "), frame)
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &ev))
		out = append(out, ev)
	}
	return out
}

func TestSendWritesFramesAndStopsAfterTerminal(t *testing.T) {
	buf := &syncBuffer{}
	s := NewStream(buf, Options{Heartbeat: time.Hour, MaxLifetime: time.Hour})
	defer s.Close()

	require.NoError(t, s.Send(Step(StatusStarted, "")))
	require.NoError(t, s.Send(Failed("NOT_FOUND", "resume not found")))
	assert.ErrorIs(t, s.Send(Step(StatusParsingResume, "")), ErrClosed)

	evs := buf.events(t)
	require.Len(t, evs, 2)
	assert.Equal(t, StatusStarted, evs[0].Status)
	assert.Equal(t, StatusError, evs[1].Status)
	assert.Equal(t, "NOT_FOUND", evs[1].Code)
}

func TestHeartbeat(t *testing.T) {
	buf := &syncBuffer{}
	s := NewStream(buf, Options{Heartbeat: 10 * time.Millisecond, MaxLifetime: time.Hour})
	defer s.Close()

	assert.Eventually(t, func() bool {
		for _, ev := range buf.events(t) {
			if ev.Type == "heartbeat" && ev.Timestamp > 0 {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestLifetimeCapEmitsTimeoutAndCancels(t *testing.T) {
	buf := &syncBuffer{}
	s := NewStream(buf, Options{Heartbeat: time.Hour, MaxLifetime: 20 * time.Millisecond})
	require.NoError(t, s.Send(Step(StatusStarted, "")))

	select {
	case <-s.Cancelled():
	case <-time.After(time.Second):
		t.Fatal("stream was not cancelled at its lifetime cap")
	}
	<-s.Done()

	evs := buf.events(t)
	last := evs[len(evs)-1]
	assert.Equal(t, StatusError, last.Status)
	assert.Equal(t, "TIMEOUT_ERROR", last.Code)
	assert.ErrorIs(t, s.Send(Step(StatusParsingResume, "")), ErrClosed)
}

func TestLifetimeCapAfterCompletionIsSilent(t *testing.T) {
	buf := &syncBuffer{}
	s := NewStream(buf, Options{Heartbeat: time.Hour, MaxLifetime: 20 * time.Millisecond})
	require.NoError(t, s.Send(Completed(map[string]string{"id": "x"}, "")))

	<-s.Done()

	evs := buf.events(t)
	require.Len(t, evs, 1)
	assert.Equal(t, StatusCompleted, evs[0].Status)
}

func TestWriteFailureSignalsCancellation(t *testing.T) {
	buf := &syncBuffer{}
	s := NewStream(buf, Options{Heartbeat: time.Hour, MaxLifetime: time.Hour})
	defer s.Close()

	buf.fail()
	assert.Error(t, s.Send(Step(StatusStarted, "")))

	select {
	case <-s.Cancelled():
	default:
		t.Fatal("disconnect did not cancel the stream")
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusError.Terminal())
	assert.False(t, StatusOptimizingResume.Terminal())
}
