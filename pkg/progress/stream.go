package progress

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/artem13815/hr-optimizer/pkg/apperr"
)

// ErrClosed is returned by Send once the stream is closed.
var ErrClosed = errors.New("progress stream closed")

// FlushWriter is what the transport hands us; *bufio.Writer satisfies it.
type FlushWriter interface {
	io.Writer
	Flush() error
}

type Options struct {
	Heartbeat   time.Duration
	MaxLifetime time.Duration
	Logger      *slog.Logger
}

// Stream writes events as Server-Sent Events frames ("data: <json>\n\n").
// All writes are serialised; the heartbeat runs on its own goroutine.
type Stream struct {
	mu       sync.Mutex
	w        FlushWriter
	closed   bool
	terminal bool

	cancelled  chan struct{}
	cancelOnce sync.Once
	done       chan struct{}
	doneOnce   sync.Once

	opts Options
	now  func() time.Time
}

// NewStream starts heartbeat and lifetime timers; call Close when the run ends.
func NewStream(w FlushWriter, opts Options) *Stream {
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 20 * time.Second
	}
	if opts.MaxLifetime <= 0 {
		opts.MaxLifetime = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Stream{
		w:         w,
		cancelled: make(chan struct{}),
		done:      make(chan struct{}),
		opts:      opts,
		now:       time.Now,
	}
	go s.keepAlive()
	return s
}

func (s *Stream) Send(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.terminal {
		return ErrClosed
	}
	if err := s.write(ev); err != nil {
		return err
	}
	if ev.Status.Terminal() {
		s.terminal = true
	}
	return nil
}

// Close stops the timers. The underlying writer is not touched afterwards.
func (s *Stream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Stream) Cancelled() <-chan struct{} { return s.cancelled }

// Done is closed once the stream is closed for any reason.
func (s *Stream) Done() <-chan struct{} { return s.done }

// write must be called with mu held.
func (s *Stream) write(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	frame := make([]byte, 0, len(payload)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, payload...)
	frame = append(frame, "\n\n"...)
	if _, err := s.w.Write(frame); err != nil {
		s.disconnected(err)
		return err
	}
	if err := s.w.Flush(); err != nil {
		s.disconnected(err)
		return err
	}
	return nil
}

// disconnected must be called with mu held.
func (s *Stream) disconnected(err error) {
	s.opts.Logger.Info("progress stream client disconnected", "error", err)
	s.closed = true
	s.cancel()
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Stream) cancel() {
	s.cancelOnce.Do(func() { close(s.cancelled) })
}

func (s *Stream) keepAlive() {
	ticker := time.NewTicker(s.opts.Heartbeat)
	defer ticker.Stop()
	deadline := time.NewTimer(s.opts.MaxLifetime)
	defer deadline.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			if !s.closed && !s.terminal {
				_ = s.write(Heartbeat(s.now()))
			}
			s.mu.Unlock()
		case <-deadline.C:
			s.expire()
			return
		}
	}
}

// expire enforces the absolute lifetime cap.
func (s *Stream) expire() {
	s.mu.Lock()
	if !s.closed && !s.terminal {
		s.opts.Logger.Warn("progress stream hit lifetime cap", "max_lifetime", s.opts.MaxLifetime.String())
		_ = s.write(Failed(string(apperr.CodeTimeout), "optimization exceeded the maximum stream lifetime"))
		s.terminal = true
	}
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.doneOnce.Do(func() { close(s.done) })
}
