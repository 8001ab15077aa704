package progress

import "time"

// Status of a pipeline event. Step statuses come in a fixed order.
type Status string

const (
	StatusStarted              Status = "started"
	StatusExtractingDetails    Status = "extracting_details"
	StatusParsingResume        Status = "parsing_resume"
	StatusAnalyzingDescription Status = "analyzing_description"
	StatusOptimizingResume     Status = "optimizing_resume"
	StatusCalculatingMetrics   Status = "calculating_metrics"
	StatusCompleted            Status = "completed"
	StatusError                Status = "error"
)

// Terminal reports whether no event may follow s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Event is one frame on the stream. Heartbeats carry Type+Timestamp only.
type Event struct {
	Status          Status `json:"status,omitempty"`
	Message         string `json:"message,omitempty"`
	Code            string `json:"code,omitempty"`
	OptimizedResume any    `json:"optimizedResume,omitempty"`
	Warning         string `json:"warning,omitempty"`
	Type            string `json:"type,omitempty"`
	Timestamp       int64  `json:"timestamp,omitempty"`
}

func Step(status Status, message string) Event {
	return Event{Status: status, Message: message}
}

func Completed(result any, warning string) Event {
	return Event{Status: StatusCompleted, OptimizedResume: result, Warning: warning}
}

func Failed(code, message string) Event {
	return Event{Status: StatusError, Code: code, Message: message}
}

func Heartbeat(now time.Time) Event {
	return Event{Type: "heartbeat", Timestamp: now.UnixMilli()}
}

// Channel is the server-push side of a pipeline run.
type Channel interface {
	// Send writes one event. After a terminal event or Close it is a no-op.
	Send(ev Event) error
	Close()
	// Cancelled is closed when the client went away or the stream hit its lifetime cap.
	Cancelled() <-chan struct{}
}
