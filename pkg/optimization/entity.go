package optimization

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/artem13815/hr-optimizer/pkg/jobdetails"
	"github.com/artem13815/hr-optimizer/pkg/optimizer"
	"github.com/artem13815/hr-optimizer/pkg/progress"
	"github.com/artem13815/hr-optimizer/pkg/resume"
	"github.com/artem13815/hr-optimizer/pkg/scoring"
)

// WarningPersistenceFailed is set on a completed run whose result was not stored.
const WarningPersistenceFailed = "PERSISTENCE_FAILED"

type Metrics struct {
	Before scoring.MatchScore `json:"before"`
	After  scoring.MatchScore `json:"after"`
}

type Metadata struct {
	Filename    string `json:"filename"`
	OptimizedAt string `json:"optimizedAt"`
	Version     string `json:"version"`
}

type VersionEntry struct {
	Version   string  `json:"version"`
	Metrics   Metrics `json:"metrics"`
	Timestamp string  `json:"timestamp"`
}

// OptimizedResume — результат одного успешного прогона. Каждый прогон создаёт
// новую запись; история версий живёт в линии uploadedResumeId.
type OptimizedResume struct {
	ID               uuid.UUID             `json:"id"`
	UserID           uuid.UUID             `json:"userId"`
	UploadedResumeID uuid.UUID             `json:"uploadedResumeId"`
	SessionID        uuid.UUID             `json:"sessionId"`
	Content          string                `json:"content"`
	OriginalContent  string                `json:"originalContent"`
	JobDescription   string                `json:"jobDescription"`
	JobURL           string                `json:"jobUrl,omitempty"`
	JobDetails       jobdetails.JobDetails `json:"jobDetails"`
	Metrics          Metrics               `json:"metrics"`
	Analysis         optimizer.Analysis    `json:"analysis"`
	Changes          []string              `json:"changes"`
	ResumeContent    resume.Content        `json:"resumeContent"`
	ContactInfo      resume.ContactInfo    `json:"contactInfo"`
	Metadata         Metadata              `json:"metadata"`
	VersionHistory   []VersionEntry        `json:"versionHistory,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
}

// Snapshot is the per-step audit record, keyed by (SessionID, Step).
type Snapshot struct {
	SessionID uuid.UUID       `json:"sessionId"`
	Step      progress.Status `json:"step"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Report is what AnalyzeExisting returns.
type Report struct {
	Before   scoring.MatchScore `json:"before"`
	After    scoring.MatchScore `json:"after"`
	Analysis scoring.Analysis   `json:"analysis"`
}
