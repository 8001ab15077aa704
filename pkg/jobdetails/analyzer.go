package jobdetails

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/artem13815/hr-optimizer/pkg/apperr"
	"github.com/artem13815/hr-optimizer/pkg/llm"
	"github.com/artem13815/hr-optimizer/pkg/nlp"
)

// Analysis — разбор вакансии относительно текущего резюме; вход для шага оптимизации.
type Analysis struct {
	MatchedSkills []string `json:"matchedSkills"`
	MissingSkills []string `json:"missingSkills"`
	// SkillCoverage: доля навыков вакансии, найденных в резюме, 0..1.
	SkillCoverage float64  `json:"skillCoverage"`
	Summary       string   `json:"summary"`
	Priorities    []string `json:"priorities"`
	Keywords      []string `json:"keywords"`
}

// Analyzer builds the job analysis. Any failure aborts the run with ANALYSIS_ERROR.
type Analyzer interface {
	Analyze(ctx context.Context, details JobDetails, resumeText string) (Analysis, error)
}

type analyzer struct {
	llm        llm.ChatModel
	timeout    time.Duration
	maxTextLen int
	log        *slog.Logger
}

func NewAnalyzer(model llm.ChatModel, timeout time.Duration) Analyzer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &analyzer{llm: model, timeout: timeout, maxTextLen: 12000, log: slog.With("component", "job_analyzer")}
}

type analysisPayload struct {
	Summary    string   `json:"summary"`
	Priorities []string `json:"priorities"`
	Keywords   []string `json:"keywords"`
}

var analysisSchema = llm.MustSchema(`{
  "type": "object",
  "required": ["summary"],
  "properties": {
    "summary": {"type": "string", "minLength": 1},
    "priorities": {"type": ["array", "null"], "items": {"type": "string"}},
    "keywords": {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`)

func (a *analyzer) Analyze(ctx context.Context, details JobDetails, resumeText string) (Analysis, error) {
	text := strings.TrimSpace(resumeText)
	if text == "" {
		return Analysis{}, apperr.New(apperr.CodeAnalysis, "resume text is empty")
	}
	if rs := []rune(text); len(rs) > a.maxTextLen {
		text = string(rs[:a.maxTextLen])
	}

	matched, missing, coverage := computeSkillMatch(details.SkillsAndTools, text)
	out := Analysis{MatchedSkills: matched, MissingSkills: missing, SkillCoverage: coverage}

	system := "You are a recruiter analysing a job description against a candidate resume. Return STRICTLY one JSON object without markdown."
	user := fmt.Sprintf(
		"Job: %s at %s (%s)\nDescription:\n%s\n\nKey requirements: %s\nMatched skills: %s\nMissing skills: %s\n\nResume:\n<<<\n%s\n>>>\n\nReturn JSON with fields:\n- summary (string): what the employer cares about most\n- priorities (string[]): what the resume should emphasise, most important first\n- keywords (string[]): exact job terms an ATS will scan for\n",
		details.Title, details.Company, details.PositionLevel,
		details.Description,
		strings.Join(details.KeyRequirements, "; "),
		strings.Join(matched, ", "),
		strings.Join(missing, ", "),
		text,
	)
	res, err := llm.GenerateStructured[analysisPayload](ctx, a.llm, a.timeout, system, user, analysisSchema)
	if err != nil {
		return Analysis{}, apperr.Wrap(apperr.CodeAnalysis, "job description analysis failed", err)
	}
	if !res.OK() {
		return Analysis{}, apperr.Wrap(apperr.CodeAnalysis, "model returned malformed job analysis", errors.New(res.Reason))
	}
	out.Summary = strings.TrimSpace(res.Value.Summary)
	out.Priorities = nlp.DedupeSkills(res.Value.Priorities)
	out.Keywords = nlp.DedupeSkills(append(append([]string{}, details.SkillsAndTools...), res.Value.Keywords...))
	a.log.InfoContext(ctx, "job analysed", "matched", len(matched), "missing", len(missing), "coverage", coverage)
	return out, nil
}

// computeSkillMatch ищет навыки вакансии в тексте резюме с учётом алиасов (go/golang, k8s/kubernetes).
func computeSkillMatch(skills []string, resumeText string) (matched, missing []string, coverage float64) {
	matched, missing = nlp.MatchSkills(skills, resumeText)
	total := len(matched) + len(missing)
	if total == 0 {
		return matched, missing, 0
	}
	return matched, missing, float64(len(matched)) / float64(total)
}
