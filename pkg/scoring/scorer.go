package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/artem13815/hr-optimizer/pkg/llm"
)

// Scorer rates a resume against a job description. It never fails: any
// problem yields Zero() so the pipeline can keep going.
type Scorer interface {
	Score(ctx context.Context, resumeText, jobDescription string) Result
}

type scorer struct {
	llm      llm.ChatModel
	timeout  time.Duration
	maxChars int
	log      *slog.Logger
}

func NewScorer(model llm.ChatModel, timeout time.Duration) Scorer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &scorer{llm: model, timeout: timeout, maxChars: 12000, log: slog.With("component", "match_scorer")}
}

type payload struct {
	Scores      map[string]any `json:"scores"`
	Strengths   []string       `json:"strengths"`
	Gaps        []string       `json:"gaps"`
	Suggestions []string       `json:"suggestions"`
}

// оценки намеренно не типизированы в схеме: строки и мусор приводим сами
var scoreSchema = llm.MustSchema(`{
  "type": "object",
  "required": ["scores"],
  "properties": {
    "scores": {"type": "object"},
    "strengths": {"type": ["array", "null"], "items": {"type": "string"}},
    "gaps": {"type": ["array", "null"], "items": {"type": "string"}},
    "suggestions": {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`)

const scoreSystemPrompt = "You are an ATS and recruiting expert. Score how well a resume matches a job description. Return STRICTLY one JSON object, no markdown."

const scoreUserPrompt = `Job description:
<<<
%s
>>>

Resume:
<<<
%s
>>>

Return JSON:
{
  "scores": {
    "overall": 0-100, "keywords": 0-100, "skills": 0-100, "experience": 0-100,
    "education": 0-100, "personalization": 0-100, "aiReadiness": 0-100, "confidence": 0-100
  },
  "strengths": string[],
  "gaps": string[],
  "suggestions": string[]
}`

func (s *scorer) Score(ctx context.Context, resumeText, jobDescription string) Result {
	resumeText = strings.TrimSpace(resumeText)
	jobDescription = strings.TrimSpace(jobDescription)
	if resumeText == "" || jobDescription == "" {
		s.log.WarnContext(ctx, "scoring skipped: empty input")
		return Zero()
	}
	user := fmt.Sprintf(scoreUserPrompt, truncate(jobDescription, s.maxChars), truncate(resumeText, s.maxChars))
	res, err := llm.GenerateStructured[payload](ctx, s.llm, s.timeout, scoreSystemPrompt, user, scoreSchema)
	if err != nil {
		s.log.WarnContext(ctx, "scoring degraded to zero", "error", err)
		return Zero()
	}
	if !res.OK() {
		s.log.WarnContext(ctx, "scoring degraded to zero", "reason", res.Reason)
		return Zero()
	}
	out := Result{
		Score: FromRaw(res.Value.Scores).Clamp(),
		Analysis: Analysis{
			Strengths:   nonNil(res.Value.Strengths),
			Gaps:        nonNil(res.Value.Gaps),
			Suggestions: nonNil(res.Value.Suggestions),
		},
	}
	s.log.DebugContext(ctx, "resume scored", "overall", out.Score.Overall, "confidence", out.Score.Confidence)
	return out
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
