package resume

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/artem13815/hr-optimizer/pkg/apperr"
	"github.com/artem13815/hr-optimizer/pkg/llm"
)

// ContentParser извлекает структурированные данные из текста резюме.
type ContentParser interface {
	Parse(ctx context.Context, rawText string) (Content, error)
}

type contentParser struct {
	llm      llm.ChatModel
	timeout  time.Duration
	maxChars int
	log      *slog.Logger
}

func NewContentParser(model llm.ChatModel, timeout time.Duration) ContentParser {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &contentParser{
		llm:      model,
		timeout:  timeout,
		maxChars: 12000,
		log:      slog.With("component", "resume_parser"),
	}
}

var contentSchema = llm.MustSchema(`{
  "type": "object",
  "properties": {
    "contactInfo": {"type": "object"},
    "professionalSummary": {"type": ["string", "null"]},
    "skills": {"type": ["object", "null"]},
    "experience": {"type": ["array", "null"], "items": {"type": "object"}},
    "education": {"type": ["array", "null"], "items": {"type": "object"}},
    "projects": {"type": ["array", "null"]},
    "awards": {"type": ["array", "null"]},
    "volunteerWork": {"type": ["array", "null"]},
    "languages": {"type": ["array", "null"]},
    "publications": {"type": ["array", "null"]}
  }
}`)

const parseSystemPrompt = "You are a resume parser. Return STRICTLY one JSON object, no markdown, no explanations. Empty lists are [], never null. Never invent facts that are not in the text."

const parseUserPrompt = `Resume text:
<<<
%s
>>>

Return one JSON object with this shape:
{
  "contactInfo": {"fullName": string, "email": string, "phone": string, "location": string, "linkedin": string, "portfolio": string, "github": string},
  "professionalSummary": string,
  "skills": {"technical": string[], "soft": string[], "certifications": string[]},
  "experience": [{"title": string, "company": string, "location": string, "startDate": string, "endDate": string, "achievements": string[]}],
  "education": [{"institution": string, "degree": string, "field": string, "graduationDate": string, "gpa": string}],
  "projects": [{"name": string, "description": string, "technologies": string[], "url": string}],
  "awards": [{"title": string, "issuer": string, "date": string}],
  "volunteerWork": [{"role": string, "organization": string, "period": string, "description": string}],
  "languages": [{"name": string, "proficiency": string}],
  "publications": [{"title": string, "venue": string, "date": string, "url": string}]
}`

func (p *contentParser) Parse(ctx context.Context, rawText string) (Content, error) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return Content{}, apperr.New(apperr.CodeParsing, "resume text is empty")
	}
	if r := []rune(text); len(r) > p.maxChars {
		text = string(r[:p.maxChars])
	}

	start := time.Now()
	res, err := llm.GenerateStructured[Content](ctx, p.llm, p.timeout, parseSystemPrompt, fmt.Sprintf(parseUserPrompt, text), contentSchema)
	if err != nil {
		if errors.Is(err, llm.ErrTimeout) {
			p.log.WarnContext(ctx, "resume parsing timed out", "timeout", p.timeout.String())
			return Content{}, apperr.Wrap(apperr.CodeParsingTimeout, "resume parsing timed out", err)
		}
		return Content{}, apperr.Wrap(apperr.CodeParsing, "resume parsing failed", err)
	}
	if !res.OK() {
		p.log.WarnContext(ctx, "malformed resume parse", "reason", res.Reason)
		return Content{}, apperr.Wrap(apperr.CodeParsing, "could not read structured resume", errors.New(res.Reason))
	}
	content := res.Value.Normalize()
	if content.IsEmpty() {
		return Content{}, apperr.New(apperr.CodeParsing, "no resume data could be extracted")
	}
	p.log.InfoContext(ctx, "resume parsed",
		"experience", len(content.Experience),
		"skills", len(content.Skills.Technical),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
