package optimizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/artem13815/hr-optimizer/pkg/apperr"
	"github.com/artem13815/hr-optimizer/pkg/jobdetails"
	"github.com/artem13815/hr-optimizer/pkg/llm"
	"github.com/artem13815/hr-optimizer/pkg/nlp"
	"github.com/artem13815/hr-optimizer/pkg/resume"
)

// MinContentLength: минимальная длина оптимизированного текста.
const MinContentLength = 100

type Input struct {
	ResumeText     string
	JobDescription string
	JobDetails     jobdetails.JobDetails
	JobAnalysis    jobdetails.Analysis
	// Original is the parsed resume; its contact info always wins.
	Original resume.Content
}

type Analysis struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Gaps         []string `json:"gaps"`
	Suggestions  []string `json:"suggestions"`
}

type Result struct {
	OptimizedContent string         `json:"optimizedContent"`
	Changes          []string       `json:"changes"`
	ResumeContent    resume.Content `json:"resumeContent"`
	Analysis         Analysis       `json:"analysis"`
}

// Optimizer переписывает резюме под вакансию.
type Optimizer interface {
	Optimize(ctx context.Context, in Input) (Result, error)
}

type optimizer struct {
	llm      llm.ChatModel
	timeout  time.Duration
	maxChars int
	log      *slog.Logger
}

func New(model llm.ChatModel, timeout time.Duration) Optimizer {
	if timeout <= 0 {
		timeout = 240 * time.Second
	}
	return &optimizer{llm: model, timeout: timeout, maxChars: 12000, log: slog.With("component", "resume_optimizer")}
}

var resultSchema = llm.MustSchema(`{
  "type": "object",
  "required": ["optimizedContent", "resumeContent"],
  "properties": {
    "optimizedContent": {"type": "string"},
    "changes": {"type": ["array", "null"], "items": {"type": "string"}},
    "resumeContent": {"type": "object"},
    "analysis": {
      "type": ["object", "null"],
      "properties": {
        "strengths": {"type": ["array", "null"], "items": {"type": "string"}},
        "improvements": {"type": ["array", "null"], "items": {"type": "string"}},
        "gaps": {"type": ["array", "null"], "items": {"type": "string"}},
        "suggestions": {"type": ["array", "null"], "items": {"type": "string"}}
      }
    }
  }
}`)

const systemPrompt = `You are an expert resume writer optimizing a resume for one specific job. Rules:
1. Keep the candidate's contact information exactly as given.
2. Reorder skills so the ones the job asks for come first.
3. Use the job's terminology where the candidate's real experience supports it. Never invent employers, titles, dates, degrees or achievements.
4. The optimizedContent must be ATS-parseable plain text with standard section headers (SUMMARY, SKILLS, EXPERIENCE, EDUCATION). No tables, no columns, no markdown.
Return STRICTLY one JSON object, no markdown, no explanations.`

const userPrompt = `Job: %s at %s (%s)
Job description:
<<<
%s
>>>

Key requirements: %s
Skills and tools: %s
Analysis: %s
Emphasise: %s
Missing from resume: %s
ATS keywords: %s

Current resume:
<<<
%s
>>>

Return JSON:
{
  "optimizedContent": string,
  "changes": string[],
  "resumeContent": {same shape as a parsed resume: contactInfo, professionalSummary, skills{technical,soft,certifications}, experience[], education[], projects[], awards[], volunteerWork[], languages[], publications[]},
  "analysis": {"strengths": string[], "improvements": string[], "gaps": string[], "suggestions": string[]}
}`

func (o *optimizer) Optimize(ctx context.Context, in Input) (Result, error) {
	text := strings.TrimSpace(in.ResumeText)
	if text == "" {
		return Result{}, apperr.New(apperr.CodeInsufficientContent, "resume text is empty")
	}
	start := time.Now()
	user := fmt.Sprintf(userPrompt,
		in.JobDetails.Title, in.JobDetails.Company, in.JobDetails.PositionLevel,
		nlp.Truncate(in.JobDescription, o.maxChars),
		strings.Join(in.JobDetails.KeyRequirements, "; "),
		strings.Join(in.JobDetails.SkillsAndTools, ", "),
		in.JobAnalysis.Summary,
		strings.Join(in.JobAnalysis.Priorities, "; "),
		strings.Join(in.JobAnalysis.MissingSkills, ", "),
		strings.Join(in.JobAnalysis.Keywords, ", "),
		nlp.Truncate(text, o.maxChars),
	)

	res, err := llm.GenerateStructured[Result](ctx, o.llm, o.timeout, systemPrompt, user, resultSchema)
	if err != nil {
		if errors.Is(err, llm.ErrTimeout) {
			o.log.WarnContext(ctx, "optimization timed out", "timeout", o.timeout.String())
			return Result{}, apperr.Wrap(apperr.CodeTimeout, "resume optimization timed out", err)
		}
		return Result{}, apperr.Wrap(apperr.CodeOptimization, "resume optimization failed", err)
	}
	if !res.OK() {
		o.log.WarnContext(ctx, "malformed optimization output", "reason", res.Reason, "raw_len", len(res.Raw))
		return Result{}, apperr.Wrap(apperr.CodeOptimization, "model returned malformed optimization", errors.New(res.Reason))
	}

	out := res.Value
	out.OptimizedContent = strings.TrimSpace(out.OptimizedContent)
	if n := len([]rune(out.OptimizedContent)); n < MinContentLength {
		return Result{}, apperr.Newf(apperr.CodeInsufficientContent, "optimized content is too short (%d chars)", n)
	}
	out.ResumeContent = out.ResumeContent.Normalize()
	out.ResumeContent.ContactInfo = in.Original.ContactInfo
	out.Changes = nlp.DedupeSkills(out.Changes)
	if len(out.Changes) == 0 {
		out.Changes = deriveChanges(in.JobDetails.SkillsAndTools, text, out.OptimizedContent)
	}
	out.Analysis = out.Analysis.normalize()

	o.log.InfoContext(ctx, "resume optimized",
		"changes", len(out.Changes),
		"content_len", len(out.OptimizedContent),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// deriveChanges lists job skills that appear in the optimized text but not in the original.
func deriveChanges(jobSkills []string, before, after string) []string {
	_, missingBefore := nlp.MatchSkills(jobSkills, before)
	nowPresent, _ := nlp.MatchSkills(missingBefore, after)
	changes := make([]string, 0, len(nowPresent)+1)
	for _, s := range nowPresent {
		changes = append(changes, "Highlighted "+s)
	}
	if len(changes) == 0 {
		changes = append(changes, "Restructured resume for the target role")
	}
	return changes
}

func (a Analysis) normalize() Analysis {
	return Analysis{
		Strengths:    nonNil(a.Strengths),
		Improvements: nonNil(a.Improvements),
		Gaps:         nonNil(a.Gaps),
		Suggestions:  nonNil(a.Suggestions),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
