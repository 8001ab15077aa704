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
)

// Resolver turns a job URL or pasted description into JobDetails.
type Resolver interface {
	Resolve(ctx context.Context, in Input) (JobDetails, error)
}

type resolver struct {
	fetcher  Fetcher
	llm      llm.ChatModel
	timeout  time.Duration
	maxChars int
	log      *slog.Logger
}

func NewResolver(fetcher Fetcher, model llm.ChatModel, timeout time.Duration) Resolver {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &resolver{
		fetcher:  fetcher,
		llm:      model,
		timeout:  timeout,
		maxChars: 12000,
		log:      slog.With("component", "job_resolver"),
	}
}

var detailsSchema = llm.MustSchema(`{
  "type": "object",
  "properties": {
    "title": {"type": ["string", "null"]},
    "company": {"type": ["string", "null"]},
    "location": {"type": ["string", "null"]},
    "salary": {"type": ["string", "null"]},
    "description": {"type": ["string", "null"]},
    "positionLevel": {"type": ["string", "null"]},
    "keyRequirements": {"type": ["array", "null"], "items": {"type": "string"}},
    "skillsAndTools": {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`)

const extractSystemPrompt = "You extract structured data from job postings. Return STRICTLY one JSON object without markdown. Use only facts present in the posting."

const extractUserPrompt = `Job posting:
<<<
%s
>>>
%s
Return one JSON object:
{
  "title": string,
  "company": string,
  "location": string,
  "salary": string (empty if not stated),
  "description": string (the role description, cleaned of boilerplate),
  "positionLevel": "entry" | "mid" | "senior" | "lead" | "Not specified",
  "keyRequirements": string[] (short phrases, at most 30 characters each),
  "skillsAndTools": string[] (technologies and tools, one or two words each)
}`

// Resolve never caches: every run reads the posting again.
// Any failure other than missing input comes back as EXTRACTION_ERROR.
func (r *resolver) Resolve(ctx context.Context, in Input) (JobDetails, error) {
	if in.Empty() {
		return JobDetails{}, apperr.New(apperr.CodeMissingJobInfo, "either a job URL or a job description is required")
	}
	start := time.Now()
	details, err := r.resolve(ctx, in)
	if err != nil {
		ae := apperr.From(err)
		if ae.Code != apperr.CodeExtraction {
			ae = apperr.Wrap(apperr.CodeExtraction, "failed to extract job details", err)
		}
		r.log.WarnContext(ctx, "job extraction failed", "url", in.URL, "error", ae.Details)
		return JobDetails{}, ae
	}
	r.log.InfoContext(ctx, "job details extracted",
		"title", details.Title,
		"level", string(details.PositionLevel),
		"skills", len(details.SkillsAndTools),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return details, nil
}

func (r *resolver) resolve(ctx context.Context, in Input) (JobDetails, error) {
	text := strings.TrimSpace(in.Description)
	var posting Posting
	// вставленный текст важнее страницы: без лишнего сетевого запроса
	if text == "" {
		if r.fetcher == nil {
			return JobDetails{}, errors.New("job page fetching is not configured")
		}
		html, err := r.fetcher.Fetch(ctx, strings.TrimSpace(in.URL))
		if err != nil {
			return JobDetails{}, apperr.Wrap(apperr.CodeExtraction, "failed to fetch job posting", err)
		}
		posting = ExtractPosting(html)
		text = posting.Description
		if strings.TrimSpace(text) == "" {
			return JobDetails{}, apperr.Wrap(apperr.CodeExtraction, "job posting page has no readable description",
				fmt.Errorf("no text found in page markup of %s", in.URL))
		}
	}
	if rs := []rune(text); len(rs) > r.maxChars {
		text = string(rs[:r.maxChars])
	}

	hints := ""
	if posting.Title != "" || posting.Company != "" {
		hints = fmt.Sprintf("Page header: title=%q company=%q location=%q\n", posting.Title, posting.Company, posting.Location)
	}
	res, err := llm.GenerateStructured[JobDetails](ctx, r.llm, r.timeout, extractSystemPrompt, fmt.Sprintf(extractUserPrompt, text, hints), detailsSchema)
	if err != nil {
		return JobDetails{}, err
	}
	if !res.OK() {
		return JobDetails{}, apperr.Wrap(apperr.CodeExtraction, "model returned malformed job details", errors.New(res.Reason))
	}
	d := res.Value
	if d.Title == "" {
		d.Title = posting.Title
	}
	if d.Company == "" {
		d.Company = posting.Company
	}
	if d.Location == "" {
		d.Location = posting.Location
	}
	return d.postProcess(text), nil
}
