package jobdetails

import (
	"strings"

	"github.com/artem13815/hr-optimizer/pkg/nlp"
)

// PositionLevel — уровень позиции; неизвестное значение сериализуется как "Not specified".
type PositionLevel string

const (
	LevelEntry       PositionLevel = "entry"
	LevelMid         PositionLevel = "mid"
	LevelSenior      PositionLevel = "senior"
	LevelLead        PositionLevel = "lead"
	LevelUnspecified PositionLevel = "Not specified"
)

const (
	maxRequirementLen = 30
	maxSkillWords     = 2
)

// JobDetails is derived fresh on every run and never cached.
type JobDetails struct {
	Title           string        `json:"title"`
	Company         string        `json:"company"`
	Location        string        `json:"location"`
	Salary          string        `json:"salary,omitempty"`
	Description     string        `json:"description"`
	PositionLevel   PositionLevel `json:"positionLevel"`
	KeyRequirements []string      `json:"keyRequirements"`
	SkillsAndTools  []string      `json:"skillsAndTools"`
}

// Input is what the client sent: a posting URL, a pasted description, or both.
type Input struct {
	URL         string
	Description string
}

func (in Input) Empty() bool {
	return strings.TrimSpace(in.URL) == "" && strings.TrimSpace(in.Description) == ""
}

var levelWords = []struct {
	level PositionLevel
	words []string
}{
	{LevelLead, []string{"lead", "principal", "staff", "head", "director", "architect"}},
	{LevelSenior, []string{"senior", "sr"}},
	{LevelMid, []string{"mid", "middle", "intermediate", "mid level"}},
	{LevelEntry, []string{"entry", "junior", "jr", "intern", "graduate", "entry level"}},
}

// ParsePositionLevel maps free text ("Sr.", "Mid-Senior level", "Junior") onto a level.
func ParsePositionLevel(s string) PositionLevel {
	norm := nlp.Normalize(s)
	if norm == "" {
		return LevelUnspecified
	}
	for _, lw := range levelWords {
		for _, w := range lw.words {
			if nlp.ContainsPhrase(norm, w) {
				return lw.level
			}
		}
	}
	return LevelUnspecified
}

// postProcess applies the output contract: short requirements, short deduped
// skills, known level, non-nil lists.
func (d JobDetails) postProcess(fallbackDescription string) JobDetails {
	d.Title = strings.TrimSpace(d.Title)
	d.Company = strings.TrimSpace(d.Company)
	d.Location = strings.TrimSpace(d.Location)
	d.Salary = strings.TrimSpace(d.Salary)
	if strings.TrimSpace(d.Description) == "" {
		d.Description = strings.TrimSpace(fallbackDescription)
	}
	d.PositionLevel = ParsePositionLevel(string(d.PositionLevel))

	reqs := make([]string, 0, len(d.KeyRequirements))
	for _, r := range d.KeyRequirements {
		if r = strings.TrimSpace(r); r != "" {
			reqs = append(reqs, nlp.Truncate(r, maxRequirementLen))
		}
	}
	d.KeyRequirements = reqs

	skills := make([]string, 0, len(d.SkillsAndTools))
	for _, s := range nlp.DedupeSkills(d.SkillsAndTools) {
		if nlp.WordCount(s) <= maxSkillWords {
			skills = append(skills, s)
		}
	}
	d.SkillsAndTools = skills
	return d
}
