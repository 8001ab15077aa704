package scoring

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// MatchScore — оценки соответствия резюме вакансии, каждая в [0,100].
type MatchScore struct {
	Overall         int `json:"overall"`
	Keywords        int `json:"keywords"`
	Skills          int `json:"skills"`
	Experience      int `json:"experience"`
	Education       int `json:"education"`
	Personalization int `json:"personalization"`
	AIReadiness     int `json:"aiReadiness"`
	Confidence      int `json:"confidence"`
}

// Analysis is the textual part of a scoring pass.
type Analysis struct {
	Strengths   []string `json:"strengths"`
	Gaps        []string `json:"gaps"`
	Suggestions []string `json:"suggestions"`
}

type Result struct {
	Score    MatchScore `json:"score"`
	Analysis Analysis   `json:"analysis"`
}

// Zero is returned whenever scoring could not be done.
func Zero() Result {
	return Result{Analysis: Analysis{Strengths: []string{}, Gaps: []string{}, Suggestions: []string{}}}
}

// FromRaw builds a score out of loosely typed model output: numbers and numeric
// strings are accepted, anything else counts as 0, everything is clamped.
// A missing or non-numeric confidence is the rounded mean of the other seven values.
func FromRaw(raw map[string]any) MatchScore {
	s := MatchScore{
		Overall:         Coerce(raw["overall"]),
		Keywords:        Coerce(raw["keywords"]),
		Skills:          Coerce(raw["skills"]),
		Experience:      Coerce(raw["experience"]),
		Education:       Coerce(raw["education"]),
		Personalization: Coerce(raw["personalization"]),
		AIReadiness:     Coerce(raw["aiReadiness"]),
	}
	if c, ok := number(raw["confidence"]); ok {
		s.Confidence = c
	} else {
		s.Confidence = s.meanOfOthers()
	}
	return s
}

// Clamp forces every field into [0,100].
func (s MatchScore) Clamp() MatchScore {
	s.Overall = clamp(float64(s.Overall))
	s.Keywords = clamp(float64(s.Keywords))
	s.Skills = clamp(float64(s.Skills))
	s.Experience = clamp(float64(s.Experience))
	s.Education = clamp(float64(s.Education))
	s.Personalization = clamp(float64(s.Personalization))
	s.AIReadiness = clamp(float64(s.AIReadiness))
	s.Confidence = clamp(float64(s.Confidence))
	return s
}

func (s MatchScore) meanOfOthers() int {
	sum := s.Overall + s.Keywords + s.Skills + s.Experience + s.Education + s.Personalization + s.AIReadiness
	return int(math.Round(float64(sum) / 7))
}

// Coerce turns a loosely typed model value into a clamped 0..100 integer.
func Coerce(v any) int {
	n, _ := number(v)
	return n
}

// number reports whether v carried a usable numeric value.
func number(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return clamp(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return clamp(f), true
	case int:
		return clamp(float64(t)), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		if err != nil {
			return 0, false
		}
		return clamp(f), true
	default:
		return 0, false
	}
}

func clamp(f float64) int {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return int(math.Round(f))
}
