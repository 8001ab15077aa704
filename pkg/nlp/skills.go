package nlp

import "strings"

// aliases: нормализованная форма -> эквивалентные написания.
var aliases = map[string][]string{
	"postgres":   {"postgresql"},
	"postgresql": {"postgres"},
	"k8s":        {"kubernetes"},
	"kubernetes": {"k8s"},
	"golang":     {"go"},
	"go":         {"golang"},
	"js":         {"javascript"},
	"javascript": {"js"},
	"ts":         {"typescript"},
	"typescript": {"ts"},
	"rest":       {"rest api"},
	"rest api":   {"rest"},
	"ci cd":      {"cicd"},
	"cicd":       {"ci cd"},
	"aws":        {"amazon web services"},
	"gcp":        {"google cloud"},
	"ml":         {"machine learning"},
}

// SkillVariants returns normalized variants of a skill used for matching.
func SkillVariants(skill string) []string {
	base := Normalize(skill)
	if base == "" {
		return []string{}
	}
	out := []string{base}
	seen := map[string]struct{}{base: {}}
	add := func(s string) {
		s = Normalize(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, a := range aliases[base] {
		add(a)
	}
	// multi-word: подставляем алиасы по токенам ("golang developer" -> "go developer")
	parts := strings.Fields(base)
	if len(parts) > 1 {
		swapped := make([]string, len(parts))
		changed := false
		for i, p := range parts {
			swapped[i] = p
			if a, ok := aliases[p]; ok && !strings.Contains(a[0], " ") {
				swapped[i] = a[0]
				changed = true
			}
		}
		if changed {
			add(strings.Join(swapped, " "))
		}
	}
	return out
}

// HasSkill reports whether normalizedText mentions skill in any of its variants.
func HasSkill(normalizedText, skill string) bool {
	for _, v := range SkillVariants(skill) {
		if ContainsPhrase(normalizedText, v) {
			return true
		}
	}
	return false
}

// MatchSkills splits skills into those mentioned in text and those missing.
func MatchSkills(skills []string, text string) (matched, missing []string) {
	norm := Normalize(text)
	matched, missing = []string{}, []string{}
	for _, s := range DedupeSkills(skills) {
		if HasSkill(norm, s) {
			matched = append(matched, s)
		} else {
			missing = append(missing, s)
		}
	}
	return matched, missing
}

// DedupeSkills drops empty entries and duplicates by normalized form, keeping first spelling.
func DedupeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := map[string]struct{}{}
	for _, s := range skills {
		s = strings.TrimSpace(s)
		key := Normalize(s)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
