package render

import (
	"strings"

	"github.com/artem13815/hr-optimizer/pkg/resume"
)

// Document is the format-neutral input of PDF and DOCX rendering.
type Document struct {
	Title    string
	Subtitle string
	Sections []Section
}

type Section struct {
	Heading string
	Lines   []string
}

// FromResume builds a document out of structured content. When the content
// has no sections (old records, degraded parse) the optimized plain text is used.
func FromResume(c resume.Content, plainText string) Document {
	ci := c.ContactInfo
	doc := Document{
		Title:    ci.FullName,
		Subtitle: joinNonEmpty(" | ", ci.Email, ci.Phone, ci.Location, ci.LinkedIn, ci.GitHub, ci.Portfolio),
	}
	if s := strings.TrimSpace(c.ProfessionalSummary); s != "" {
		doc.add("Summary", s)
	}
	var skills []string
	if len(c.Skills.Technical) > 0 {
		skills = append(skills, "Technical: "+strings.Join(c.Skills.Technical, ", "))
	}
	if len(c.Skills.Soft) > 0 {
		skills = append(skills, "Soft: "+strings.Join(c.Skills.Soft, ", "))
	}
	if len(c.Skills.Certifications) > 0 {
		skills = append(skills, "Certifications: "+strings.Join(c.Skills.Certifications, ", "))
	}
	doc.add("Skills", skills...)

	var exp []string
	for _, e := range c.Experience {
		exp = append(exp, joinNonEmpty(", ", e.Title, e.Company, e.Location)+periodOf(e.StartDate, e.EndDate))
		for _, a := range e.Achievements {
			exp = append(exp, "• "+a)
		}
	}
	doc.add("Experience", exp...)

	var edu []string
	for _, e := range c.Education {
		edu = append(edu, joinNonEmpty(", ", e.Degree, e.Field, e.Institution, e.GraduationDate))
	}
	doc.add("Education", edu...)

	var projects []string
	for _, p := range c.Projects {
		line := joinNonEmpty(": ", p.Name, p.Description)
		if len(p.Technologies) > 0 {
			line += " (" + strings.Join(p.Technologies, ", ") + ")"
		}
		projects = append(projects, line)
	}
	doc.add("Projects", projects...)

	var langs []string
	for _, l := range c.Languages {
		langs = append(langs, joinNonEmpty(" - ", l.Name, l.Proficiency))
	}
	doc.add("Languages", langs...)

	if len(doc.Sections) == 0 {
		doc.add("", splitLines(plainText)...)
	}
	return doc
}

func FromCoverLetter(fullName, body string) Document {
	doc := Document{Title: fullName}
	doc.add("", splitLines(body)...)
	return doc
}

func (d *Document) add(heading string, lines ...string) {
	var kept []string
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return
	}
	d.Sections = append(d.Sections, Section{Heading: heading, Lines: kept})
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

func periodOf(start, end string) string {
	if p := joinNonEmpty(" - ", start, end); p != "" {
		return " (" + p + ")"
	}
	return ""
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
