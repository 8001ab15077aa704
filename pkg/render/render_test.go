package render

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artem13815/hr-optimizer/pkg/apperr"
	"github.com/artem13815/hr-optimizer/pkg/resume"
)

type fakePrinter struct{ html string }

func (f *fakePrinter) PrintPDF(_ context.Context, html string) ([]byte, error) {
	f.html = html
	return []byte("%PDF-1.4 fake"), nil
}

func sampleContent() resume.Content {
	c := resume.Content{
		ContactInfo:         resume.ContactInfo{FullName: "Jane <Doe>", Email: "jane@example.com"},
		ProfessionalSummary: "Backend engineer & mentor",
		Skills:              resume.Skills{Technical: []string{"Go", "PostgreSQL"}},
		Experience: []resume.Experience{{
			Title: "Engineer", Company: "Acme", StartDate: "2020", EndDate: "2024",
			Achievements: []string{"Cut p99 latency by 40%"},
		}},
	}
	return c.Normalize()
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	f, err = ParseFormat("docx")
	require.NoError(t, err)
	assert.Equal(t, FormatDOCX, f)

	_, err = ParseFormat("txt")
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidInput))
}

func TestFromResumeSections(t *testing.T) {
	doc := FromResume(sampleContent(), "ignored")
	assert.Equal(t, "Jane <Doe>", doc.Title)
	var headings []string
	for _, s := range doc.Sections {
		headings = append(headings, s.Heading)
	}
	assert.Equal(t, []string{"Summary", "Skills", "Experience"}, headings)
	assert.Equal(t, "Engineer, Acme (2020 - 2024)", doc.Sections[2].Lines[0])
}

func TestFromResumeFallsBackToPlainText(t *testing.T) {
	doc := FromResume(resume.EmptyContent(), "SUMMARY\nGo engineer\n\nSKILLS\nGo")
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, []string{"SUMMARY", "Go engineer", "SKILLS", "Go"}, doc.Sections[0].Lines)
}

func TestDOCXRoundTripsThroughParser(t *testing.T) {
	data, err := NewRenderer(nil).Render(context.Background(), FromResume(sampleContent(), ""), FormatDOCX)
	require.NoError(t, err)

	text, err := resume.ParseDocument(data, resume.MimeDOCX)
	require.NoError(t, err)
	assert.Contains(t, text, "Jane <Doe>")
	assert.Contains(t, text, "Backend engineer & mentor")
	assert.Contains(t, text, "• Cut p99 latency by 40%")
}

func TestPDFGoesThroughHTMLPrinter(t *testing.T) {
	p := &fakePrinter{}
	data, err := NewRenderer(p).Render(context.Background(), FromResume(sampleContent(), ""), FormatPDF)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
	assert.Contains(t, p.html, "Jane &lt;Doe&gt;")
	assert.Contains(t, p.html, "<h2>Experience</h2>")
}

func TestPDFWithoutPrinter(t *testing.T) {
	_, err := NewRenderer(nil).Render(context.Background(), Document{Title: "x"}, FormatPDF)
	assert.True(t, apperr.IsCode(err, apperr.CodeFatal))
}
