package render

import (
	"strings"

	"github.com/artem13815/hr-optimizer/pkg/apperr"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ParseFormat accepts pdf and docx only, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatDOCX:
		return FormatDOCX, nil
	}
	return "", apperr.InvalidInput("unsupported download format: use pdf or docx")
}

func (f Format) ContentType() string {
	if f == FormatDOCX {
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/pdf"
}

// File is a rendered download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}
