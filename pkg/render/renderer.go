package render

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/artem13815/hr-optimizer/pkg/apperr"
)

// Renderer turns a document into download bytes.
type Renderer interface {
	Render(ctx context.Context, doc Document, f Format) ([]byte, error)
}

type renderer struct {
	pdf PDFPrinter
	log *slog.Logger
}

// NewRenderer builds a renderer; a nil printer disables PDF output.
func NewRenderer(pdf PDFPrinter) Renderer {
	return &renderer{pdf: pdf, log: slog.With("component", "renderer")}
}

func (r *renderer) Render(ctx context.Context, doc Document, f Format) ([]byte, error) {
	start := time.Now()
	var (
		out []byte
		err error
	)
	switch f {
	case FormatDOCX:
		out, err = DOCX(doc)
	case FormatPDF:
		if r.pdf == nil {
			return nil, apperr.Fatal(errors.New("pdf rendering is not configured"))
		}
		var page string
		page, err = HTML(doc)
		if err == nil {
			out, err = r.pdf.PrintPDF(ctx, page)
		}
	default:
		return nil, apperr.InvalidInput("unsupported download format: use pdf or docx")
	}
	if err != nil {
		r.log.ErrorContext(ctx, "render failed", "format", string(f), "error", err)
		return nil, apperr.Fatal(err)
	}
	r.log.DebugContext(ctx, "document rendered", "format", string(f), "bytes", len(out), "duration_ms", time.Since(start).Milliseconds())
	return out, nil
}
