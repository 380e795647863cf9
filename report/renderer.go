package report

import (
	"context"
	"fmt"

	"undervalued-homes/models"
	"undervalued-homes/utils"
)

// Source is one report in the forms a PDFRenderer may start from.
type Source struct {
	Title    string
	Markdown string
	HTML     []byte
}

// PDFRenderer derives the PDF artifact from a rendered document.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, src *Source) ([]byte, error)
}

// Bundle holds the rendered artifacts of one report.
type Bundle struct {
	Markdown []byte
	HTML     []byte
	PDF      []byte
}

// Renderer produces the document, HTML page and PDF for a dataset.
type Renderer struct {
	pdf    PDFRenderer
	logger *utils.Logger
}

func NewRenderer(pdf PDFRenderer, logger *utils.Logger) *Renderer {
	return &Renderer{pdf: pdf, logger: logger}
}

// Render builds every artifact of ds. Any failure aborts the whole bundle.
func (r *Renderer) Render(ctx context.Context, ds *models.ReportDataset) (*Bundle, error) {
	title := Title(ds)
	doc := Document(ds)

	page, err := HTML(doc, title)
	if err != nil {
		return nil, err
	}

	pdf, err := r.pdf.RenderPDF(ctx, &Source{Title: title, Markdown: doc, HTML: page})
	if err != nil {
		return nil, err
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("report: pdf renderer returned no data")
	}

	r.logger.Info("[report] Rendered %q (%d rows, pdf %d bytes)", title, len(ds.Records), len(pdf))
	return &Bundle{Markdown: []byte(doc), HTML: page, PDF: pdf}, nil
}
