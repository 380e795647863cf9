package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"undervalued-homes/utils"
)

const (
	pageMargin = 10.0
	lineHeight = 5.0
	fontFamily = "Arial"
	fontSize   = 9.0
)

// FPDFRenderer lays the Markdown document out as a PDF with fpdf, without
// any external process.
type FPDFRenderer struct {
	logger *utils.Logger
}

func NewFPDFRenderer(logger *utils.Logger) *FPDFRenderer {
	return &FPDFRenderer{logger: logger}
}

// RenderPDF converts src.Markdown to PDF bytes.
func (f *FPDFRenderer) RenderPDF(ctx context.Context, src *Source) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(src.Title, true)
	pdf.SetCreator("undervalued-homes", true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AddPage()
	pdf.SetFont(fontFamily, "", fontSize)

	source := []byte(src.Markdown)
	doc := markdown.Parser().Parse(text.NewReader(source))

	w := &pdfWriter{
		pdf:    pdf,
		source: source,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
	}
	if err := ast.Walk(doc, w.walk); err != nil {
		return nil, fmt.Errorf("report: layout pdf: %w", err)
	}
	if pdf.Err() {
		return nil, fmt.Errorf("report: layout pdf: %w", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: write pdf: %w", err)
	}

	f.logger.Debug("[report] fpdf produced %d bytes", buf.Len())
	return buf.Bytes(), nil
}

type pdfWriter struct {
	pdf    *fpdf.Fpdf
	source []byte
	tr     func(string) string

	bold      bool
	italic    bool
	link      string
	listDepth int
}

type tableCell struct {
	text string
	link string
}

func (w *pdfWriter) setFont() {
	style := ""
	if w.bold {
		style += "B"
	}
	if w.italic {
		style += "I"
	}
	w.pdf.SetFont(fontFamily, style, fontSize)
}

func (w *pdfWriter) write(s string) {
	if s == "" {
		return
	}
	if w.link != "" {
		w.pdf.WriteLinkString(lineHeight, w.tr(s), w.link)
		return
	}
	w.pdf.Write(lineHeight, w.tr(s))
}

func (w *pdfWriter) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		return w.heading(node, entering), nil

	case *ast.Paragraph:
		if !entering {
			w.pdf.Ln(lineHeight + 2)
		}

	case *ast.Text:
		if entering {
			w.write(unescape(node.Segment.Value(w.source)))
			if node.HardLineBreak() {
				w.pdf.Ln(lineHeight)
			} else if node.SoftLineBreak() {
				w.write(" ")
			}
		}

	case *ast.String:
		if entering {
			w.write(string(node.Value))
		}

	case *ast.Emphasis:
		if node.Level == 2 {
			w.bold = entering
		} else {
			w.italic = entering
		}
		w.setFont()

	case *ast.CodeSpan:
		if entering {
			w.pdf.SetFont("Courier", "", fontSize)
			w.write(plainText(node, w.source))
			w.setFont()
		}
		return ast.WalkSkipChildren, nil

	case *ast.Link:
		if entering {
			w.link = string(node.Destination)
			w.pdf.SetTextColor(0, 0, 200)
		} else {
			w.link = ""
			w.pdf.SetTextColor(0, 0, 0)
		}

	case *ast.AutoLink:
		if entering {
			w.pdf.SetTextColor(0, 0, 200)
			w.pdf.WriteLinkString(lineHeight, w.tr(string(node.Label(w.source))), string(node.URL(w.source)))
			w.pdf.SetTextColor(0, 0, 0)
		}
		return ast.WalkSkipChildren, nil

	case *ast.List:
		if entering {
			w.listDepth++
		} else {
			w.listDepth--
			if w.listDepth == 0 {
				w.pdf.Ln(lineHeight + 2)
			}
		}

	case *ast.ListItem:
		if entering {
			if w.pdf.GetX() > pageMargin+0.5 {
				w.pdf.Ln(lineHeight)
			}
			w.pdf.SetX(pageMargin + float64(w.listDepth)*5)
			w.write("- ")
		}

	case *ast.ThematicBreak:
		if entering {
			pageW, _ := w.pdf.GetPageSize()
			w.pdf.Ln(2)
			w.pdf.Line(pageMargin, w.pdf.GetY(), pageW-pageMargin, w.pdf.GetY())
			w.pdf.Ln(4)
		}

	case *extast.Table:
		if entering {
			w.table(node)
		}
		return ast.WalkSkipChildren, nil

	case *ast.HTMLBlock, *ast.RawHTML, *ast.FencedCodeBlock, *ast.CodeBlock:
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

func (w *pdfWriter) heading(n *ast.Heading, entering bool) ast.WalkStatus {
	if !entering {
		w.pdf.Ln(lineHeight + 3)
		w.setFont()
		return ast.WalkContinue
	}

	sizes := map[int]float64{1: 16, 2: 13, 3: 11}
	size, ok := sizes[n.Level]
	if !ok {
		size = 10
	}

	w.pdf.Ln(3)
	w.pdf.SetFont(fontFamily, "B", size)
	if n.Level == 1 {
		w.pdf.MultiCell(0, 8, w.tr(plainText(n, w.source)), "", "C", false)
		w.pdf.Ln(2)
		w.setFont()
		return ast.WalkSkipChildren
	}
	return ast.WalkContinue
}

func (w *pdfWriter) table(t *extast.Table) {
	var rows [][]tableCell
	for child := t.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.(type) {
		case *extast.TableHeader, *extast.TableRow:
			rows = append(rows, w.row(child))
		}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	const cellSize = 7.5
	const cellLine = 3.8

	widths := w.columnWidths(rows, cellSize)
	_, pageH := w.pdf.GetPageSize()

	w.pdf.Ln(2)
	for i, row := range rows {
		style := ""
		if i == 0 {
			style = "B"
		}
		w.pdf.SetFont(fontFamily, style, cellSize)

		lines := make([][]string, len(row))
		maxLines := 1
		for j, cell := range row {
			if j >= len(widths) {
				break
			}
			lines[j] = w.pdf.SplitText(w.tr(cell.text), widths[j]-2)
			if len(lines[j]) > maxLines {
				maxLines = len(lines[j])
			}
		}
		rowH := float64(maxLines)*cellLine + 2

		if w.pdf.GetY()+rowH > pageH-pageMargin {
			w.pdf.AddPage()
		}
		x, y := pageMargin, w.pdf.GetY()

		for j, cell := range row {
			if j >= len(widths) {
				break
			}
			if i == 0 {
				w.pdf.SetFillColor(230, 230, 230)
				w.pdf.Rect(x, y, widths[j], rowH, "FD")
			} else {
				w.pdf.Rect(x, y, widths[j], rowH, "D")
			}
			if cell.link != "" {
				w.pdf.SetTextColor(0, 0, 200)
				w.pdf.LinkString(x, y, widths[j], rowH, cell.link)
			}
			for k, line := range lines[j] {
				w.pdf.SetXY(x+1, y+1+float64(k)*cellLine)
				w.pdf.CellFormat(widths[j]-2, cellLine, line, "", 0, "L", false, 0, "")
			}
			w.pdf.SetTextColor(0, 0, 0)
			x += widths[j]
		}
		w.pdf.SetXY(pageMargin, y+rowH)
	}

	w.pdf.SetFillColor(255, 255, 255)
	w.pdf.Ln(3)
	w.setFont()
}

func (w *pdfWriter) row(n ast.Node) []tableCell {
	var cells []tableCell
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*extast.TableCell); !ok {
			continue
		}
		cell := tableCell{text: plainText(c, w.source)}
		_ = ast.Walk(c, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if l, ok := n.(*ast.Link); ok && entering && cell.link == "" {
				cell.link = string(l.Destination)
			}
			return ast.WalkContinue, nil
		})
		cells = append(cells, cell)
	}
	return cells
}

// columnWidths sizes columns by content, clamped, then scaled to the page.
func (w *pdfWriter) columnWidths(rows [][]tableCell, size float64) []float64 {
	pageW, _ := w.pdf.GetPageSize()
	available := pageW - 2*pageMargin
	cols := len(rows[0])
	widths := make([]float64, cols)

	for i, row := range rows {
		style := ""
		if i == 0 {
			style = "B"
		}
		w.pdf.SetFont(fontFamily, style, size)
		for j, cell := range row {
			if j >= cols {
				break
			}
			if cw := w.pdf.GetStringWidth(w.tr(cell.text)) + 4; cw > widths[j] {
				widths[j] = cw
			}
		}
	}

	minW, maxW := 8.0, available/3
	total := 0.0
	for j := range widths {
		if widths[j] < minW {
			widths[j] = minW
		}
		if widths[j] > maxW {
			widths[j] = maxW
		}
		total += widths[j]
	}

	scale := available / total
	for j := range widths {
		widths[j] *= scale
	}
	return widths
}

// plainText concatenates the text content below n.
func plainText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.WriteString(unescape(t.Segment.Value(source)))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.CodeSpan:
			for s := t.FirstChild(); s != nil; s = s.NextSibling() {
				if txt, ok := s.(*ast.Text); ok {
					buf.Write(txt.Segment.Value(source))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// unescape resolves Markdown backslash escapes left in text segments.
func unescape(b []byte) string {
	return string(util.UnescapePunctuations(b))
}
