package report

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const pageStyle = `body{font-family:Arial,Helvetica,sans-serif;font-size:12px;margin:24px;color:#222}
h1{text-align:center}
table{border-collapse:collapse;width:100%;margin:12px 0}
th,td{border:1px solid #bbb;padding:4px 6px;vertical-align:top}
th{background:#e6e6e6}
@page{size:A4 landscape;margin:10mm}`

// markdown is the shared goldmark instance; goldmark.Markdown is safe for
// concurrent use.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithXHTML()),
)

// HTML converts the Markdown document into a standalone HTML page.
func HTML(doc, title string) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(doc), &body); err != nil {
		return nil, fmt.Errorf("report: convert markdown: %w", err)
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, "<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n<style>\n%s\n</style>\n</head>\n<body>\n",
		html.EscapeString(title), pageStyle)
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}
