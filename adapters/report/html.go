package report

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"perfpulse/domain/insight"
)

// HTMLFragment renders the report body as HTML, without page chrome
func HTMLFragment(report insight.Report) ([]byte, error) {
	md, err := Markdown(report)
	if err != nil {
		return nil, err
	}
	return toHTML(md, html.CommonFlags|html.HrefTargetBlank, ""), nil
}

// HTMLPage renders the report as a standalone HTML document
func HTMLPage(report insight.Report) ([]byte, error) {
	md, err := Markdown(report)
	if err != nil {
		return nil, err
	}
	return toHTML(md, html.CommonFlags|html.CompletePage, "Performance report "+report.RunID.String()), nil
}

// toHTML builds a fresh parser per call; gomarkdown parsers are not reusable
func toHTML(md []byte, flags html.Flags, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: flags, Title: title})
	return markdown.ToHTML(md, p, renderer)
}
