// Package renderer formats the outcome of a schedule computation as markdown.
package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed *.md
var templates embed.FS

// SummaryRenderOptions holds configuration for rendering a summary.
type SummaryRenderOptions struct {
	SkipRows bool // Only render the totals and the issues.
}

// RenderSummary renders the Summary struct to a markdown string.
func RenderSummary(s *Summary, opts SummaryRenderOptions) string {
	partials := map[string]string{
		"summary_totals": "summary_totals.md",
		"summary_issues": "summary_issues.md",
	}
	// An empty file name results in an empty template.
	if opts.SkipRows {
		partials["summary_rows"] = ""
	} else {
		partials["summary_rows"] = "summary_rows.md"
	}
	return renderTemplate("summary", "summary.md", partials, s)
}

// HTML converts markdown, tables included, to an HTML fragment.
func HTML(markdown string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		if file != "" {
			var readErr error
			content, readErr = fs.ReadFile(templates, file)
			if readErr != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, readErr)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
