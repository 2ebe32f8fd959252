// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/jeranaias/edumate/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports transcripts as a standalone HTML page. Message
// content is rendered from Markdown; raw HTML in messages is dropped.
type HTMLExporter struct {
	options *Options
	md      goldmark.Markdown
}

// NewHTMLExporter creates an HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{
		options: opts,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

type htmlMessage struct {
	Class   string
	Label   string
	Time    string
	Content template.HTML
}

type htmlPage struct {
	Lang     string
	Title    string
	Document string
	Exported string
	Messages []htmlMessage
}

// Export renders t as HTML.
func (e *HTMLExporter) Export(t *Transcript) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	page := htmlPage{
		Lang:     t.Language,
		Title:    e.options.Labels.Title,
		Document: t.Document,
		Exported: formatTimestamp(t.ExportedAt),
	}
	for _, msg := range t.Messages {
		content, err := e.render(msg.Content)
		if err != nil {
			return nil, fmt.Errorf("render message %d: %w", msg.Sequence, err)
		}
		m := htmlMessage{
			Class:   roleClass(msg.Role),
			Label:   e.options.roleLabel(msg.Role),
			Content: content,
		}
		if e.options.IncludeTimestamps {
			m.Time = formatShortTimestamp(msg.Timestamp)
		}
		page.Messages = append(page.Messages, m)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, page); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

func (e *HTMLExporter) MimeType() string {
	return "text/html; charset=utf-8"
}

// render converts Markdown to HTML. goldmark omits raw HTML unless
// configured otherwise, so the result is safe to embed.
func (e *HTMLExporter) render(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := e.md.Convert([]byte(strings.TrimSpace(content)), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func roleClass(role model.Role) string {
	if role == model.RoleUser {
		return "user"
	}
	return "assistant"
}

// =============================================================================
// PAGE TEMPLATE
// =============================================================================

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta name="generator" content="edumate">
    <title>{{.Title}}{{if .Document}} - {{.Document}}{{end}}</title>
    <style>
        body { margin: 0; background: #f8fafc; color: #1e293b;
               font-family: -apple-system, "Segoe UI", Roboto, sans-serif; line-height: 1.6; }
        .container { max-width: 820px; margin: 0 auto; padding: 2rem 1rem; }
        header { border-bottom: 2px solid #6366f1; margin-bottom: 1.5rem; }
        header h1 { color: #4f46e5; margin: 0 0 .25rem; }
        header .document { color: #64748b; margin: 0 0 1rem; }
        .message { margin: 1rem 0; padding: .75rem 1rem; border-radius: 12px; }
        .user { background: #6366f1; color: #fff; margin-left: 20%; }
        .assistant { background: #fff; border: 1px solid #e2e8f0; margin-right: 20%; }
        .message-header { font-size: .8rem; font-weight: 600; opacity: .8; }
        .message-header .time { font-weight: 400; margin-left: .5rem; }
        pre { background: #0f172a; color: #e2e8f0; padding: .75rem; border-radius: 8px; overflow-x: auto; }
        footer { color: #94a3b8; font-size: .8rem; text-align: center; margin-top: 2rem; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>{{.Title}}</h1>
            {{if .Document}}<p class="document">{{.Document}}</p>{{end}}
        </header>
        <main>
{{range .Messages}}            <div class="message {{.Class}}">
                <div class="message-header">{{.Label}}{{if .Time}}<span class="time">{{.Time}}</span>{{end}}</div>
                <div class="message-content">{{.Content}}</div>
            </div>
{{end}}        </main>
        <footer>{{.Exported}}</footer>
    </div>
</body>
</html>
`))
