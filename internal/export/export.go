// ABOUTME: Transcript export to Markdown and HTML files
// ABOUTME: Markdown is the source form; HTML is rendered from it with goldmark

package export

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/lexdesk/lexdesk/internal/session"
)

// Format selects the export file format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Exporter writes conversation transcripts to a directory.
type Exporter struct {
	dir string
}

// New creates an exporter targeting dir. Relative paths resolve against
// the working directory at export time.
func New(dir string) *Exporter {
	return &Exporter{dir: strings.TrimSpace(dir)}
}

// Export writes the transcript and returns the path of the written file.
func (e *Exporter) Export(conv session.Conversation, messages []session.Message, format Format) (string, error) {
	dir := e.dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	md := BuildTranscriptMarkdown(conv, messages, time.Now().UTC())

	var (
		content []byte
		ext     string
	)
	switch format {
	case FormatHTML:
		page, err := RenderHTML(conv.Title, md)
		if err != nil {
			return "", err
		}
		content, ext = page, ".html"
	case FormatMarkdown, "":
		content, ext = []byte(md), ".md"
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}

	path := filepath.Join(dir, safeFileName(exportName(conv))+ext)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("writing export file: %w", err)
	}
	return path, nil
}

// BuildTranscriptMarkdown renders a conversation into Markdown. Empty
// messages and unfinished streaming placeholders are skipped; failed
// sends and stopped partial replies are labeled.
func BuildTranscriptMarkdown(conv session.Conversation, messages []session.Message, now time.Time) string {
	var b strings.Builder

	title := conv.Title
	if title == "" {
		title = "Conversation"
	}
	b.WriteString("# " + title + "\n\n")
	b.WriteString("Exported: " + now.Format(time.RFC3339) + "\n\n")
	b.WriteString("```text\n")
	b.WriteString("context: " + safeValue(string(conv.Context)) + "\n")
	b.WriteString(fmt.Sprintf("messages: %d\n", len(messages)))
	b.WriteString("```\n\n")

	for _, m := range messages {
		content := strings.TrimSpace(m.Content)
		if content == "" || m.Streaming {
			continue
		}

		switch m.Role {
		case session.RoleUser:
			header := "## You"
			if m.Delivery == session.DeliveryFailed {
				header += " (not delivered)"
			}
			b.WriteString(header + "\n\n")
			b.WriteString(content + "\n\n")
		case session.RoleAssistant:
			b.WriteString("## Assistant\n\n")
			b.WriteString(content + "\n\n")
			if m.Meta != nil && m.Meta.Model != "" {
				b.WriteString(fmt.Sprintf("_%s, confidence %.2f_\n\n", m.Meta.Model, m.Meta.Confidence))
			}
		default:
			b.WriteString("## System\n\n")
			b.WriteString("```text\n")
			b.WriteString(content + "\n")
			b.WriteString("```\n\n")
		}
	}

	return strings.TrimSpace(b.String()) + "\n"
}

// RenderHTML converts transcript Markdown into a standalone HTML page.
func RenderHTML(title, markdown string) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("rendering HTML: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	page.WriteString("<meta charset=\"utf-8\">\n")
	page.WriteString("<title>" + html.EscapeString(title) + "</title>\n")
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

func exportName(conv session.Conversation) string {
	if conv.Title != "" {
		return conv.Title
	}
	if conv.ID != "" {
		return conv.ID
	}
	return "conversation"
}

func safeFileName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "conversation"
	}
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return replacer.Replace(s)
}

func safeValue(s string) string {
	if strings.TrimSpace(s) == "" {
		return "n/a"
	}
	return s
}
