package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/journify/core/internal/application/query"
)

// Export formats accepted by the export command.
const (
	formatJSON     = "json"
	formatYAML     = "yaml"
	formatMarkdown = "markdown"
)

type exportDocument struct {
	ExportedAt time.Time     `json:"exportedAt" yaml:"exported_at"`
	Owner      string        `json:"owner,omitempty" yaml:"owner,omitempty"`
	Entries    []exportEntry `json:"entries" yaml:"entries"`
}

type exportEntry struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title,omitempty" yaml:"title,omitempty"`
	Content     string    `json:"content" yaml:"content"`
	Mood        string    `json:"mood,omitempty" yaml:"mood,omitempty"`
	Tags        []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	IsHighlight bool      `json:"isHighlight" yaml:"highlight"`
	Attachments []string  `json:"attachments,omitempty" yaml:"attachments,omitempty"`
	CreatedAt   time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updated_at"`
}

func buildExport(owner string, entries []query.EntryView, now time.Time) exportDocument {
	doc := exportDocument{ExportedAt: now, Owner: owner, Entries: make([]exportEntry, 0, len(entries))}
	for _, e := range entries {
		out := exportEntry{
			ID:          e.ID,
			Content:     e.Content,
			IsHighlight: e.IsHighlight,
			CreatedAt:   e.CreatedAt,
			UpdatedAt:   e.UpdatedAt,
		}
		if e.Title != nil {
			out.Title = *e.Title
		}
		if e.Mood != nil {
			out.Mood = string(*e.Mood)
		}
		for _, t := range e.Tags {
			out.Tags = append(out.Tags, t.Name)
		}
		for _, a := range e.Attachments {
			out.Attachments = append(out.Attachments, a.Filename)
		}
		doc.Entries = append(doc.Entries, out)
	}
	return doc
}

func writeExport(w io.Writer, format string, doc exportDocument, loc *time.Location) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case formatMarkdown:
		_, err := io.WriteString(w, renderMarkdown(doc, loc))
		return err
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// renderMarkdown groups entries under one heading per calendar day.
func renderMarkdown(doc exportDocument, loc *time.Location) string {
	var b bytes.Buffer
	b.WriteString("# Journal\n")

	day := ""
	for _, e := range doc.Entries {
		if key := query.DayKey(e.CreatedAt, loc); key != day {
			day = key
			fmt.Fprintf(&b, "\n## %s\n", day)
		}

		title := e.Title
		if title == "" {
			title = "Untitled"
		}
		if e.IsHighlight {
			title += " ★"
		}
		fmt.Fprintf(&b, "\n### %s\n\n", title)

		var meta []string
		meta = append(meta, e.CreatedAt.In(loc).Format("15:04"))
		if e.Mood != "" {
			meta = append(meta, "mood: "+e.Mood)
		}
		if len(e.Tags) > 0 {
			meta = append(meta, "tags: "+strings.Join(e.Tags, ", "))
		}
		fmt.Fprintf(&b, "_%s_\n\n", strings.Join(meta, " | "))
		b.WriteString(strings.TrimSpace(e.Content))
		b.WriteString("\n")

		for _, a := range e.Attachments {
			fmt.Fprintf(&b, "\n- attachment: %s", a)
		}
		if len(e.Attachments) > 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func validExportFormat(format string) bool {
	switch format {
	case formatJSON, formatYAML, formatMarkdown:
		return true
	}
	return false
}
