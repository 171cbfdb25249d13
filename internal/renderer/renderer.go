package renderer

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/dpshade/pocket-compose/internal/compose"
)

// Renderer formats one resolution pass
type Renderer struct {
	pass *compose.Pass
}

// NewRenderer creates a new renderer instance
func NewRenderer(pass *compose.Pass) *Renderer {
	return &Renderer{pass: pass}
}

// RenderText renders the terminal outputs as plain text. A single output is
// printed bare; several are each preceded by their leaf label.
func (r *Renderer) RenderText() string {
	outputs := r.pass.Outputs
	if len(outputs) == 1 {
		return outputs[0].Text
	}

	var b strings.Builder
	for i, out := range outputs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s]\n%s", out.Label, out.Text)
	}
	return b.String()
}

// Value is one wildcard choice as shown to the user
type Value struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Display  string `json:"display"`
	Index    int    `json:"index"`
	Override bool   `json:"override,omitempty"`
}

// passJSON is the JSON shape of a pass
type passJSON struct {
	CompositionID int64                    `json:"composition_id"`
	Total         int64                    `json:"total"`
	BucketID      int64                    `json:"bucket_id"`
	BucketTotal   int64                    `json:"bucket_total"`
	LockedTotal   int64                    `json:"locked_total"`
	ExtIndex      int                      `json:"ext_index"`
	Values        []Value                  `json:"values"`
	Outputs       []compose.Output         `json:"outputs"`
	Blocks        []*compose.ResolvedBlock `json:"blocks"`
	Warnings      []string                 `json:"warnings,omitempty"`
}

// RenderJSON renders the whole pass, including every resolved block
func (r *Renderer) RenderJSON() (string, error) {
	p := r.pass
	out := passJSON{
		CompositionID: p.Session.CompositionID,
		Total:         p.Total,
		BucketID:      p.Session.BucketID,
		BucketTotal:   p.BucketTotal,
		LockedTotal:   p.LockedTotal,
		ExtIndex:      p.Indices.Ext,
		Values:        Values(p),
		Outputs:       p.Outputs,
		Warnings:      Warnings(p),
	}
	for _, path := range p.Resolution.Order {
		out.Blocks = append(out.Blocks, p.Resolution.Blocks[path])
	}

	jsonBytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal to JSON: %w", err)
	}
	return string(jsonBytes), nil
}

// RenderMarkdown renders a markdown report: position, chosen values and the
// terminal outputs
func (r *Renderer) RenderMarkdown() string {
	p := r.pass
	var b strings.Builder
	fmt.Fprintf(&b, "## Composition %d of %d\n\n", p.Session.CompositionID, p.Total)
	fmt.Fprintf(&b, "Bucket %d of %d · locked batch %d\n\n", p.Session.BucketID, p.BucketTotal, p.LockedTotal)

	if values := Values(p); len(values) > 0 {
		b.WriteString("| wildcard | value | index |\n|---|---|---|\n")
		for _, v := range values {
			shown := v.Display
			if v.Display != v.Value {
				shown = fmt.Sprintf("%s (%s)", v.Display, v.Value)
			}
			if v.Override {
				shown += " *"
			}
			fmt.Fprintf(&b, "| %s | %s | %d |\n", v.Name, escapeCell(shown), v.Index)
		}
		b.WriteString("\n")
	}

	for _, out := range p.Outputs {
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", out.Label, out.Text)
	}

	if warnings := Warnings(p); len(warnings) > 0 {
		b.WriteString("---\n\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "- ⚠ %s\n", w)
		}
	}
	return b.String()
}

// Values lists the distinct wildcard choices made in a pass, sorted by name
func Values(p *compose.Pass) []Value {
	seen := make(map[string]bool)
	var values []Value
	for _, path := range p.Resolution.Order {
		for _, sub := range p.Resolution.Blocks[path].Substitutions {
			if seen[sub.Name] {
				continue
			}
			seen[sub.Name] = true
			values = append(values, Value{
				Name:     sub.Name,
				Value:    sub.Value,
				Display:  sub.Display,
				Index:    sub.Index,
				Override: sub.Override,
			})
		}
	}
	sort.Slice(values, func(i, j int) bool { return values[i].Name < values[j].Name })
	return values
}

// Warnings renders the pass warnings as strings
func Warnings(p *compose.Pass) []string {
	if len(p.Warnings) == 0 {
		return nil
	}
	out := make([]string, len(p.Warnings))
	for i, w := range p.Warnings {
		out[i] = w.String()
	}
	return out
}

// RenderSamples renders several passes as one markdown document
func RenderSamples(passes []*compose.Pass) string {
	var b strings.Builder
	for i, p := range passes {
		fmt.Fprintf(&b, "## Sample %d · composition %d\n\n", i+1, p.Session.CompositionID)
		for _, out := range p.Outputs {
			fmt.Fprintf(&b, "- %s\n", strings.ReplaceAll(out.Text, "\n", " "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderBucket renders the windows of a bucket-composition as markdown
func RenderBucket(bucket compose.Bucket, table compose.Table, slot int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Bucket %d of %d · slot %d of %d\n\n", bucket.ID, bucket.Total, slot, bucket.SlotTotal())
	b.WriteString("| wildcard | window |\n|---|---|\n")
	if bucket.HasExt() {
		fmt.Fprintf(&b, "| ext_text | %s |\n", joinInts(bucket.ExtWindow()))
	}
	for _, name := range table.Names() {
		window := bucket.Window(name)
		shown := make([]string, len(window))
		for i, idx := range window {
			shown[i], _ = table.Value(name, idx)
		}
		fmt.Fprintf(&b, "| %s | %s |\n", name, escapeCell(strings.Join(shown, ", ")))
	}
	return b.String()
}

func joinInts(ints []int) string {
	parts := make([]string, len(ints))
	for i, n := range ints {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// NewTermRenderer creates a glamour renderer. style may name a standard
// glamour style; empty picks one from $GLAMOUR_STYLE or the terminal
// background.
func NewTermRenderer(style string, wordWrap int) (*glamour.TermRenderer, error) {
	if style == "" {
		style = os.Getenv("GLAMOUR_STYLE")
	}
	if style != "" {
		return glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(wordWrap),
		)
	}

	profile := termenv.ColorProfile()
	styleOption := glamour.WithAutoStyle()
	if profile == termenv.TrueColor || profile == termenv.ANSI256 {
		if lipgloss.HasDarkBackground() {
			styleOption = glamour.WithStandardStyle("dark")
		} else {
			styleOption = glamour.WithStandardStyle("light")
		}
	}

	return glamour.NewTermRenderer(
		styleOption,
		glamour.WithColorProfile(profile),
		glamour.WithWordWrap(wordWrap),
	)
}

// RenderTerminal renders markdown for the terminal
func RenderTerminal(markdown, style string, wordWrap int) (string, error) {
	tr, err := NewTermRenderer(style, wordWrap)
	if err != nil {
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := tr.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
