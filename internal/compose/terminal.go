package compose

import (
	"strings"

	"github.com/dpshade/pocket-compose/internal/models"
)

// MaxTerminalOutputs caps the number of distinct terminal outputs
const MaxTerminalOutputs = 50

// Output is one final string: a leaf from every root block, smart-joined
type Output struct {
	Label string   `json:"label" yaml:"label"`
	Text  string   `json:"text" yaml:"text"`
	Paths []string `json:"paths" yaml:"paths"`
}

// LeafPaths lists the leaf paths under every root block, one list per root
func LeafPaths(tmpl *models.Template) [][]string {
	if tmpl == nil {
		return nil
	}
	roots := make([][]string, len(tmpl.Blocks))
	for i := range tmpl.Blocks {
		roots[i] = leaves(&tmpl.Blocks[i], models.JoinPath("", i))
	}
	return roots
}

func leaves(b *models.Block, path string) []string {
	if len(b.After) == 0 {
		return []string{path}
	}
	var out []string
	for i := range b.After {
		out = append(out, leaves(&b.After[i], models.JoinPath(path, i))...)
	}
	return out
}

// TerminalOutputs takes the cartesian product of leaves across root blocks,
// first root varying slowest, and joins the chosen leaves' accumulated text.
// Duplicates (by exact text) are dropped and enumeration stops after
// MaxTerminalOutputs distinct outputs.
func TerminalOutputs(tmpl *models.Template, res *Resolution) []Output {
	roots := LeafPaths(tmpl)
	if len(roots) == 0 {
		return nil
	}

	var outputs []Output
	seen := make(map[string]bool)
	chosen := make([]string, 0, len(roots))

	var walk func(root int, text string) bool
	walk = func(root int, text string) bool {
		if root == len(roots) {
			if seen[text] {
				return true
			}
			seen[text] = true
			paths := append([]string(nil), chosen...)
			outputs = append(outputs, Output{
				Label: strings.Join(paths, " + "),
				Text:  text,
				Paths: paths,
			})
			return len(outputs) < MaxTerminalOutputs
		}
		for _, path := range roots[root] {
			chosen = append(chosen, path)
			more := walk(root+1, SmartJoin(text, res.Accumulated(path)))
			chosen = chosen[:len(chosen)-1]
			if !more {
				return false
			}
		}
		return true
	}
	walk(0, "")
	return outputs
}
