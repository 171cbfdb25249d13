package compose

import (
	"regexp"
	"strings"

	"github.com/dpshade/pocket-compose/internal/models"
)

// placeholderPattern matches __name__ tokens
var placeholderPattern = regexp.MustCompile(`__([A-Za-z0-9][A-Za-z0-9_\-]*?)__`)

// Placeholders returns the distinct wildcard names in text, in order of first
// appearance
func Placeholders(text string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Source is the read-only data one resolution pass reads from
type Source struct {
	Template  *models.Template
	Pools     map[models.PoolID]*models.Pool
	Wildcards Table
}

// Substitution records one wildcard filled into a block
type Substitution struct {
	Name     string `json:"name" yaml:"name"`
	Value    string `json:"value" yaml:"value"`
	Index    int    `json:"index" yaml:"index"`
	Override bool   `json:"override,omitempty" yaml:"override,omitempty"`

	// Display is what gets shown or exported; it differs from Value only
	// when an operation replaced it
	Display  string `json:"display" yaml:"display"`
	Replaced bool   `json:"replaced,omitempty" yaml:"replaced,omitempty"`
}

// ResolvedBlock is the resolution of a single block
type ResolvedBlock struct {
	Path          string         `json:"path" yaml:"path"`
	Parent        string         `json:"parent,omitempty" yaml:"parent,omitempty"`
	Depth         int            `json:"depth" yaml:"depth"`
	Leaf          bool           `json:"leaf" yaml:"leaf"`
	Raw           string         `json:"-" yaml:"-"`
	Own           string         `json:"own" yaml:"own"`
	Accumulated   string         `json:"accumulated" yaml:"accumulated"`
	Substitutions []Substitution `json:"substitutions,omitempty" yaml:"substitutions,omitempty"`
}

// Resolution maps block paths to their resolved text
type Resolution struct {
	Blocks   map[string]*ResolvedBlock
	Order    []string // document order
	Warnings []Warning
}

// Lookup returns the block at path; a missing path is not an error
func (r *Resolution) Lookup(path string) (*ResolvedBlock, bool) {
	if r == nil {
		return nil, false
	}
	b, ok := r.Blocks[path]
	return b, ok
}

// Accumulated returns the accumulated text at path, or "" for no output
func (r *Resolution) Accumulated(path string) string {
	if b, ok := r.Lookup(path); ok {
		return b.Accumulated
	}
	return ""
}

// Resolve walks the block forest in document order and fills every
// placeholder from idx, or from overrides when one is set for the name.
func Resolve(src Source, idx Indices, overrides map[string]string) *Resolution {
	res := &Resolution{Blocks: make(map[string]*ResolvedBlock)}
	if src.Template == nil {
		return res
	}

	var walk func(blocks []models.Block, parent *ResolvedBlock, prefix string, depth int)
	walk = func(blocks []models.Block, parent *ResolvedBlock, prefix string, depth int) {
		for i := range blocks {
			b := &blocks[i]
			rb := &ResolvedBlock{
				Path:  models.JoinPath(prefix, i),
				Depth: depth,
				Leaf:  len(b.After) == 0,
				Raw:   rawText(b.Body, src.Pools, idx.Ext),
			}
			parentText := ""
			if parent != nil {
				rb.Parent = parent.Path
				parentText = parent.Accumulated
			}

			rb.Own, rb.Substitutions = substitute(rb, src.Wildcards, idx, overrides, &res.Warnings)
			rb.Accumulated = SmartJoin(parentText, rb.Own)

			res.Blocks[rb.Path] = rb
			res.Order = append(res.Order, rb.Path)
			walk(b.After, rb, rb.Path, depth+1)
		}
	}
	walk(src.Template.Blocks, nil, "", 0)
	return res
}

// rawText is the unsubstituted text of a block
func rawText(body models.BlockBody, pools map[models.PoolID]*models.Pool, extIndex int) string {
	switch b := body.(type) {
	case models.ContentBody:
		return b.Text
	case models.ExtTextBody:
		pool := pools[b.Pool]
		if pool == nil || len(pool.Text) == 0 {
			return ""
		}
		return pool.Text[mod(int64(extIndex), int64(len(pool.Text)))]
	default:
		return ""
	}
}

func substitute(rb *ResolvedBlock, table Table, idx Indices, overrides map[string]string, warnings *[]Warning) (string, []Substitution) {
	var subs []Substitution
	for _, name := range Placeholders(rb.Raw) {
		// a name with no values stays verbatim even when overridden
		values, ok := table[name]
		if !ok || len(values) == 0 {
			*warnings = append(*warnings, Warning{Kind: WarnMissingWildcard, Name: name, Path: rb.Path})
			continue
		}

		sub := Substitution{Name: name}
		if v, ok := overrides[name]; ok {
			sub.Value = v
			sub.Override = true
			sub.Index = table.IndexOf(name, v)
			if sub.Index < 0 {
				sub.Index = 0
				*warnings = append(*warnings, Warning{Kind: WarnUnknownOverride, Name: name, Value: v, Path: rb.Path})
			}
		} else {
			sub.Index = int(mod(int64(idx.Get(name)), int64(len(values))))
			sub.Value = values[sub.Index]
		}
		sub.Display = sub.Value
		subs = append(subs, sub)
	}
	return fill(rb.Raw, subs), subs
}

// fill replaces placeholders with the display value of their substitution.
// Names without a substitution stay verbatim.
func fill(raw string, subs []Substitution) string {
	if len(subs) == 0 {
		return raw
	}
	byName := make(map[string]string, len(subs))
	for _, s := range subs {
		byName[s.Name] = s.Display
	}
	return placeholderPattern.ReplaceAllStringFunc(raw, func(token string) string {
		name := token[2 : len(token)-2]
		if v, ok := byName[name]; ok {
			return v
		}
		return token
	})
}

// SmartJoin joins two text fragments without doubled whitespace or run-on
// words: a direct concatenation when a already ends in whitespace or b starts
// with whitespace or a comma, a single space otherwise.
func SmartJoin(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if strings.ContainsAny(a[len(a)-1:], " \n\t") || strings.ContainsAny(b[:1], ", \n\t") {
		return a + b
	}
	return strings.TrimRight(a, " \t\n") + " " + strings.TrimLeft(b, " \t\n")
}
