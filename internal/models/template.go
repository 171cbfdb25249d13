package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Template represents a parameterized prompt built from a forest of blocks
type Template struct {
	// Frontmatter fields
	ID          string            `yaml:"id" json:"id"`
	Version     string            `yaml:"version,omitempty" json:"version,omitempty"`
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string          `yaml:"tags,omitempty" json:"tags,omitempty"`
	Window      int               `yaml:"window,omitempty" json:"window,omitempty"` // Default window cap for local wildcards
	Wildcards   []Wildcard        `yaml:"wildcards,omitempty" json:"wildcards,omitempty"`
	Blocks      []Block           `yaml:"blocks" json:"blocks"`
	Metadata    map[string]string `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt   time.Time         `yaml:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt   time.Time         `yaml:"updated_at,omitempty" json:"updated_at,omitempty"`

	FilePath string `yaml:"-" json:"-"` // Path to the file
}

// Wildcard is a named, ordered list of values substituted for __name__
type Wildcard struct {
	Name   string   `yaml:"name" json:"name"`
	Values []string `yaml:"values" json:"values"`
	Window int      `yaml:"window,omitempty" json:"window,omitempty"`
}

// Block is one node of a template's block forest. Its Body is either a
// ContentBody or an ExtTextBody.
type Block struct {
	Body  BlockBody
	After []Block
}

// BlockBody is the sum type of block variants
type BlockBody interface {
	blockBody()
}

// ContentBody is literal text containing __name__ placeholders
type ContentBody struct {
	Text string
}

// ExtTextBody references an external text pool
type ExtTextBody struct {
	Pool   PoolID
	Window int // 0 means no windowing
}

func (ContentBody) blockBody() {}
func (ExtTextBody) blockBody() {}

// ContentBlock builds a content block with the given children
func ContentBlock(text string, after ...Block) Block {
	return Block{Body: ContentBody{Text: text}, After: after}
}

// ExtTextBlock builds an ext_text block with the given children
func ExtTextBlock(pool PoolID, window int, after ...Block) Block {
	return Block{Body: ExtTextBody{Pool: pool, Window: window}, After: after}
}

// blockYAML is the on-disk shape of a block
type blockYAML struct {
	Content *string `yaml:"content,omitempty" json:"content,omitempty"`
	ExtText string  `yaml:"ext_text,omitempty" json:"ext_text,omitempty"`
	Window  int     `yaml:"window,omitempty" json:"window,omitempty"`
	After   []Block `yaml:"after,omitempty" json:"after,omitempty"`
}

// UnmarshalYAML decodes a block, requiring exactly one of content or ext_text
func (b *Block) UnmarshalYAML(node *yaml.Node) error {
	var raw blockYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}

	switch {
	case raw.Content != nil && raw.ExtText != "":
		return fmt.Errorf("line %d: block has both content and ext_text", node.Line)
	case raw.ExtText != "":
		b.Body = ExtTextBody{Pool: PoolID(raw.ExtText), Window: raw.Window}
	case raw.Content != nil:
		b.Body = ContentBody{Text: *raw.Content}
	default:
		return fmt.Errorf("line %d: block needs content or ext_text", node.Line)
	}
	b.After = raw.After
	return nil
}

// MarshalYAML encodes a block in its on-disk shape
func (b Block) MarshalYAML() (interface{}, error) {
	raw := blockYAML{After: b.After}
	switch body := b.Body.(type) {
	case ContentBody:
		text := body.Text
		raw.Content = &text
	case ExtTextBody:
		raw.ExtText = string(body.Pool)
		raw.Window = body.Window
	default:
		return nil, fmt.Errorf("unknown block body %T", b.Body)
	}
	return raw, nil
}

// MarshalJSON encodes a block in the same shape as its YAML form
func (b Block) MarshalJSON() ([]byte, error) {
	raw, err := b.MarshalYAML()
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

// Walk visits every block in document order (depth-first, pre-order).
// Returning false from fn skips the block's children.
func (t *Template) Walk(fn func(path string, depth int, b *Block) bool) {
	var walk func(blocks []Block, prefix string, depth int)
	walk = func(blocks []Block, prefix string, depth int) {
		for i := range blocks {
			path := JoinPath(prefix, i)
			if fn(path, depth, &blocks[i]) {
				walk(blocks[i].After, path, depth+1)
			}
		}
	}
	walk(t.Blocks, "", 0)
}

// BlockAt returns the block addressed by a dot-joined path like "0.1.2"
func (t *Template) BlockAt(path string) (*Block, bool) {
	if path == "" {
		return nil, false
	}
	blocks := t.Blocks
	var current *Block
	for _, part := range strings.Split(path, ".") {
		i, err := strconv.Atoi(part)
		if err != nil || i < 0 || i >= len(blocks) {
			return nil, false
		}
		current = &blocks[i]
		blocks = current.After
	}
	return current, true
}

// PoolRefs returns the distinct pools referenced by ext_text blocks, in
// first-appearance order
func (t *Template) PoolRefs() []PoolID {
	seen := make(map[PoolID]bool)
	var refs []PoolID
	t.Walk(func(_ string, _ int, b *Block) bool {
		if ext, ok := b.Body.(ExtTextBody); ok && !seen[ext.Pool] {
			seen[ext.Pool] = true
			refs = append(refs, ext.Pool)
		}
		return true
	})
	return refs
}

// JoinPath appends a sibling index to a block path
func JoinPath(prefix string, index int) string {
	if prefix == "" {
		return strconv.Itoa(index)
	}
	return prefix + "." + strconv.Itoa(index)
}
