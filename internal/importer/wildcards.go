package importer

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/dpshade/pocket-compose/internal/compose"
	"github.com/dpshade/pocket-compose/internal/models"
)

var invalidNameChars = regexp.MustCompile(`[^A-Za-z0-9_\-]+`)

// WildcardImporter builds external text pools from directories of
// plain-text wildcard files, one value per line
type WildcardImporter struct {
	textFile string // file name holding the pool's texts
}

// NewWildcardImporter creates an importer. Files named textFile are read as
// the pool's texts instead of as a wildcard.
func NewWildcardImporter(textFile string) *WildcardImporter {
	if textFile == "" {
		textFile = "text.txt"
	}
	return &WildcardImporter{textFile: textFile}
}

// ImportOptions configures one import
type ImportOptions struct {
	Dir         string // directory to scan
	PoolID      string // defaults to the directory's base name
	Name        string
	Description string
	Window      int // bucket window applied to every imported wildcard
}

// ImportResult contains the built pool and anything skipped along the way
type ImportResult struct {
	Pool     *models.Pool
	Skipped  []string // files that held no values
	Warnings []string // placeholders in texts that no imported wildcard defines
}

// Import scans opts.Dir recursively. Each *.txt file becomes a wildcard
// named after its path relative to Dir.
func (i *WildcardImporter) Import(opts ImportOptions) (*ImportResult, error) {
	info, err := os.Stat(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", opts.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", opts.Dir)
	}

	id := opts.PoolID
	if id == "" {
		id = sanitizeName(filepath.Base(filepath.Clean(opts.Dir)))
	}
	if id == "" {
		return nil, fmt.Errorf("cannot derive a pool id from %s", opts.Dir)
	}

	result := &ImportResult{
		Pool: &models.Pool{
			ID:          models.PoolID(id),
			Name:        opts.Name,
			Description: opts.Description,
			Text:        []string{},
			Wildcards:   []models.Wildcard{},
		},
	}
	seen := make(map[string]string)

	err = filepath.WalkDir(opts.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".txt") {
			return nil
		}
		rel, err := filepath.Rel(opts.Dir, path)
		if err != nil {
			return err
		}

		if rel == i.textFile {
			texts, err := readParagraphs(path)
			if err != nil {
				return err
			}
			result.Pool.Text = texts
			return nil
		}

		name := wildcardName(rel)
		if name == "" {
			result.Skipped = append(result.Skipped, rel)
			return nil
		}
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("%s and %s both map to wildcard %q", prev, rel, name)
		}

		values, err := readLines(path)
		if err != nil {
			return err
		}
		if len(values) == 0 {
			result.Skipped = append(result.Skipped, rel)
			return nil
		}
		seen[name] = rel
		result.Pool.Wildcards = append(result.Pool.Wildcards, models.Wildcard{
			Name:   name,
			Values: values,
			Window: opts.Window,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", opts.Dir, err)
	}

	sort.Slice(result.Pool.Wildcards, func(a, b int) bool {
		return result.Pool.Wildcards[a].Name < result.Pool.Wildcards[b].Name
	})
	result.Warnings = undefinedPlaceholders(result.Pool.Text, seen)
	return result, nil
}

// readLines returns the non-blank lines of a file, skipping # comments
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var values []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		values = append(values, line)
	}
	return values, scanner.Err()
}

// readParagraphs splits a file into texts separated by blank lines
func readParagraphs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	texts := []string{}
	var current []string
	flush := func() {
		if len(current) > 0 {
			texts = append(texts, strings.Join(current, "\n"))
			current = nil
		}
	}
	for _, line := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
		case strings.HasPrefix(trimmed, "#"):
		default:
			current = append(current, strings.TrimRight(line, " \t"))
		}
	}
	flush()
	return texts, nil
}

// wildcardName turns a relative file path into a placeholder-safe name:
// "colors/warm.txt" becomes "colors-warm"
func wildcardName(rel string) string {
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i, p := range parts {
		parts[i] = sanitizeName(p)
	}
	return strings.Trim(strings.Join(parts, "-"), "-_")
}

func sanitizeName(s string) string {
	s = invalidNameChars.ReplaceAllString(strings.TrimSpace(s), "_")
	return strings.Trim(s, "-_")
}

func undefinedPlaceholders(texts []string, defined map[string]string) []string {
	var warnings []string
	reported := make(map[string]bool)
	for _, text := range texts {
		for _, name := range compose.Placeholders(text) {
			if _, ok := defined[name]; ok || reported[name] {
				continue
			}
			reported[name] = true
			warnings = append(warnings, fmt.Sprintf("text references __%s__ but no %s.txt was imported", name, name))
		}
	}
	return warnings
}
