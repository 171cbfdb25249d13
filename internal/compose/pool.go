package compose

import (
	"sort"

	"github.com/dpshade/pocket-compose/internal/models"
)

// Table is the flat wildcard name -> values lookup shared by local and pool
// wildcards
type Table map[string][]string

// BuildWildcardPool merges a template's local wildcards with those contributed
// by its pools. Local names always win, then the first pool (in reference
// order) that defines a name. Later definitions are dropped silently.
func BuildWildcardPool(local []models.Wildcard, pools []*models.Pool) Table {
	table := make(Table)
	for _, w := range mergeWildcards(local, pools) {
		table[w.Name] = w.Values
	}
	return table
}

// mergeWildcards applies the shadowing policy and keeps the winning
// definition whole, window cap included
func mergeWildcards(local []models.Wildcard, pools []*models.Pool) []models.Wildcard {
	seen := make(map[string]bool)
	var merged []models.Wildcard
	add := func(w models.Wildcard) {
		if w.Name == "" || seen[w.Name] {
			return
		}
		seen[w.Name] = true
		merged = append(merged, w)
	}

	for _, w := range local {
		add(w)
	}
	for _, p := range pools {
		if p == nil {
			continue
		}
		for _, w := range p.Wildcards {
			add(w)
		}
	}
	return merged
}

// Names returns the wildcard names in canonical (ascending) dimension order
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Counts returns the value count of every wildcard
func (t Table) Counts() map[string]int {
	counts := make(map[string]int, len(t))
	for name, values := range t {
		counts[name] = len(values)
	}
	return counts
}

// IndexOf returns the position of value in the named wildcard, or -1
func (t Table) IndexOf(name, value string) int {
	for i, v := range t[name] {
		if v == value {
			return i
		}
	}
	return -1
}

// Value returns the value at index, wrapping around the list
func (t Table) Value(name string, index int) (string, bool) {
	values, ok := t[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[int(mod(int64(index), int64(len(values))))], true
}
