package compose

import (
	"sort"

	"github.com/dpshade/pocket-compose/internal/models"
)

// TransformValue returns the display value for a resolved wildcard value.
// The underlying value is never changed.
func TransformValue(op models.Operation, name, value string) (string, bool) {
	if mapped, ok := op[name][value]; ok {
		return mapped, true
	}
	return value, false
}

// ApplyOperation returns a copy of res whose substitutions carry display
// values from op, with own and accumulated text re-rendered from them.
// Values, indices and paths are untouched.
func ApplyOperation(res *Resolution, op models.Operation) *Resolution {
	if res == nil {
		return nil
	}
	out := &Resolution{
		Blocks:   make(map[string]*ResolvedBlock, len(res.Blocks)),
		Order:    append([]string(nil), res.Order...),
		Warnings: append([]Warning(nil), res.Warnings...),
	}

	for _, path := range res.Order {
		src := res.Blocks[path]
		rb := *src
		rb.Substitutions = make([]Substitution, len(src.Substitutions))
		for i, sub := range src.Substitutions {
			sub.Display, sub.Replaced = TransformValue(op, sub.Name, sub.Value)
			rb.Substitutions[i] = sub
		}
		rb.Own = fill(rb.Raw, rb.Substitutions)

		// Order is pre-order, so the parent is already rewritten
		parentText := ""
		if parent, ok := out.Blocks[rb.Parent]; ok {
			parentText = parent.Accumulated
		}
		rb.Accumulated = SmartJoin(parentText, rb.Own)
		out.Blocks[path] = &rb
	}
	return out
}

// UnmatchedOperationRules reports rules whose key is not a value of the
// wildcard they target. They have no effect; this is only a warning list.
func UnmatchedOperationRules(op models.Operation, table Table) []Warning {
	var warnings []Warning
	names := make([]string, 0, len(op))
	for name := range op {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		keys := make([]string, 0, len(op[name]))
		for k := range op[name] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if table.IndexOf(name, k) < 0 {
				warnings = append(warnings, Warning{Kind: WarnUnmatchedOperation, Name: name, Value: k})
			}
		}
	}
	return warnings
}
