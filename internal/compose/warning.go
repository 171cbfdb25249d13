package compose

import "fmt"

// WarningKind classifies a degradation the engine absorbed
type WarningKind string

const (
	WarnMissingWildcard    WarningKind = "missing_wildcard"
	WarnUnknownOverride    WarningKind = "unknown_override"
	WarnUnmatchedOperation WarningKind = "unmatched_operation"
	WarnEmptyPool          WarningKind = "empty_pool"
)

// Warning is a non-fatal note attached to a resolution pass
type Warning struct {
	Kind  WarningKind `json:"kind" yaml:"kind"`
	Name  string      `json:"name,omitempty" yaml:"name,omitempty"`
	Value string      `json:"value,omitempty" yaml:"value,omitempty"`
	Path  string      `json:"path,omitempty" yaml:"path,omitempty"`
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnMissingWildcard:
		return fmt.Sprintf("block %s: no wildcard named %q, placeholder left as is", w.Path, w.Name)
	case WarnUnknownOverride:
		return fmt.Sprintf("block %s: value %q is not in wildcard %q, using index 0", w.Path, w.Value, w.Name)
	case WarnUnmatchedOperation:
		return fmt.Sprintf("operation rule %q on %q matches no value", w.Value, w.Name)
	case WarnEmptyPool:
		return fmt.Sprintf("pool %q has no text", w.Name)
	default:
		return string(w.Kind)
	}
}
