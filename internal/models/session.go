package models

// Operation maps wildcard name to a table of original value -> display value
type Operation map[string]map[string]string

// Session is the snapshot of UI state a resolution pass runs against.
// The engine never mutates it.
type Session struct {
	CompositionID int64               `yaml:"composition_id" json:"composition_id"`
	BucketID      int64               `yaml:"bucket_id,omitempty" json:"bucket_id,omitempty"`
	Overrides     map[string]string   `yaml:"overrides,omitempty" json:"overrides,omitempty"`
	Locked        map[string][]string `yaml:"locked,omitempty" json:"locked,omitempty"`
	Operation     Operation           `yaml:"operation,omitempty" json:"operation,omitempty"`
}

// WithComposition returns a copy of the session pointed at another composition
func (s Session) WithComposition(id int64) Session {
	s.CompositionID = id
	return s
}

// WithOverrides returns a copy of the session with the given overrides merged
// over the existing ones
func (s Session) WithOverrides(overrides map[string]string) Session {
	merged := make(map[string]string, len(s.Overrides)+len(overrides))
	for k, v := range s.Overrides {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	s.Overrides = merged
	return s
}
