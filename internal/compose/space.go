package compose

import "github.com/dpshade/pocket-compose/internal/models"

// Space is the combination space of one template over its loaded pools
type Space struct {
	Source
	ExtTextCount int
	Windows      Windows

	counts map[string]int
}

// SpaceOptions are the window caps used when neither the wildcard nor the
// template sets one
type SpaceOptions struct {
	DefaultWindow int
	ExtWindow     int
}

// NewSpace builds the space for tmpl. pools holds every loaded pool; a
// referenced pool missing from it counts as empty.
func NewSpace(tmpl *models.Template, pools map[models.PoolID]*models.Pool, opts SpaceOptions) *Space {
	refs := tmpl.PoolRefs()
	ordered := make([]*models.Pool, 0, len(refs))
	extTextCount := 0
	for _, id := range refs {
		p := pools[id]
		if p == nil {
			p = models.EmptyPool(id)
		}
		ordered = append(ordered, p)
		extTextCount += len(p.Text)
	}

	merged := mergeWildcards(tmpl.Wildcards, ordered)
	table := make(Table, len(merged))
	windows := Windows{Ext: extWindow(tmpl, opts.ExtWindow), Wildcards: make(map[string]int, len(merged))}
	for _, w := range merged {
		table[w.Name] = w.Values
		switch {
		case w.Window > 0:
			windows.Wildcards[w.Name] = w.Window
		case tmpl.Window > 0:
			windows.Wildcards[w.Name] = tmpl.Window
		default:
			windows.Wildcards[w.Name] = opts.DefaultWindow
		}
	}

	return &Space{
		Source:       Source{Template: tmpl, Pools: pools, Wildcards: table},
		ExtTextCount: extTextCount,
		Windows:      windows,
		counts:       table.Counts(),
	}
}

// extWindow is the first window cap set on an ext_text block
func extWindow(tmpl *models.Template, fallback int) int {
	window := 0
	tmpl.Walk(func(_ string, _ int, b *models.Block) bool {
		if ext, ok := b.Body.(models.ExtTextBody); ok && window == 0 && ext.Window > 0 {
			window = ext.Window
		}
		return window == 0
	})
	if window == 0 {
		return fallback
	}
	return window
}

// Counts returns the value count per wildcard
func (s *Space) Counts() map[string]int { return s.counts }

// Total is the raw combination count
func (s *Space) Total() int64 { return Total(s.ExtTextCount, s.counts) }

// Decode maps a composition id to value indices
func (s *Space) Decode(id int64) Indices {
	return CompositionToIndices(id, s.ExtTextCount, s.counts)
}

// Encode maps value indices back to a composition id
func (s *Space) Encode(idx Indices) int64 {
	return IndicesToComposition(idx, s.ExtTextCount, s.counts)
}

// BucketTotal is the number of bucket-compositions
func (s *Space) BucketTotal() int64 {
	return BucketTotal(s.ExtTextCount, s.counts, s.Windows)
}

// Bucket resolves a bucket-composition id into its windows
func (s *Space) Bucket(id int64) Bucket {
	return NewBucket(id, s.ExtTextCount, s.counts, s.Windows)
}

// LockedTotal is the export batch size for the given locked values
func (s *Space) LockedTotal(locked map[string][]string) int64 {
	return LockedTotal(s.counts, s.ExtTextCount, locked)
}

// Resolve resolves the template at the given indices
func (s *Space) Resolve(idx Indices, overrides map[string]string) *Resolution {
	return Resolve(s.Source, idx, overrides)
}

// Pass is everything one resolution pass produces for a session
type Pass struct {
	Session     models.Session
	Total       int64
	BucketTotal int64
	LockedTotal int64
	Indices     Indices
	Resolution  *Resolution
	Outputs     []Output
	Warnings    []Warning
}

// Run performs a full resolution pass for sess: decode, resolve, apply the
// session's operation and compose terminal outputs
func (s *Space) Run(sess models.Session) *Pass {
	idx := s.Decode(sess.CompositionID)
	return s.RunAt(sess, idx)
}

// RunAt is Run with explicit value indices, as chosen inside a bucket window
func (s *Space) RunAt(sess models.Session, idx Indices) *Pass {
	res := ApplyOperation(s.Resolve(idx, sess.Overrides), sess.Operation)

	warnings := append([]Warning(nil), res.Warnings...)
	warnings = append(warnings, UnmatchedOperationRules(sess.Operation, s.Wildcards)...)
	for _, id := range s.Template.PoolRefs() {
		if p := s.Pools[id]; p == nil || len(p.Text) == 0 {
			warnings = append(warnings, Warning{Kind: WarnEmptyPool, Name: string(id)})
		}
	}

	return &Pass{
		Session:     sess,
		Total:       s.Total(),
		BucketTotal: s.BucketTotal(),
		LockedTotal: s.LockedTotal(sess.Locked),
		Indices:     idx,
		Resolution:  res,
		Outputs:     TerminalOutputs(s.Template, res),
		Warnings:    warnings,
	}
}
