package service

import (
	"context"
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/errgroup"

	"github.com/dpshade/pocket-compose/internal/compose"
	"github.com/dpshade/pocket-compose/internal/config"
	apperrors "github.com/dpshade/pocket-compose/internal/errors"
	"github.com/dpshade/pocket-compose/internal/logger"
	"github.com/dpshade/pocket-compose/internal/models"
	"github.com/dpshade/pocket-compose/internal/storage"
)

// PoolLoader fetches one external text pool
type PoolLoader interface {
	LoadPool(ctx context.Context, id models.PoolID) (*models.Pool, error)
}

// Service ties storage, the pool cache and the composition engine together.
// It holds no per-session state: every call receives its own Session.
type Service struct {
	storage *storage.Storage
	pools   PoolLoader
	cfg     *config.Config
	log     *logger.Logger
}

// Option customizes a Service
type Option func(*Service)

// WithPoolLoader replaces the default cached file loader
func WithPoolLoader(loader PoolLoader) Option {
	return func(s *Service) { s.pools = loader }
}

// NewService creates a new service instance over cfg.RootDir
func NewService(cfg *config.Config, log *logger.Logger, opts ...Option) (*Service, error) {
	if log == nil {
		log = logger.Nop()
	}
	store, err := storage.NewStorage(cfg.RootDir)
	if err != nil {
		return nil, apperrors.StorageError("open library", err)
	}

	svc := &Service{
		storage: store,
		pools:   storage.NewPoolCache(store),
		cfg:     cfg,
		log:     log,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Config returns the active configuration
func (s *Service) Config() *config.Config {
	return s.cfg
}

// InitLibrary initializes a new template library
func (s *Service) InitLibrary() error {
	return s.storage.InitLibrary()
}

// ListTemplates returns all templates
func (s *Service) ListTemplates() ([]*models.Template, error) {
	return s.storage.ListTemplates()
}

// GetTemplate loads a template by id
func (s *Service) GetTemplate(id string) (*models.Template, error) {
	return s.storage.LoadTemplate(id)
}

// SaveTemplate stores a template
func (s *Service) SaveTemplate(tmpl *models.Template) error {
	return s.storage.SaveTemplate(tmpl)
}

// SavePool stores a pool
func (s *Service) SavePool(pool *models.Pool) error {
	return s.storage.SavePool(pool)
}

// ListPools returns the ids of all pools on disk
func (s *Service) ListPools() ([]models.PoolID, error) {
	return s.storage.ListPools()
}

// SearchTemplates fuzzy-matches query against id, name, description and tags
func (s *Service) SearchTemplates(query string) ([]*models.Template, error) {
	templates, err := s.ListTemplates()
	if err != nil {
		return nil, err
	}
	if query == "" {
		return templates, nil
	}

	searchStrings := make([]string, len(templates))
	for i, t := range templates {
		searchStrings[i] = strings.Join([]string{t.ID, t.Name, t.Description, strings.Join(t.Tags, " ")}, " ")
	}

	matches := fuzzy.Find(query, searchStrings)
	results := make([]*models.Template, 0, len(matches))
	for _, m := range matches {
		results = append(results, templates[m.Index])
	}
	return results, nil
}

// LoadPools fetches every pool tmpl references, concurrently. A pool that
// fails to load degrades to an empty pool; this never returns an error for
// individual pools, only the pass as a whole is cancelled through ctx.
func (s *Service) LoadPools(ctx context.Context, tmpl *models.Template) (map[models.PoolID]*models.Pool, error) {
	refs := tmpl.PoolRefs()
	loaded := make([]*models.Pool, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range refs {
		g.Go(func() error {
			pool, err := s.pools.LoadPool(gctx, id)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.log.Warn("pool unavailable, using empty pool",
					"template", tmpl.ID, "pool", id, "error", apperrors.PoolError(string(id), err).Error())
				pool = models.EmptyPool(id)
			}
			loaded[i] = pool
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pools := make(map[models.PoolID]*models.Pool, len(refs))
	for i, id := range refs {
		pools[id] = loaded[i]
	}
	return pools, nil
}

// Space loads a template and its pools and builds its combination space
func (s *Service) Space(ctx context.Context, templateID string) (*compose.Space, error) {
	tmpl, err := s.GetTemplate(templateID)
	if err != nil {
		return nil, err
	}
	pools, err := s.LoadPools(ctx, tmpl)
	if err != nil {
		return nil, err
	}

	space := compose.NewSpace(tmpl, pools, compose.SpaceOptions{
		DefaultWindow: s.cfg.DefaultWindow,
		ExtWindow:     s.cfg.ExtWindow,
	})
	s.log.Debug("space built",
		"template", tmpl.ID, "total", space.Total(), "buckets", space.BucketTotal(), "ext_text", space.ExtTextCount)
	return space, nil
}

// Resolve runs one resolution pass for sess
func (s *Service) Resolve(ctx context.Context, templateID string, sess models.Session) (*compose.Pass, error) {
	space, err := s.Space(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return space.Run(sess), nil
}

// BucketView is a bucket-composition plus the pass at one slot inside it
type BucketView struct {
	Bucket compose.Bucket
	Slot   int64
	Pass   *compose.Pass
}

// ResolveBucket resolves slot slotID inside bucket sess.BucketID
func (s *Service) ResolveBucket(ctx context.Context, templateID string, sess models.Session, slotID int64) (*BucketView, error) {
	space, err := s.Space(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return ViewBucket(space, sess, slotID), nil
}

// ViewBucket resolves a bucket slot against an already built space
func ViewBucket(space *compose.Space, sess models.Session, slotID int64) *BucketView {
	bucket := space.Bucket(sess.BucketID)
	idx := bucket.Indices(slotID)
	sess.CompositionID = space.Encode(idx)
	return &BucketView{
		Bucket: bucket,
		Slot:   mod(slotID, bucket.SlotTotal()),
		Pass:   space.RunAt(sess, idx),
	}
}

// Sample resolves n deterministic, evenly spread compositions. n <= 0 uses
// the configured sample size.
func (s *Service) Sample(ctx context.Context, templateID string, sess models.Session, n int) ([]*compose.Pass, error) {
	space, err := s.Space(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = s.cfg.SampleSize
	}

	ids := compose.SampleCompositionIDs(space.Total(), n, sess.CompositionID)
	passes := make([]*compose.Pass, len(ids))
	for i, id := range ids {
		passes[i] = space.Run(sess.WithComposition(id))
	}
	return passes, nil
}

// WildcardMatch is one wildcard value found by SearchWildcards
type WildcardMatch struct {
	Name    string
	Value   string
	Index   int
	Score   int
	Matched []int // matched byte positions in "name: value"
}

// SearchWildcards fuzzy-matches query against every "name: value" pair of the
// template's merged wildcard pool
func (s *Service) SearchWildcards(ctx context.Context, templateID, query string) ([]WildcardMatch, error) {
	space, err := s.Space(ctx, templateID)
	if err != nil {
		return nil, err
	}

	var entries []WildcardMatch
	var searchStrings []string
	for _, name := range space.Wildcards.Names() {
		for i, v := range space.Wildcards[name] {
			entries = append(entries, WildcardMatch{Name: name, Value: v, Index: i})
			searchStrings = append(searchStrings, name+": "+v)
		}
	}
	if query == "" {
		return entries, nil
	}

	matches := fuzzy.Find(query, searchStrings)
	results := make([]WildcardMatch, 0, len(matches))
	for _, m := range matches {
		entry := entries[m.Index]
		entry.Score = m.Score
		entry.Matched = m.MatchedIndexes
		results = append(results, entry)
	}
	return results, nil
}

func mod(a, m int64) int64 {
	if m <= 0 {
		return 0
	}
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
