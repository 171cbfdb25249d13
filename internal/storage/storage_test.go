package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dpshade/pocket-compose/internal/errors"
	"github.com/dpshade/pocket-compose/internal/models"
)

const greetingYAML = `id: greeting
name: Greeting
window: 2
wildcards:
  - name: tone
    values: [formal, casual, terse]
  - name: role
    values: [dev, pm]
    window: 1
blocks:
  - content: "Write as a __role__,"
    after:
      - content: "in a __tone__ voice."
      - content: ""
  - ext_text: cast
    window: 3
`

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.InitLibrary())
	return store
}

func writeFile(t *testing.T, store *Storage, rel, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(store.GetBaseDir(), rel), []byte(content), 0644))
}

func TestLoadTemplate(t *testing.T) {
	store := newTestStorage(t)
	writeFile(t, store, "templates/greeting.yaml", greetingYAML)

	tmpl, err := store.LoadTemplate("greeting")
	require.NoError(t, err)

	assert.Equal(t, "greeting", tmpl.ID)
	assert.Equal(t, 2, tmpl.Window)
	require.Len(t, tmpl.Wildcards, 2)
	assert.Equal(t, 1, tmpl.Wildcards[1].Window)

	require.Len(t, tmpl.Blocks, 2)
	assert.Equal(t, models.ContentBody{Text: "Write as a __role__,"}, tmpl.Blocks[0].Body)
	require.Len(t, tmpl.Blocks[0].After, 2)
	assert.Equal(t, models.ContentBody{Text: ""}, tmpl.Blocks[0].After[1].Body)
	assert.Equal(t, models.ExtTextBody{Pool: "cast", Window: 3}, tmpl.Blocks[1].Body)
	assert.Equal(t, []models.PoolID{"cast"}, tmpl.PoolRefs())

	b, ok := tmpl.BlockAt("0.0")
	require.True(t, ok)
	assert.Equal(t, models.ContentBody{Text: "in a __tone__ voice."}, b.Body)
	_, ok = tmpl.BlockAt("0.5")
	assert.False(t, ok)
}

func TestLoadTemplateErrors(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.LoadTemplate("missing")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))

	writeFile(t, store, "templates/both.yaml", "blocks:\n  - content: x\n    ext_text: y\n")
	_, err = store.LoadTemplate("both")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeFileCorrupted))

	writeFile(t, store, "templates/empty.yaml", "wildcards:\n  - name: tone\n    values: []\nblocks: []\n")
	_, err = store.LoadTemplate("empty")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTemplateInvalid))
}

func TestSaveTemplateRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	tmpl := &models.Template{
		ID:        "letter",
		Name:      "Letter",
		Wildcards: []models.Wildcard{{Name: "who", Values: []string{"Ada", "Linus"}}},
		Blocks: []models.Block{
			models.ContentBlock("Dear __who__,", models.ExtTextBlock("closings", 2)),
		},
	}
	require.NoError(t, store.SaveTemplate(tmpl))

	loaded, err := store.LoadTemplate("letter")
	require.NoError(t, err)
	assert.Equal(t, tmpl.Blocks, loaded.Blocks)
	assert.Equal(t, tmpl.Wildcards, loaded.Wildcards)

	list, err := store.ListTemplates()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "letter", list[0].ID)

	require.NoError(t, store.DeleteTemplate("letter"))
	assert.True(t, apperrors.HasCode(store.DeleteTemplate("letter"), apperrors.ErrCodeNotFound))
}

func TestPools(t *testing.T) {
	store := newTestStorage(t)
	require.NoError(t, store.SavePool(&models.Pool{
		ID:        "cast",
		Text:      []string{"Signed, __signer__."},
		Wildcards: []models.Wildcard{{Name: "signer", Values: []string{"Ada"}}},
	}))

	pool, err := store.LoadPool(context.Background(), "cast")
	require.NoError(t, err)
	assert.Equal(t, []string{"Signed, __signer__."}, pool.Text)
	assert.Equal(t, "signer", pool.Wildcards[0].Name)

	ids, err := store.ListPools()
	require.NoError(t, err)
	assert.Equal(t, []models.PoolID{"cast"}, ids)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.LoadPool(ctx, "cast")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPoolCache(t *testing.T) {
	store := newTestStorage(t)
	require.NoError(t, store.SavePool(&models.Pool{ID: "cast", Text: []string{"one"}}))
	cache := NewPoolCache(store)
	ctx := context.Background()

	first, err := cache.LoadPool(ctx, "cast")
	require.NoError(t, err)
	second, err := cache.LoadPool(ctx, "cast")
	require.NoError(t, err)
	assert.Same(t, first, second)

	hits, misses := cache.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	// editing the file invalidates the entry
	require.NoError(t, store.SavePool(&models.Pool{ID: "cast", Text: []string{"one", "two"}}))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.GetBaseDir(), "pools", "cast.yaml"), future, future))

	third, err := cache.LoadPool(ctx, "cast")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, third.Text)

	_, err = cache.LoadPool(ctx, "nope")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}
