package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dpshade/pocket-compose/internal/compose"
	"github.com/dpshade/pocket-compose/internal/config"
	apperrors "github.com/dpshade/pocket-compose/internal/errors"
	"github.com/dpshade/pocket-compose/internal/logger"
	"github.com/dpshade/pocket-compose/internal/models"
)

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	cfg := config.Default(t.TempDir())
	svc, err := NewService(cfg, logger.Nop(), opts...)
	require.NoError(t, err)
	require.NoError(t, svc.InitLibrary())

	require.NoError(t, svc.SaveTemplate(&models.Template{
		ID:   "greeting",
		Name: "Greeting",
		Tags: []string{"letters"},
		Wildcards: []models.Wildcard{
			{Name: "tone", Values: []string{"formal", "casual", "terse"}},
			{Name: "role", Values: []string{"dev", "pm"}},
		},
		Blocks: []models.Block{
			models.ContentBlock("Write as a __role__,",
				models.ContentBlock("in a __tone__ voice."),
				models.ContentBlock("briefly."),
			),
			models.ExtTextBlock("cast", 0),
		},
	}))
	require.NoError(t, svc.SavePool(&models.Pool{
		ID:        "cast",
		Text:      []string{"Signed, __signer__.", "Cheers."},
		Wildcards: []models.Wildcard{{Name: "signer", Values: []string{"Ada", "Linus"}}},
	}))
	return svc
}

type failingLoader struct{}

func (failingLoader) LoadPool(_ context.Context, id models.PoolID) (*models.Pool, error) {
	return nil, fmt.Errorf("pool %s is offline", id)
}

func TestResolve(t *testing.T) {
	svc := newTestService(t)

	pass, err := svc.Resolve(context.Background(), "greeting", models.Session{})
	require.NoError(t, err)

	// ext 2 × role 2 × signer 2 × tone 3
	assert.Equal(t, int64(24), pass.Total)
	require.Len(t, pass.Outputs, 2)
	assert.Equal(t, "Write as a dev, in a formal voice. Signed, Ada.", pass.Outputs[0].Text)
	assert.Empty(t, pass.Warnings)

	_, err = svc.Resolve(context.Background(), "missing", models.Session{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}

func TestLoadPoolsDegradesToEmptyPool(t *testing.T) {
	defer goleak.VerifyNone(t)
	svc := newTestService(t, WithPoolLoader(failingLoader{}))

	space, err := svc.Space(context.Background(), "greeting")
	require.NoError(t, err)
	assert.Equal(t, 0, space.ExtTextCount)
	assert.Equal(t, int64(6), space.Total())

	pass := space.Run(models.Session{})
	assert.Contains(t, pass.Warnings, compose.Warning{Kind: compose.WarnEmptyPool, Name: "cast"})
	// the pool's wildcard is gone, so only local ones remain
	assert.Equal(t, []string{"role", "tone"}, space.Wildcards.Names())
}

func TestLoadPoolsCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)
	svc := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Space(ctx, "greeting")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveBucket(t *testing.T) {
	svc := newTestService(t)
	svc.Config().DefaultWindow = 2

	// only tone (3 values, window 2) splits into two buckets
	view, err := svc.ResolveBucket(context.Background(), "greeting", models.Session{BucketID: 1}, -1)
	require.NoError(t, err)

	assert.Equal(t, int64(2), view.Bucket.Total)
	assert.Equal(t, []int{2, 0}, view.Bucket.Window("tone"))
	assert.Equal(t, int64(16), view.Bucket.SlotTotal())
	assert.Equal(t, int64(15), view.Slot)
	assert.Equal(t, "Write as a pm, in a formal voice. Cheers.", view.Pass.Outputs[0].Text)
	assert.Equal(t, int64(21), view.Pass.Session.CompositionID)
}

func TestSample(t *testing.T) {
	svc := newTestService(t)

	passes, err := svc.Sample(context.Background(), "greeting", models.Session{CompositionID: 4}, 5)
	require.NoError(t, err)

	ids := make([]int64, len(passes))
	for i, p := range passes {
		ids[i] = p.Session.CompositionID
	}
	assert.Equal(t, []int64{4, 0, 9, 14, 19}, ids)

	all, err := svc.Sample(context.Background(), "greeting", models.Session{}, 100)
	require.NoError(t, err)
	assert.Len(t, all, 24)
}

func TestSearch(t *testing.T) {
	svc := newTestService(t)

	templates, err := svc.SearchTemplates("greet")
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "greeting", templates[0].ID)

	none, err := svc.SearchTemplates("zzz")
	require.NoError(t, err)
	assert.Empty(t, none)

	matches, err := svc.SearchWildcards(context.Background(), "greeting", "lin")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "signer", matches[0].Name)
	assert.Equal(t, "Linus", matches[0].Value)
	assert.Equal(t, 1, matches[0].Index)

	all, err := svc.SearchWildcards(context.Background(), "greeting", "")
	require.NoError(t, err)
	assert.Len(t, all, 7)
}

func TestExport(t *testing.T) {
	svc := newTestService(t)
	sess := models.Session{
		Locked:    map[string][]string{"tone": {"formal", "casual"}},
		Operation: models.Operation{"tone": {"casual": "relaxed"}},
	}

	var buf bytes.Buffer
	manifest, err := svc.Export(context.Background(), "greeting", sess, &buf)
	require.NoError(t, err)

	assert.NotEmpty(t, manifest.BatchID)
	assert.Equal(t, int64(4), manifest.LockedTotal)
	assert.Equal(t, 4, manifest.Count)
	assert.False(t, manifest.Truncated)
	assert.Positive(t, manifest.EstimatedBytes)

	scanner := bufio.NewScanner(&buf)
	require.True(t, scanner.Scan())
	var header ExportManifest
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &header))
	assert.Equal(t, manifest.BatchID, header.BatchID)

	var records []ExportRecord
	for scanner.Scan() {
		var rec ExportRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 4)

	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.CompositionID
	}
	assert.Equal(t, []int64{0, 1, 12, 13}, ids)
	assert.Equal(t, "Write as a dev, in a relaxed voice. Signed, Ada.", records[1].Outputs[0].Text)
	assert.Equal(t, "Write as a dev, in a formal voice. Cheers.", records[2].Outputs[0].Text)
}

func TestExportLimit(t *testing.T) {
	svc := newTestService(t)
	svc.Config().ExportLimit = 3

	var buf bytes.Buffer
	manifest, err := svc.Export(context.Background(), "greeting", models.Session{
		Locked: map[string][]string{"tone": {"formal", "casual", "terse"}},
	}, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(6), manifest.LockedTotal)
	assert.Equal(t, 3, manifest.Count)
	assert.True(t, manifest.Truncated)
}
