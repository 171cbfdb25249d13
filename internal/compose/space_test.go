package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/pocket-compose/internal/models"
)

func TestBuildWildcardPoolShadowing(t *testing.T) {
	local := []models.Wildcard{{Name: "tone", Values: []string{"formal"}}}
	pools := []*models.Pool{
		{ID: "a", Wildcards: []models.Wildcard{
			{Name: "tone", Values: []string{"from-a"}},
			{Name: "role", Values: []string{"dev"}},
		}},
		nil,
		{ID: "b", Wildcards: []models.Wildcard{
			{Name: "role", Values: []string{"from-b"}},
			{Name: "place", Values: []string{"home", "office"}},
		}},
	}

	table := BuildWildcardPool(local, pools)
	assert.Equal(t, Table{
		"tone":  {"formal"},
		"role":  {"dev"},
		"place": {"home", "office"},
	}, table)
	assert.Equal(t, []string{"place", "role", "tone"}, table.Names())
}

func TestNewSpace(t *testing.T) {
	tmpl := greetingTemplate()
	tmpl.Window = 2
	tmpl.Wildcards[1].Window = 1
	tmpl.Blocks = append(tmpl.Blocks, models.ExtTextBlock("extra", 1))

	pools := map[models.PoolID]*models.Pool{
		"cast":  castPool(),
		"extra": {ID: "extra", Text: []string{"P.S."}},
	}
	space := NewSpace(tmpl, pools, SpaceOptions{DefaultWindow: 5, ExtWindow: 9})

	assert.Equal(t, 3, space.ExtTextCount)
	assert.Equal(t, map[string]int{"tone": 3, "role": 2, "signer": 2}, space.Counts())
	assert.Equal(t, int64(3*3*2*2), space.Total())
	assert.Equal(t, Windows{Ext: 1, Wildcards: map[string]int{"tone": 2, "role": 1, "signer": 2}}, space.Windows)

	// ext 3/1, role 2/1, signer 2/2, tone 3/2
	assert.Equal(t, int64(3*2*1*2), space.BucketTotal())

	for _, id := range []int64{0, 11, 35} {
		assert.Equal(t, id, space.Encode(space.Decode(id)))
	}
}

func TestNewSpaceMissingPool(t *testing.T) {
	space := NewSpace(greetingTemplate(), nil, SpaceOptions{})
	assert.Equal(t, 0, space.ExtTextCount)
	assert.Equal(t, int64(6), space.Total())

	pass := space.Run(models.Session{CompositionID: 1})
	assert.Contains(t, pass.Warnings, Warning{Kind: WarnEmptyPool, Name: "cast"})
	b, ok := pass.Resolution.Lookup("1")
	require.True(t, ok)
	assert.Equal(t, "", b.Own)
}

func TestSpaceRun(t *testing.T) {
	space := NewSpace(greetingTemplate(), map[models.PoolID]*models.Pool{"cast": castPool()}, SpaceOptions{})

	sess := models.Session{
		CompositionID: 4,
		Locked:        map[string][]string{"tone": {"formal", "casual"}},
		Operation:     models.Operation{"tone": {"formal": "丁寧", "missing": "x"}},
	}
	// dims: ext 2, role 2, signer 2, tone 3; id 4 → tone 1, signer 1, role 0, ext 0
	pass := space.Run(sess)

	assert.Equal(t, int64(24), pass.Total)
	assert.Equal(t, int64(1), pass.BucketTotal)
	assert.Equal(t, int64(4), pass.LockedTotal)
	assert.Equal(t, 1, pass.Indices.Get("tone"))
	assert.Equal(t, 1, pass.Indices.Get("signer"))

	require.Len(t, pass.Outputs, 2)
	assert.Equal(t, "Write as a dev, in a casual voice. Signed, Linus.", pass.Outputs[0].Text)
	assert.Equal(t, "0.0 + 1", pass.Outputs[0].Label)
	assert.Equal(t, "Write as a dev, briefly. Signed, Linus.", pass.Outputs[1].Text)
	assert.Equal(t, []Warning{{Kind: WarnUnmatchedOperation, Name: "tone", Value: "missing"}}, pass.Warnings)

	formal := space.Run(sess.WithComposition(3))
	assert.Equal(t, "Write as a dev, in a 丁寧 voice. Signed, Linus.", formal.Outputs[0].Text)
	b, _ := formal.Resolution.Lookup("0.0")
	assert.Equal(t, "formal", b.Substitutions[0].Value)
	assert.Equal(t, 0, b.Substitutions[0].Index)

	// identical inputs, identical passes
	assert.Equal(t, pass, space.Run(sess))
}

func TestSpaceRunAtBucketSlot(t *testing.T) {
	tmpl := &models.Template{
		Window:    2,
		Wildcards: []models.Wildcard{{Name: "n", Values: []string{"one", "two", "three", "four", "five"}}},
		Blocks:    []models.Block{models.ContentBlock("__n__")},
	}
	space := NewSpace(tmpl, nil, SpaceOptions{})
	require.Equal(t, int64(3), space.BucketTotal())

	bucket := space.Bucket(2)
	assert.Equal(t, []int{4, 0}, bucket.Window("n"))

	pass := space.RunAt(models.Session{BucketID: 2}, bucket.Indices(1))
	assert.Equal(t, "one", pass.Outputs[0].Text)
}
