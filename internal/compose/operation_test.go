package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/pocket-compose/internal/models"
)

func TestTransformValue(t *testing.T) {
	op := models.Operation{"tone": {"formal": "丁寧"}}

	display, replaced := TransformValue(op, "tone", "formal")
	assert.Equal(t, "丁寧", display)
	assert.True(t, replaced)

	display, replaced = TransformValue(op, "tone", "casual")
	assert.Equal(t, "casual", display)
	assert.False(t, replaced)

	display, replaced = TransformValue(nil, "tone", "formal")
	assert.Equal(t, "formal", display)
	assert.False(t, replaced)
}

func TestApplyOperationKeepsValues(t *testing.T) {
	tmpl := &models.Template{Blocks: []models.Block{
		models.ContentBlock("Be __tone__,", models.ContentBlock("say __tone__ things.")),
	}}
	table := Table{"tone": {"formal", "casual"}}
	res := Resolve(Source{Template: tmpl, Wildcards: table}, Indices{}, nil)

	shown := ApplyOperation(res, models.Operation{"tone": {"formal": "丁寧"}})

	child, ok := shown.Lookup("0.0")
	require.True(t, ok)
	assert.Equal(t, "say 丁寧 things.", child.Own)
	assert.Equal(t, "Be 丁寧, say 丁寧 things.", child.Accumulated)
	require.Len(t, child.Substitutions, 1)
	assert.Equal(t, Substitution{Name: "tone", Value: "formal", Index: 0, Display: "丁寧", Replaced: true}, child.Substitutions[0])

	// the input resolution is not touched
	orig, _ := res.Lookup("0.0")
	assert.Equal(t, "Be formal, say formal things.", orig.Accumulated)
	assert.Equal(t, "formal", orig.Substitutions[0].Display)
}

func TestUnmatchedOperationRules(t *testing.T) {
	table := Table{"tone": {"formal", "casual"}}
	op := models.Operation{
		"tone":  {"formal": "丁寧", "gruff": "x"},
		"ghost": {"boo": "BOO"},
	}
	assert.Equal(t, []Warning{
		{Kind: WarnUnmatchedOperation, Name: "ghost", Value: "boo"},
		{Kind: WarnUnmatchedOperation, Name: "tone", Value: "gruff"},
	}, UnmatchedOperationRules(op, table))
	assert.Empty(t, UnmatchedOperationRules(nil, table))
}
