package compose

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpshade/pocket-compose/internal/models"
)

func TestLeafPaths(t *testing.T) {
	tmpl := &models.Template{Blocks: []models.Block{
		models.ContentBlock("a",
			models.ContentBlock("b", models.ContentBlock("c"), models.ContentBlock("d")),
			models.ContentBlock("e"),
		),
		models.ContentBlock("f"),
	}}
	assert.Equal(t, [][]string{{"0.0.0", "0.0.1", "0.1"}, {"1"}}, LeafPaths(tmpl))
}

func TestTerminalOutputsCartesian(t *testing.T) {
	tmpl := &models.Template{Blocks: []models.Block{
		models.ContentBlock("Dear __who__,",
			models.ContentBlock("thanks."),
			models.ContentBlock("sorry."),
		),
		models.ContentBlock("Regards",
			models.ContentBlock("Ada"),
			models.ContentBlock("Linus"),
			models.ContentBlock("Grace"),
		),
	}}
	res := Resolve(Source{Template: tmpl, Wildcards: Table{"who": {"team"}}}, Indices{}, nil)
	outputs := TerminalOutputs(tmpl, res)

	require.Len(t, outputs, 6)
	assert.Equal(t, Output{
		Label: "0.0 + 1.0",
		Text:  "Dear team, thanks. Regards Ada",
		Paths: []string{"0.0", "1.0"},
	}, outputs[0])
	// first root varies slowest
	assert.Equal(t, "0.0 + 1.2", outputs[2].Label)
	assert.Equal(t, "0.1 + 1.0", outputs[3].Label)
	assert.Equal(t, "Dear team, sorry. Regards Grace", outputs[5].Text)

	for _, out := range outputs {
		require.Len(t, out.Paths, 2)
		assert.Equal(t, SmartJoin(res.Accumulated(out.Paths[0]), res.Accumulated(out.Paths[1])), out.Text)
	}
}

func TestTerminalOutputsDeduplicates(t *testing.T) {
	tmpl := &models.Template{Blocks: []models.Block{
		models.ContentBlock("same", models.ContentBlock("x"), models.ContentBlock("x")),
	}}
	res := Resolve(Source{Template: tmpl}, Indices{}, nil)
	outputs := TerminalOutputs(tmpl, res)

	require.Len(t, outputs, 1)
	assert.Equal(t, "same x", outputs[0].Text)
	assert.Equal(t, "0.0", outputs[0].Label)
}

func TestTerminalOutputsCap(t *testing.T) {
	var children []models.Block
	for i := 0; i < 10; i++ {
		children = append(children, models.ContentBlock(fmt.Sprintf("leaf%d", i)))
	}
	tmpl := &models.Template{Blocks: []models.Block{
		models.ContentBlock("a", children...),
		models.ContentBlock("b", children...),
	}}
	res := Resolve(Source{Template: tmpl}, Indices{}, nil)
	outputs := TerminalOutputs(tmpl, res)

	require.Len(t, outputs, MaxTerminalOutputs)
	assert.Equal(t, "0.4 + 1.9", outputs[MaxTerminalOutputs-1].Label)
}

func TestTerminalOutputsMissingResolution(t *testing.T) {
	tmpl := &models.Template{Blocks: []models.Block{models.ContentBlock("a"), models.ContentBlock("b")}}
	outputs := TerminalOutputs(tmpl, &Resolution{Blocks: map[string]*ResolvedBlock{}})
	require.Len(t, outputs, 1)
	assert.Equal(t, "", outputs[0].Text)

	assert.Nil(t, TerminalOutputs(&models.Template{}, nil))
}
