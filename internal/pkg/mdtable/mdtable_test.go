package mdtable

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/quackscience/copilot-extension-duckdb/internal/model"
)

func sampleResult() *model.Result {
	return &model.Result{
		Columns: []string{"a", "b"},
		Rows: []map[string]interface{}{
			{"a": 1, "b": 2},
			{"a": 3, "b": 4},
		},
	}
}

func TestRender_TableShape(t *testing.T) {
	chunks := Render(sampleResult())
	require.Equal(t, []string{
		"| a | b |\n",
		"| --- | --- |\n",
		"| 1 | 2 |\n",
		"| 3 | 4 |\n",
	}, chunks)
}

func TestRender_Idempotent(t *testing.T) {
	res := sampleResult()
	first := strings.Join(Render(res), "")
	second := strings.Join(Render(res), "")
	require.Equal(t, first, second)
}

func TestRender_EmptyResult(t *testing.T) {
	chunks := Render(&model.Result{Columns: []string{"a"}})
	require.Len(t, chunks, 1)
	require.NotContains(t, chunks[0], "|")
	require.Contains(t, chunks[0], "No rows")
}

func TestRender_NilResult(t *testing.T) {
	require.Len(t, Render(nil), 1)
}

func TestRender_EscapesCells(t *testing.T) {
	res := &model.Result{
		Columns: []string{"v"},
		Rows:    []map[string]interface{}{{"v": "a|b\nc"}},
	}
	chunks := Render(res)
	require.Equal(t, `| a\|b c |`+"\n", chunks[2])
}

func TestRender_NullCell(t *testing.T) {
	res := &model.Result{
		Columns: []string{"v"},
		Rows:    []map[string]interface{}{{"v": nil}},
	}
	require.Equal(t, "|  |\n", Render(res)[2])
}

// The rendered output must survive a real GFM parser as a table, not
// just look like one.
func TestRender_ParsesAsGFMTable(t *testing.T) {
	source := []byte(strings.Join(Render(sampleResult()), ""))
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(source))
	found := false
	err := gast.Walk(doc, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if entering && n.Kind() == east.KindTable {
			found = true
		}
		return gast.WalkContinue, nil
	})
	require.NoError(t, err)
	require.True(t, found, "rendered output did not parse as a GFM table")
}

func TestRenderAnnotated(t *testing.T) {
	chunks := RenderAnnotated("SELECT a, b FROM t", sampleResult())
	joined := strings.Join(chunks, "")
	require.Contains(t, joined, "```sql\nSELECT a, b FROM t\n```")
	require.Contains(t, joined, "| a | b |")
	require.True(t, strings.HasSuffix(joined, "```\n"))
}
