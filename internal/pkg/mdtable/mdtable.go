// Package mdtable renders query results as Markdown table chunks.
package mdtable

import (
	"fmt"
	"strings"

	"github.com/quackscience/copilot-extension-duckdb/internal/model"
)

const noRowsLine = "Query executed successfully. No rows returned.\n"

// Render turns a result into an ordered sequence of text chunks: a
// header row from the column list, a separator row of matching width,
// then one chunk per record. An empty result yields exactly one
// confirmation line and no header.
func Render(res *model.Result) []string {
	if res == nil || len(res.Rows) == 0 {
		return []string{noRowsLine}
	}
	chunks := make([]string, 0, len(res.Rows)+2)
	chunks = append(chunks, "| "+strings.Join(res.Columns, " | ")+" |\n")
	chunks = append(chunks, "|"+strings.Repeat(" --- |", len(res.Columns))+"\n")
	for _, row := range res.Rows {
		cells := make([]string, 0, len(res.Columns))
		for _, col := range res.Columns {
			cells = append(cells, escapeCell(formatValue(row[col])))
		}
		chunks = append(chunks, "| "+strings.Join(cells, " | ")+" |\n")
	}
	return chunks
}

// RenderAnnotated echoes the executed query in a fenced sql block,
// followed by the rendered table in a second fenced block.
func RenderAnnotated(query string, res *model.Result) []string {
	chunks := make([]string, 0, len(res.Rows)+6)
	chunks = append(chunks, "\n```sql\n"+strings.TrimSpace(query)+"\n```\n")
	chunks = append(chunks, "\n```\n")
	chunks = append(chunks, Render(res)...)
	chunks = append(chunks, "```\n")
	return chunks
}

func formatValue(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
