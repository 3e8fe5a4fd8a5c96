// Package sqldetect decides whether a piece of text looks like an
// executable SQL statement. It is a keyword heuristic, not a parser:
// natural language containing a listed keyword matches, and valid SQL
// built only from unlisted keywords does not.
package sqldetect

import (
	"regexp"
	"strings"
)

var keywords = []string{
	"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "DROP", "ALTER",
	"COPY", "ATTACH", "FROM", "WHERE", "GROUP BY", "ORDER BY", "LIMIT",
	"READ_CSV", "READ_PARQUET", "READ_JSON_AUTO", "UNNEST", "PRAGMA",
	"EXPLAIN", "DESCRIBE", "SHOW", "SET", "WITH", "CASE", "JOIN", "TABLE",
}

var keywordPattern = regexp.MustCompile(buildPattern(keywords))

func buildPattern(words []string) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, strings.ReplaceAll(regexp.QuoteMeta(w), ` `, `\s+`))
	}
	return `(?i)\b(?:` + strings.Join(parts, `|`) + `)\b`
}

// IsLikelyQuery reports whether text contains a whole-word,
// case-insensitive match of any known SQL keyword.
func IsLikelyQuery(text string) bool {
	return keywordPattern.MatchString(text)
}

// StripFences removes code-fence delimiter lines and blank lines from a
// model reply, leaving only the statement text.
func StripFences(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
