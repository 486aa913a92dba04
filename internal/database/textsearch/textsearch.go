// Package textsearch builds case-sensitive substring filters that behave the
// same on every supported dialect. LIKE is case-insensitive for ASCII on
// SQLite and under most MySQL collations, so it cannot be used directly.
package textsearch

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Contains narrows db to rows where any of the columns contains query as a
// case-sensitive substring. Column names are trusted identifiers supplied by
// repositories, never user input.
func Contains(db *gorm.DB, query string, columns ...string) *gorm.DB {
	if len(columns) == 0 {
		return db
	}

	template := containsTemplate(db.Dialector.Name())
	clauses := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for _, column := range columns {
		clauses = append(clauses, fmt.Sprintf(template, column))
		args = append(args, query)
	}

	return db.Where(strings.Join(clauses, " OR "), args...)
}

func containsTemplate(dialect string) string {
	switch dialect {
	case "mysql":
		return "LOCATE(BINARY ?, %s) > 0"
	case "postgres":
		return "STRPOS(%s, ?) > 0"
	default:
		return "INSTR(%s, ?) > 0"
	}
}
