package services

import (
	"strings"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a lower-cased LIKE pattern matching s anywhere
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// ilike is a case-insensitive substring condition on column, portable across sqlite and postgres
func ilike(column string) string {
	return "LOWER(" + column + `) LIKE ? ESCAPE '\'`
}

// anyContains ORs a case-insensitive substring match of term over columns
func anyContains(db *gorm.DB, term string, columns ...string) *gorm.DB {
	pattern := containsPattern(term)
	cond := db.Session(&gorm.Session{NewDB: true})
	for i, col := range columns {
		if i == 0 {
			cond = cond.Where(ilike(col), pattern)
		} else {
			cond = cond.Or(ilike(col), pattern)
		}
	}
	return db.Where(cond)
}
