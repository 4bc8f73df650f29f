package repository

import (
	"strings"

	"motorplus/internal/dto"

	"gorm.io/gorm"
)

// paginate applies a normalized page query.
func paginate(q dto.PageQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(q.Size).Offset(q.Offset())
	}
}

// likePattern builds a case-insensitive LIKE pattern that works on both
// Postgres and SQLite when compared against LOWER(column).
func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
