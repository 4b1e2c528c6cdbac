// Package repository implements the data access layer for the application.
package repository

import (
	"strings"

	"infinity/internal/middleware"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageRequest carries caller-supplied pagination and sorting. Page is
// 1-based. Sort is "column" or "column desc"; columns are validated against
// the repository's whitelist before reaching SQL.
type PageRequest struct {
	Page int
	Size int
	Sort string
}

// limitOffset normalizes the request into SQL limit/offset values.
func (p PageRequest) limitOffset() (limit, offset int) {
	size := p.Size
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	return size, (page - 1) * size
}

// orderClause resolves the sort request against allowed columns, falling
// back to the given default ordering. A column outside the whitelist is
// dropped rather than interpolated into SQL.
func (p PageRequest) orderClause(allowed map[string]string, fallback string) string {
	sort := strings.TrimSpace(strings.ToLower(p.Sort))
	if sort == "" {
		return fallback
	}

	field := sort
	desc := false
	if parts := strings.Fields(sort); len(parts) == 2 && parts[1] == "desc" {
		field = parts[0]
		desc = true
	} else if len(parts) == 2 && parts[1] == "asc" {
		field = parts[0]
	}

	column, ok := allowed[field]
	if !ok {
		middleware.Logger.Warn("ignoring unknown sort column", "sort", sort)
		return fallback
	}
	if desc {
		return column + " DESC"
	}
	return column
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505; SQLite reports "UNIQUE constraint failed"
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// likePattern builds a case-insensitive substring pattern for LOWER(col) LIKE ?.
func likePattern(q string) string {
	return "%" + strings.ToLower(q) + "%"
}
