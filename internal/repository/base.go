// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// clampLimit bounds a caller supplied page size.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// notFoundOrInternal maps gorm.ErrRecordNotFound to NOT_FOUND and anything else to INTERNAL_ERROR.
func notFoundOrInternal(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505, SQLite "UNIQUE constraint failed"
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// violatesColumn reports whether a unique violation names column.
func violatesColumn(err error, column string) bool {
	return isUniqueConstraintError(err) && strings.Contains(strings.ToLower(err.Error()), column)
}
