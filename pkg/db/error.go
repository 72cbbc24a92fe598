package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Dialect-specific unique-violation message fragments, for drivers that
// predate gorm's TranslateError support.
var duplicateKeyMarkers = []string{
	"duplicate key value violates unique constraint", // postgres 23505
	"Error 1062",               // mysql
	"UNIQUE constraint failed", // sqlite 2067
}

// IsDuplicateKeyErr reports whether err is a unique-constraint violation
// across the supported dialects.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	for _, marker := range duplicateKeyMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
