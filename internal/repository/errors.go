package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isUniqueViolation catches unique-constraint errors from drivers whose
// dialector does not translate them.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
