package repositories_gorm

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"gitlab.com/lfmsh/bank/internal/repositories"
)

// handleDBError is a utility function that translates GORM database errors into custom repository errors.
// It takes a GORM database error as input and returns a corresponding custom error from the repositories package.
func handleDBError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repositories.NotFoundError
	case errors.Is(err, gorm.ErrInvalidData), errors.Is(err, gorm.ErrInvalidField), errors.Is(err, gorm.ErrInvalidValue):
		return repositories.InvalidDataError
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return repositories.ConflictError
	default:
		zlog.Sugar().Errorf("database error: %v", err)
		return repositories.DatabaseError
	}
}
