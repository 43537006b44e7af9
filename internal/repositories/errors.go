package repositories

import (
	"errors"
)

// InvalidDataError represents an error indicating that the provided data is invalid.
var InvalidDataError = errors.New("Invalid data given")

// NotFoundError represents an error indicating that the requested record was not found.
var NotFoundError = errors.New("Record not found")

// DatabaseError represents a general error related to database operations.
var DatabaseError = errors.New("Database error")

// ConflictError represents a write that violates a unique constraint.
var ConflictError = errors.New("Record already exists")
