package store

import (
	"errors"

	"github.com/hyperengineering/labbook/internal/validation"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrDuplicateName       = errors.New("duplicate name")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrConcurrencyConflict = errors.New("sequence number conflict")
	ErrInvalidAction       = errors.New("invalid action")
	ErrUnsupported         = errors.New("unsupported")
	ErrSnapshotExists      = errors.New("snapshot destination already exists")

	// ErrValidation matches every input validation failure.
	ErrValidation = validation.ErrInvalid
)
