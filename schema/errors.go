package schema

import "errors"

var (
	// ErrDuplicateLocation is returned when a location is rebound to different content
	ErrDuplicateLocation = errors.New("duplicate location")
	// ErrOffsetOutOfRange is returned for coordinates outside valid bounds or empty ranges
	ErrOffsetOutOfRange = errors.New("offset out of range")
	// ErrUnknownTypeID is returned for a type identifier the registry does not know
	ErrUnknownTypeID = errors.New("unknown type id")
	// ErrIntegrityViolation is returned when a write references a nonexistent row
	ErrIntegrityViolation = errors.New("integrity violation")
	// ErrCycleNotResolved is reported when a status fixed point does not converge
	ErrCycleNotResolved = errors.New("cycle not resolved")
	// ErrFrozen is returned for writes issued after the ingestion barrier
	ErrFrozen = errors.New("database is frozen")
)

// IsFatal returns true for storage integrity violations
func IsFatal(err error) bool {
	return errors.Is(err, ErrIntegrityViolation)
}
