package permission

import "errors"

var (
	// ErrNotFound is returned for an unknown role, user, catalog entry or override id.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName is returned when a catalog entry or role name already exists in its scope.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrConflict is returned when a concurrent writer changed the role mid-transaction.
	ErrConflict = errors.New("conflict")

	// ErrValidation is returned for malformed input such as an empty resource,
	// an unknown action or an inverted time window.
	ErrValidation = errors.New("validation error")

	// ErrPartialWrite is returned when the matrix was written but the row regeneration
	// failed. The surrounding transaction is always rolled back when this is reported.
	ErrPartialWrite = errors.New("partial write failure")
)

// Error kinds reported to API and CLI callers.
const (
	KindNotFound      = "not_found"
	KindDuplicateName = "duplicate_name"
	KindConflict      = "conflict"
	KindValidation    = "validation_error"
	KindPartialWrite  = "partial_write_failure"
	KindInternal      = "internal"
)

// Kind classifies err into one of the machine readable error kinds.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicateName):
		return KindDuplicateName
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrPartialWrite):
		return KindPartialWrite
	default:
		return KindInternal
	}
}
