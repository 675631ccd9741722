package workspace

import "errors"

// NotFoundError reports a reference to a channel or user slug that is not in
// the fixed catalog. The catalogs never change at runtime, so this is always
// a caller bug rather than a transient condition.
type NotFoundError struct {
	Kind string // "channel" or "user"
	Slug string
}

func (e *NotFoundError) Error() string {
	return e.Kind + " not found: " + e.Slug
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
