package ingest

import (
	"errors"
	"fmt"
)

// MappingError reports that a raw answer could not be transformed into a
// normalized observation under the question's rules. All transform failures
// share this one kind so callers can treat "the answer didn't fit" uniformly.
// Registry lookup failures are NOT mapping errors; see the mapping package.
type MappingError struct {
	Detail string
}

// Error implements the error interface.
func (e *MappingError) Error() string {
	return e.Detail
}

// mappingErrorf builds a MappingError from a format string.
func mappingErrorf(format string, args ...any) *MappingError {
	return &MappingError{Detail: fmt.Sprintf(format, args...)}
}

// IsMappingError reports whether err is (or wraps) a MappingError.
func IsMappingError(err error) bool {
	var me *MappingError
	return errors.As(err, &me)
}
