package mapping

import "errors"

// Lookup errors. These indicate a configuration/client mismatch, distinct
// from transform errors, and map to a 4xx at the API boundary.
var (
	// ErrUnknownInstrument is returned when the instrument key is absent.
	ErrUnknownInstrument = errors.New("unknown instrument")

	// ErrUnknownQuestion is returned when the question key is absent
	// under a known instrument.
	ErrUnknownQuestion = errors.New("unknown question")
)

// IsLookupError reports whether err is a registry lookup failure.
func IsLookupError(err error) bool {
	return errors.Is(err, ErrUnknownInstrument) || errors.Is(err, ErrUnknownQuestion)
}
