package matching

import (
	"errors"
	"fmt"
)

var (
	// ErrQueueOverload means a job was dropped at enqueue time; the periodic
	// safety sweep guarantees eventual processing.
	ErrQueueOverload = errors.New("match queue overloaded")

	ErrQueueClosed = errors.New("match queue closed")
)

// ValidationError rejects malformed input synchronously; never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
