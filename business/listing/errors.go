package listing

import (
	"errors"
	"fmt"
)

// ValidationError marks a request that can never succeed; callers must not
// retry it.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
