package badgeapi

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBaseURL is returned by NewClient for a base URL that is not
	// an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("badgeapi: invalid base url")

	// ErrUnexpectedStatus matches every *StatusError.
	ErrUnexpectedStatus = errors.New("badgeapi: unexpected status")
)

// StatusError reports a response status other than 200 or 404.
type StatusError struct {
	UserID     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("badgeapi: unexpected status %d for user %s", e.StatusCode, e.UserID)
}

// Is makes errors.Is(err, ErrUnexpectedStatus) hold.
func (e *StatusError) Is(target error) bool { return target == ErrUnexpectedStatus }
