// Package services defines the business logic for looking up, composing and
// rendering profile badges. This file centralizes service-level error values
// so that they can be consistently returned by service methods and checked
// by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// Badge lookup errors.
var (
	// ErrEmptyUserID is returned when a request carries no user id.
	ErrEmptyUserID = errors.New("user id is empty")

	// ErrInvalidUserID is returned when a user id contains whitespace or
	// control characters or exceeds MaxUserIDLen bytes.
	ErrInvalidUserID = errors.New("user id is invalid")

	// ErrNoChildren is returned when a row to augment carries no children
	// list at all.
	ErrNoChildren = errors.New("row has no children list")
)
