package project

import "errors"

var (
	ErrInvalidPayload   = errors.New("invalid project payload")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrNotFound         = errors.New("project not found")
	ErrSuspended        = errors.New("project is suspended")
	ErrAlreadySuspended = errors.New("project already suspended")
	ErrInactive         = errors.New("project is not active")

	// ErrDuplicateID is returned by stores when Create hits an existing id.
	ErrDuplicateID = errors.New("project id already exists")
)
