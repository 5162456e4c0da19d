package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEmptyPackage    = errors.New("deployment package is empty")
	ErrLockHeld        = errors.New("lock is held by another instance")
	ErrReadStore       = errors.New("failed to read from store")
)
