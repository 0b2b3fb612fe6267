package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrRateLimited     = errors.New("rate limited")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrFetchFailed     = errors.New("platform fetch failed")
	ErrBadRecord       = errors.New("malformed platform record")
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrSourceInactive  = errors.New("source is inactive")
	ErrLockHeld        = errors.New("lock already held")
	ErrContextDone     = errors.New("context cancelled")
)
