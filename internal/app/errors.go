package service

import "errors"

// Sentinel error kinds for the service lifecycle.
var (
	ErrNotStarted = errors.New("service not started")
)
