package model

import "errors"

// Sentinel error kinds shared by the matching and allocation packages.
// Callers classify with errors.Is; the HTTP layer maps each kind to a status.
var (
	ErrInvalidInput            = errors.New("invalid input")
	ErrNotFound                = errors.New("not found")
	ErrDuplicateActive         = errors.New("active allocation already exists")
	ErrHeadcountExceeded       = errors.New("project headcount exceeded")
	ErrExternalServiceDegraded = errors.New("external service degraded")
)
