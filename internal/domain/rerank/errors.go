package rerank

import "errors"

// Sentinel kinds for re-rank failures. Both are reported inside
// Result.Err wrapped with model.ErrExternalServiceDegraded.
var (
	ErrMalformedResponse = errors.New("malformed re-rank response")
	ErrDisabled          = errors.New("ai re-rank disabled")
)
