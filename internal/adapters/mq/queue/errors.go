package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrQueueFull   = errors.New("audit queue full")
	ErrQueueClosed = errors.New("audit queue closed")
)
