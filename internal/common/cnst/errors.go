package cnst

import "errors"

var (
	// ErrQueueClosed is returned when publishing to a stopped push queue
	ErrQueueClosed = errors.New("push queue closed")
	// ErrQueueFull is returned when the in-process push buffer is full
	ErrQueueFull = errors.New("push queue full")
	// ErrBootstrapFileExists is returned when the credentials file would be overwritten
	ErrBootstrapFileExists = errors.New("bootstrap credentials file already exists")
)
