package service

import "errors"

var (
	// ErrPersist wraps a failed weight save. The spin itself still happened.
	ErrPersist = errors.New("persist weights")
	// ErrNotStarted is returned by Spin before Start or after Shutdown.
	ErrNotStarted = errors.New("wheel service not started")
)
