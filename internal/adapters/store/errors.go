package store

import "errors"

// Sentinel kinds for weight store errors.
var (
	ErrMalformed      = errors.New("malformed weights")
	ErrLoad           = errors.New("load weights failed")
	ErrSave           = errors.New("save weights failed")
	ErrUnknownBackend = errors.New("unknown weight store backend")
	ErrPathRequired   = errors.New("weight store path is required")
)
