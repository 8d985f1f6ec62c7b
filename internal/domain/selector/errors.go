package selector

import "errors"

// Sentinel kinds for selector errors.
var (
	ErrNoEntrants  = errors.New("selector needs at least one entrant")
	ErrShape       = errors.New("weight vector length does not match entrants")
	ErrWeightFloor = errors.New("weights must be at least 1")
	ErrUnknownMode = errors.New("unknown selection mode")
)
