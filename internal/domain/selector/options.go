package selector

import (
	"fmt"
	"strings"
)

// Mode selects which weight sum scales the random threshold.
type Mode int

const (
	// ModeEligibleSum draws the threshold from the eligible entrants' weights only,
	// so a draw always lands on someone when anyone is eligible.
	ModeEligibleSum Mode = iota
	// ModeFullSum draws from the sum of all weights, including the excluded
	// last winner. A draw landing in the excluded band yields no winner.
	ModeFullSum
)

// String returns the config spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeEligibleSum:
		return "eligible"
	case ModeFullSum:
		return "full_sum"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "eligible" or "full_sum" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "eligible", "eligible_sum":
		return ModeEligibleSum, nil
	case "full_sum", "full", "compat":
		return ModeFullSum, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithMode sets the threshold mode.
func WithMode(mode Mode) Option {
	return func(s *Selector) {
		if mode == ModeEligibleSum || mode == ModeFullSum {
			s.mode = mode
		}
	}
}

// WithSource sets the random source used by Choose.
func WithSource(src Source) Option {
	return func(s *Selector) {
		if src != nil {
			s.src = src
		}
	}
}

// WithMaxWeight sets the cap above which the whole vector is halved.
// Values below 2 are ignored.
func WithMaxWeight(maxWeight int) Option {
	return func(s *Selector) {
		if maxWeight > 1 {
			s.maxWeight = maxWeight
		}
	}
}

// WithLastWinner restores the exclusion left by a previous spin.
func WithLastWinner(name string) Option {
	return func(s *Selector) {
		if name != "" {
			s.lastWinner = name
			s.hasLast = true
		}
	}
}
