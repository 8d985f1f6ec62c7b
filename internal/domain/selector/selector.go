// Package selector implements the weighted wheel: each spin picks one
// entrant with probability proportional to its weight, never the previous
// winner, and the follow-up adjustment demotes the winner while promoting
// everyone else.
//
// Entrants are matched by name. Duplicate names are allowed but move
// together: excluding or adjusting one excludes or adjusts all of them.
package selector

import (
	"math"
)

// defaultMaxWeight keeps sums far from int overflow for any realistic wheel.
const defaultMaxWeight = 1 << 40

// Selector holds the entrants, their weights, and the last winner.
// It is not safe for concurrent use.
type Selector struct {
	names      []string
	weights    []int
	lastWinner string
	hasLast    bool

	mode      Mode
	src       Source
	maxWeight int
}

// DefaultWeights returns n weights of 1.
func DefaultWeights(n int) []int {
	weights := make([]int, n)
	for i := range weights {
		weights[i] = 1
	}
	return weights
}

// New builds a Selector. A nil weights slice means all ones.
func New(names []string, weights []int, opts ...Option) (*Selector, error) {
	if len(names) == 0 {
		return nil, ErrNoEntrants
	}
	if weights == nil {
		weights = DefaultWeights(len(names))
	}
	if len(weights) != len(names) {
		return nil, ErrShape
	}
	for _, w := range weights {
		if w < 1 {
			return nil, ErrWeightFloor
		}
	}

	s := &Selector{
		names:     append([]string(nil), names...),
		weights:   append([]int(nil), weights...),
		mode:      ModeEligibleSum,
		maxWeight: defaultMaxWeight,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	// Doubling the largest weight must not overflow the sum.
	if limit := math.MaxInt / (2 * len(s.names)); s.maxWeight > limit {
		s.maxWeight = limit
	}

	if s.src == nil {
		src, err := NewSource(0)
		if err != nil {
			return nil, err
		}
		s.src = src
	}

	s.rescale()
	return s, nil
}

// Choose draws one eligible entrant. It reports false when the draw yields
// no winner; the last winner is then left unchanged. Weights are never
// modified.
func (s *Selector) Choose() (string, bool) {
	total := s.eligibleTotal()
	if s.mode == ModeFullSum {
		total = s.TotalWeight()
	}
	if total == 0 {
		return "", false
	}

	threshold := s.src.Float64() * float64(total)

	running := 0
	for i, w := range s.weights {
		if !s.eligible(i) {
			continue
		}
		running += w
		if float64(running) >= threshold {
			s.lastWinner = s.names[i]
			s.hasLast = true
			return s.lastWinner, true
		}
	}
	return "", false
}

// AdjustWeights halves the winner's weight (floor, minimum 1) and doubles
// every other weight. It reports whether the vector then had to be halved
// to stay under the weight cap.
func (s *Selector) AdjustWeights(winner string) bool {
	for i, name := range s.names {
		if name == winner {
			s.weights[i] = max(1, s.weights[i]/2)
		} else {
			s.weights[i] *= 2
		}
	}
	return s.rescale()
}

// rescale halves every weight until the largest fits under the cap.
func (s *Selector) rescale() bool {
	rescaled := false
	for s.maxOf() > s.maxWeight {
		for i := range s.weights {
			s.weights[i] = max(1, s.weights[i]/2)
		}
		rescaled = true
	}
	return rescaled
}

func (s *Selector) maxOf() int {
	m := 0
	for _, w := range s.weights {
		m = max(m, w)
	}
	return m
}

func (s *Selector) eligible(i int) bool {
	return !s.hasLast || s.names[i] != s.lastWinner
}

func (s *Selector) eligibleTotal() int {
	total := 0
	for i, w := range s.weights {
		if s.eligible(i) {
			total += w
		}
	}
	return total
}

// Probabilities returns each entrant's chance of winning the next draw.
// In ModeFullSum the values sum to less than 1 while a last winner is set;
// the remainder is the chance of no winner.
func (s *Selector) Probabilities() []float64 {
	probs := make([]float64, len(s.weights))
	total := s.eligibleTotal()
	if s.mode == ModeFullSum {
		total = s.TotalWeight()
	}
	if total == 0 {
		return probs
	}
	for i, w := range s.weights {
		if s.eligible(i) {
			probs[i] = float64(w) / float64(total)
		}
	}
	return probs
}

// Names returns a copy of the entrant list.
func (s *Selector) Names() []string {
	return append([]string(nil), s.names...)
}

// Weights returns a copy of the weight vector.
func (s *Selector) Weights() []int {
	return append([]int(nil), s.weights...)
}

// LastWinner returns the most recent winner, if any.
func (s *Selector) LastWinner() (string, bool) {
	return s.lastWinner, s.hasLast
}

// TotalWeight returns the sum of all weights.
func (s *Selector) TotalWeight() int {
	total := 0
	for _, w := range s.weights {
		total += w
	}
	return total
}

// Len returns the number of entrants.
func (s *Selector) Len() int { return len(s.names) }

// Mode returns the threshold mode.
func (s *Selector) Mode() Mode { return s.mode }
