// Package service wires the wheel together: it loads the stored weights,
// runs spins through the selector, saves after every win, and flushes state
// on shutdown. Presentation layers (the terminal shell, the simulator) talk
// only to this package.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/wheel/internal/adapters/store"
	"github.com/okian/wheel/internal/domain/selector"
	"github.com/okian/wheel/pkg/logger"
	"github.com/okian/wheel/pkg/metrics"
)

// Outcome describes one spin.
type Outcome struct {
	// ID identifies the spin in logs.
	ID string
	// Winner is empty when HasWinner is false.
	Winner    string
	HasWinner bool
	// Weights is the vector after the spin.
	Weights []int
	// Rescaled reports that the vector was halved to stay under the cap.
	Rescaled bool
}

// Snapshot is a read-only view of the wheel.
type Snapshot struct {
	Names         []string
	Weights       []int
	LastWinner    string
	HasLastWinner bool
	Probabilities []float64
	Mode          selector.Mode
}

// Service owns the selector and its store.
type Service struct {
	mu sync.Mutex

	// Core components
	names    []string
	store    store.Store
	selector *selector.Selector
	metrics  *metrics.Manager

	// Selector configuration
	mode      selector.Mode
	maxWeight int
	seed      int64
	src       selector.Source

	metricsTextfile string

	// State
	started bool
	closed  bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithEntrants sets the ordered roster.
func WithEntrants(names []string) Option {
	return func(s *Service) {
		s.names = append([]string(nil), names...)
	}
}

// WithStore sets the weight store. The service closes it on Shutdown.
func WithStore(st store.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics manager. The global manager is used otherwise.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithMode sets the selector's threshold mode.
func WithMode(mode selector.Mode) Option {
	return func(s *Service) {
		s.mode = mode
	}
}

// WithMaxWeight sets the selector's rescale cap.
func WithMaxWeight(maxWeight int) Option {
	return func(s *Service) {
		if maxWeight > 1 {
			s.maxWeight = maxWeight
		}
	}
}

// WithSeed fixes the random seed. Zero keeps the crypto-random seed.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithSource sets the random source directly. It takes precedence over WithSeed.
func WithSource(src selector.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.src = src
		}
	}
}

// WithMetricsTextfile makes Shutdown write the metrics to path.
func WithMetricsTextfile(path string) Option {
	return func(s *Service) {
		s.metricsTextfile = path
	}
}

// New constructs a Service. Nothing is loaded until Start.
func New(opts ...Option) *Service {
	s := &Service{
		mode:   selector.ModeEligibleSum,
		logger: nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Initialize builds a file-backed service for names, loads the weights from
// weightsPath and starts it. Further options are applied after the store.
func Initialize(ctx context.Context, names []string, weightsPath string, opts ...Option) (*Service, error) {
	st, err := store.NewFileStore(weightsPath)
	if err != nil {
		return nil, err
	}
	base := []Option{WithEntrants(names), WithStore(st)}
	s := New(append(base, opts...)...)
	if err := s.Start(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return s, nil
}

// Start loads the weights and builds the selector. A load that falls back to
// defaults is logged and counted, never returned.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.closed {
		return ErrNotStarted
	}

	// Initialize logger and metrics if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.metrics == nil {
		s.metrics = metrics.Default()
	}
	if s.store == nil {
		s.store = store.NewMemoryStore(nil)
		s.logger.Warn(ctx, "no weight store configured, weights will not survive a restart")
	}

	if dups := duplicates(s.names); len(dups) > 0 {
		s.logger.Warn(ctx, "duplicate entrant names share exclusion and adjustment",
			logger.Strings("names", dups),
		)
	}

	res := s.store.Load(ctx, len(s.names))
	if res.Source == store.SourceDefault {
		s.metrics.RecordLoadFallback(res.Reason())
		if res.Cause != nil {
			s.logger.Warn(ctx, "stored weights unusable, starting from defaults",
				logger.String("reason", res.Reason()),
				logger.Error(res.Cause),
			)
		} else {
			s.logger.Info(ctx, "no stored weights, starting from defaults")
		}
	}

	src := s.src
	if src == nil {
		var err error
		if src, err = selector.NewSource(s.seed); err != nil {
			return err
		}
	}
	opts := []selector.Option{
		selector.WithMode(s.mode),
		selector.WithSource(src),
	}
	if s.maxWeight > 1 {
		opts = append(opts, selector.WithMaxWeight(s.maxWeight))
	}

	sel, err := selector.New(s.names, res.Weights, opts...)
	if err != nil {
		return fmt.Errorf("build selector: %w", err)
	}
	s.selector = sel
	s.metrics.UpdateWeights(sel.Names(), sel.Weights())

	s.started = true
	s.logger.Info(ctx, "wheel started",
		logger.Int("entrants", sel.Len()),
		logger.String("mode", sel.Mode().String()),
		logger.Int("totalWeight", sel.TotalWeight()),
	)
	return nil
}

// Spin draws once. On a win the weights are adjusted and saved. A failed save
// still returns the outcome, with an error wrapping ErrPersist; the in-memory
// weights stay valid and are retried on the next save.
func (s *Service) Spin(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.closed {
		return Outcome{}, ErrNotStarted
	}

	out := Outcome{ID: uuid.NewString()}
	winner, ok := s.selector.Choose()
	s.metrics.RecordSpin(winner, ok)
	if !ok {
		out.Weights = s.selector.Weights()
		s.logger.Info(ctx, "spin produced no winner", logger.String("spin", out.ID))
		return out, nil
	}

	out.Winner = winner
	out.HasWinner = true
	out.Rescaled = s.selector.AdjustWeights(winner)
	out.Weights = s.selector.Weights()
	if out.Rescaled {
		s.metrics.RecordRescale()
		s.logger.Debug(ctx, "weights rescaled", logger.String("spin", out.ID))
	}
	s.metrics.UpdateWeights(s.selector.Names(), out.Weights)

	s.logger.Info(ctx, "spin",
		logger.String("spin", out.ID),
		logger.String("winner", winner),
	)
	s.logger.Debug(ctx, "weights after spin", logger.Ints("weights", out.Weights))

	if err := s.save(ctx, out.Weights); err != nil {
		s.logger.Error(ctx, "failed to save weights",
			logger.String("spin", out.ID),
			logger.Error(err),
		)
		return out, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return out, nil
}

// Shutdown saves the current weights, closes the store, and writes the
// metrics textfile when configured. Calling it again is a no-op.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.started {
		s.logger.Info(ctx, "stopping wheel...")
		if err := s.save(ctx, s.selector.Weights()); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrPersist, err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if s.metricsTextfile != "" && s.metrics != nil {
		if err := s.metrics.WriteTextfile(s.metricsTextfile); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	if s.logger != nil {
		if err != nil {
			s.logger.Error(ctx, "wheel stopped with errors", logger.Error(err))
		} else {
			s.logger.Info(ctx, "wheel stopped")
		}
	}
	return err
}

// Snapshot returns a copy of the wheel's state. It is empty before Start.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selector == nil {
		return Snapshot{Mode: s.mode}
	}
	last, ok := s.selector.LastWinner()
	return Snapshot{
		Names:         s.selector.Names(),
		Weights:       s.selector.Weights(),
		LastWinner:    last,
		HasLastWinner: ok,
		Probabilities: s.selector.Probabilities(),
		Mode:          s.selector.Mode(),
	}
}

// save writes weights and records the attempt. Caller holds mu.
func (s *Service) save(ctx context.Context, weights []int) error {
	start := time.Now()
	err := s.store.Save(ctx, weights)
	s.metrics.RecordSave(float64(time.Since(start).Microseconds())/1000, err)
	return err
}

func duplicates(names []string) []string {
	seen := make(map[string]int, len(names))
	var dups []string
	for _, name := range names {
		seen[name]++
		if seen[name] == 2 {
			dups = append(dups, name)
		}
	}
	return dups
}
