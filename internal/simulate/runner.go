package simulate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/wheel/internal/adapters/store"
	service "github.com/okian/wheel/internal/app"
	"github.com/okian/wheel/pkg/logger"
	"github.com/okian/wheel/pkg/metrics"
)

// ErrInvalidConfig is returned for a run that cannot start.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Run spins the wheel config.Spins times against an in-memory store and
// returns the statistics and win ranking.
func Run(ctx context.Context, config *Config) (*Report, error) {
	if config.Spins <= 0 {
		return nil, fmt.Errorf("%w: spins must be positive, got %d", ErrInvalidConfig, config.Spins)
	}
	if len(config.Names) == 0 {
		return nil, fmt.Errorf("%w: no entrants", ErrInvalidConfig)
	}

	stats := &Stats{
		Wins:      make(map[string]int, len(config.Names)),
		Droughts:  make(map[string]int, len(config.Names)),
		StartTime: time.Now(),
	}
	log := logger.Get().Named("simulate")

	log.Info(ctx, "starting wheel simulation",
		logger.Int("spins", config.Spins),
		logger.Strings("names", config.Names),
		logger.String("mode", config.Mode.String()),
		logger.Int64("seed", config.Seed),
		logger.Bool("verbose", config.Verbose))

	svc := service.New(
		service.WithEntrants(config.Names),
		service.WithStore(store.NewMemoryStore(config.Weights)),
		service.WithMetrics(metrics.NewManager()),
		service.WithMode(config.Mode),
		service.WithSeed(config.Seed),
		service.WithMaxWeight(config.MaxWeight),
		service.WithLogger(log),
	)
	if err := svc.Start(ctx); err != nil {
		return nil, fmt.Errorf("start wheel: %w", err)
	}
	defer func() {
		if err := svc.Shutdown(context.Background()); err != nil {
			log.Warn(ctx, "wheel shutdown failed", logger.Error(err))
		}
	}()

	unique := uniqueNames(config.Names)
	since := make(map[string]int, len(unique))
	for i := 0; i < config.Spins; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulation interrupted after %d spins: %w", i, err)
		}

		out, err := svc.Spin(ctx)
		if err != nil {
			if !errors.Is(err, service.ErrPersist) {
				return nil, fmt.Errorf("spin %d: %w", i, err)
			}
			stats.SaveErrors++
		}
		stats.Spins++
		recordSpin(stats, since, unique, out)

		if config.Verbose {
			log.Debug(ctx, "spin",
				logger.Int("n", i+1),
				logger.String("winner", out.Winner),
				logger.Bool("hasWinner", out.HasWinner),
				logger.Ints("weights", out.Weights))
		} else if (i+1)%progressEvery == 0 {
			log.Info(ctx, "simulation progress", logger.Int("spins", i+1), logger.Int("total", config.Spins))
		}
	}
	for name, n := range since {
		stats.Droughts[name] = max(stats.Droughts[name], n)
	}

	stats.FinalWeights = svc.Snapshot().Weights
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	report := &Report{
		Stats:   stats,
		Ranking: buildRanking(config.Names, stats),
	}
	displayFinalStats(ctx, log, stats)
	displayRanking(ctx, log, report.Ranking)
	return report, nil
}

// recordSpin updates win counts and drought streaks for one outcome.
func recordSpin(stats *Stats, since map[string]int, names []string, out service.Outcome) {
	if out.Rescaled {
		stats.Rescales++
	}
	if !out.HasWinner {
		stats.NoWinner++
	} else {
		stats.Wins[out.Winner]++
	}
	for _, name := range names {
		if out.HasWinner && name == out.Winner {
			stats.Droughts[name] = max(stats.Droughts[name], since[name])
			since[name] = 0
			continue
		}
		since[name]++
	}
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var spinsPerSecond, noWinnerRate float64
	if stats.Duration > 0 {
		spinsPerSecond = float64(stats.Spins) / stats.Duration.Seconds()
	}
	if stats.Spins > 0 {
		noWinnerRate = float64(stats.NoWinner) / float64(stats.Spins) * PercentageMultiplier
	}

	log.Info(ctx, "final statistics",
		logger.Int("spins", stats.Spins),
		logger.Int("noWinner", stats.NoWinner),
		logger.Float64("noWinnerRate", noWinnerRate),
		logger.Int("rescales", stats.Rescales),
		logger.Int("saveErrors", stats.SaveErrors),
		logger.Ints("finalWeights", stats.FinalWeights),
		logger.Duration("duration", stats.Duration),
		logger.Float64("spinsPerSecond", spinsPerSecond))
}
