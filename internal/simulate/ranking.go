package simulate

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/okian/wheel/pkg/logger"
)

// buildRanking orders entrants by wins, most first. Ties keep roster order.
// Duplicate names are folded into one row carrying the first position's weight.
func buildRanking(names []string, stats *Stats) []Entry {
	won := stats.Spins - stats.NoWinner

	weightOf := make(map[string]int, len(names))
	for i, name := range names {
		if _, ok := weightOf[name]; !ok && i < len(stats.FinalWeights) {
			weightOf[name] = stats.FinalWeights[i]
		}
	}

	unique := uniqueNames(names)
	ranking := make([]Entry, 0, len(unique))
	for _, name := range unique {
		entry := Entry{
			Name:    name,
			Wins:    stats.Wins[name],
			Weight:  weightOf[name],
			Drought: stats.Droughts[name],
		}
		if won > 0 {
			entry.Share = float64(entry.Wins) / float64(won) * PercentageMultiplier
		}
		ranking = append(ranking, entry)
	}

	slices.SortStableFunc(ranking, func(a, b Entry) int {
		return b.Wins - a.Wins
	})
	for i := range ranking {
		ranking[i].Rank = i + 1
	}
	return ranking
}

// uniqueNames returns names with later duplicates removed.
func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	unique := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		unique = append(unique, name)
	}
	return unique
}

// displayRanking logs one line per ranking row.
func displayRanking(ctx context.Context, log logger.Logger, ranking []Entry) {
	for _, e := range ranking {
		log.Info(ctx, "ranking",
			logger.Int("rank", e.Rank),
			logger.String("name", e.Name),
			logger.Int("wins", e.Wins),
			logger.Float64("share", e.Share),
			logger.Int("weight", e.Weight),
			logger.Int("drought", e.Drought))
	}
}

// WriteRanking prints the ranking as a fixed-width table.
func WriteRanking(w io.Writer, ranking []Entry) error {
	if _, err := fmt.Fprintf(w, "%-4s %-16s %8s %8s %14s %8s\n", "#", "name", "wins", "share%", "weight", "drought"); err != nil {
		return err
	}
	for _, e := range ranking {
		if _, err := fmt.Fprintf(w, "%-4d %-16s %8d %8.2f %14d %8d\n", e.Rank, e.Name, e.Wins, e.Share, e.Weight, e.Drought); err != nil {
			return err
		}
	}
	return nil
}
