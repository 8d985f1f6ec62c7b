package simulate

import (
	"time"

	"github.com/okian/wheel/internal/domain/selector"
)

// Config holds configuration for a simulation run.
type Config struct {
	Spins     int           // Number of spins to run
	Names     []string      // Ordered roster
	Mode      selector.Mode // Threshold mode
	Seed      int64         // Random seed, 0 for crypto-random
	MaxWeight int           // Rescale cap, 0 for the selector default
	Weights   []int         // Starting weights, nil for all ones
	Verbose   bool          // Log every spin
}

// Stats holds run statistics.
type Stats struct {
	Spins        int
	NoWinner     int
	Rescales     int
	SaveErrors   int
	Wins         map[string]int
	Droughts     map[string]int // longest run of spins without a win
	FinalWeights []int
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
}

// Entry is one ranking row.
type Entry struct {
	Rank    int
	Name    string
	Wins    int
	Share   float64 // percent of winning spins
	Weight  int     // weight after the last spin
	Drought int
}

// Report is the result of Run.
type Report struct {
	Stats   *Stats
	Ranking []Entry
}
