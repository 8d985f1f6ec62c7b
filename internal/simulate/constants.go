package simulate

// Runner configuration constants.
const (
	DefaultSpins         = 10000
	PercentageMultiplier = 100
	progressEvery        = 1000
)
