package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/okian/wheel/internal/config"
	"github.com/okian/wheel/internal/domain/selector"
	"github.com/okian/wheel/internal/simulate"
	"github.com/okian/wheel/pkg/logger"
)

func main() {
	var (
		spins   = flag.Int("spins", simulate.DefaultSpins, "Number of spins to run")
		names   = flag.String("names", strings.Join(config.DefaultEntrants, ","), "Comma-separated roster")
		mode    = flag.String("mode", selector.ModeEligibleSum.String(), "Threshold mode: eligible or full_sum")
		seed    = flag.Int64("seed", 0, "Random seed (0 = crypto-random)")
		logFile = flag.String("log", "", "Also write the log to this file")
		verbose = flag.Bool("verbose", false, "Log every spin")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp(os.Stdout)
		return
	}

	parsedMode, err := selector.ParseMode(*mode)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	// Setup logging
	closeLog, err := simulate.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err = run(ctx, &simulate.Config{
		Spins:   *spins,
		Names:   simulate.ParseNames(*names),
		Mode:    parsedMode,
		Seed:    *seed,
		Verbose: *verbose,
	}, os.Stdout)
	stop()
	if err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		_ = closeLog()
		os.Exit(1)
	}
	_ = closeLog()
}

// run simulates and prints the ranking to out.
func run(ctx context.Context, cfg *simulate.Config, out io.Writer) error {
	report, err := simulate.Run(ctx, cfg)
	if err != nil {
		return err
	}
	if err := simulate.WriteRanking(out, report.Ranking); err != nil {
		return fmt.Errorf("print ranking: %w", err)
	}
	return nil
}
