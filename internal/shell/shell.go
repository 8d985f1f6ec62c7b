// Package shell is the line-oriented front end of the wheel: Enter spins,
// a few words inspect the weights, and end of input quits.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	service "github.com/okian/wheel/internal/app"
	"github.com/okian/wheel/pkg/logger"
)

const prompt = "> "

const helpText = `Commands:
  <enter>, spin   spin the wheel
  weights         show each entrant's weight and chance of winning next
  help            show this help
  quit, q         save and exit (end of input does the same)
`

// Wheel is what the shell drives. *service.Service satisfies it.
type Wheel interface {
	Spin(ctx context.Context) (service.Outcome, error)
	Snapshot() service.Snapshot
}

// Shell reads commands from in and writes results to out.
type Shell struct {
	wheel  Wheel
	in     io.Reader
	out    io.Writer
	logger logger.Logger
}

// Option applies a configuration option to the Shell.
type Option func(*Shell)

// WithLogger sets a custom logger for the shell.
func WithLogger(l logger.Logger) Option {
	return func(s *Shell) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Shell.
func New(wheel Wheel, in io.Reader, out io.Writer, opts ...Option) *Shell {
	s := &Shell{wheel: wheel, in: in, out: out}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("shell")
	}
	return s
}

// Run processes commands until quit, end of input, or ctx is done. It
// returns nil in all three cases; only read failures and spin failures other
// than a failed save are returned.
func (s *Shell) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	s.printf("Press Enter to spin. Type help for commands.\n%s", prompt)
	for {
		select {
		case <-ctx.Done():
			s.printf("\n")
			return nil
		case line, ok := <-lines:
			if !ok {
				s.printf("\n")
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			quit, err := s.handle(ctx, strings.ToLower(strings.TrimSpace(line)))
			if err != nil || quit {
				return err
			}
			s.printf("%s", prompt)
		}
	}
}

// handle runs one command and reports whether the shell should exit.
func (s *Shell) handle(ctx context.Context, cmd string) (bool, error) {
	switch cmd {
	case "", "spin":
		return false, s.spin(ctx)
	case "weights", "w":
		s.weights()
	case "help", "h", "?":
		s.printf("%s", helpText)
	case "quit", "q", "exit":
		return true, nil
	default:
		s.printf("Unknown command %q. Type help for commands.\n", cmd)
	}
	return false, nil
}

func (s *Shell) spin(ctx context.Context) error {
	out, err := s.wheel.Spin(ctx)
	if err != nil && !errors.Is(err, service.ErrPersist) {
		return err
	}
	if out.HasWinner {
		s.printf("Winner: %s\n", out.Winner)
	} else {
		s.printf("No winner this round\n")
	}
	if err != nil {
		s.logger.Warn(ctx, "spin result not saved", logger.Error(err))
		s.printf("Warning: weights could not be saved: %v\n", err)
	}
	return nil
}

func (s *Shell) weights() {
	snap := s.wheel.Snapshot()
	width := len("name")
	for _, name := range snap.Names {
		width = max(width, len(name))
	}
	s.printf("%-*s %14s %8s\n", width, "name", "weight", "chance")
	for i, name := range snap.Names {
		marker := ""
		if snap.HasLastWinner && name == snap.LastWinner {
			marker = "  (last winner)"
		}
		s.printf("%-*s %14d %7.2f%%%s\n", width, name, snap.Weights[i], snap.Probabilities[i]*100, marker)
	}
}

func (s *Shell) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format, args...)
}
