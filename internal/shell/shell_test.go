package shell_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/okian/wheel/internal/adapters/store"
	service "github.com/okian/wheel/internal/app"
	"github.com/okian/wheel/internal/shell"
	"github.com/okian/wheel/pkg/logger"
	"github.com/okian/wheel/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

type fixedSource struct{ value float64 }

func (f fixedSource) Float64() float64 { return f.value }

// fakeWheel replays outcomes and errors.
type fakeWheel struct {
	outcomes []service.Outcome
	errs     []error
	spins    int
}

func (f *fakeWheel) Spin(context.Context) (service.Outcome, error) {
	i := f.spins
	f.spins++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return f.outcomes[i], err
}

func (f *fakeWheel) Snapshot() service.Snapshot {
	return service.Snapshot{
		Names:         []string{"A", "Bob"},
		Weights:       []int{2, 1},
		LastWinner:    "Bob",
		HasLastWinner: true,
		Probabilities: []float64{1, 0},
	}
}

func run(w shell.Wheel, input string) (string, error) {
	var out bytes.Buffer
	err := shell.New(w, strings.NewReader(input), &out).Run(context.Background())
	return out.String(), err
}

func TestShell_Spin(t *testing.T) {
	Convey("Given a shell over a real wheel", t, func() {
		ctx := context.Background()
		st := store.NewMemoryStore(nil)
		svc := service.New(
			service.WithEntrants([]string{"A", "B", "C"}),
			service.WithStore(st),
			service.WithMetrics(metrics.NewManager()),
			service.WithSource(fixedSource{0.5}),
		)
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When the user presses Enter and then ends input", func() {
			out, err := run(svc, "\n")

			Convey("Then the winner should be printed and saved", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Winner: B")
				So(st.Saved(), ShouldResemble, []int{2, 1, 2})
			})
		})

		Convey("When the user types spin twice and quits", func() {
			out, err := run(svc, "spin\nSPIN\nquit\nspin\n")

			Convey("Then exactly two spins should run", func() {
				So(err, ShouldBeNil)
				So(strings.Count(out, "Winner: "), ShouldEqual, 2)
				So(st.Saves(), ShouldEqual, 2)
			})
		})

		Convey("When the user asks for the weights", func() {
			out, err := run(svc, "\nweights\n")

			Convey("Then the table should show weights, chances, and the last winner", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "chance")
				So(out, ShouldContainSubstring, "50.00%")
				So(out, ShouldContainSubstring, "(last winner)")
			})
		})
	})
}

func TestShell_Commands(t *testing.T) {
	Convey("Given a shell over a scripted wheel", t, func() {
		Convey("When the draw yields no winner", func() {
			w := &fakeWheel{outcomes: []service.Outcome{{}}}
			out, err := run(w, "\n")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "No winner this round")
		})

		Convey("When the save fails", func() {
			w := &fakeWheel{
				outcomes: []service.Outcome{{Winner: "A", HasWinner: true}, {Winner: "Bob", HasWinner: true}},
				errs:     []error{service.ErrPersist},
			}
			out, err := run(w, "\n\n")

			Convey("Then the winner should be shown with a warning and the shell should go on", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Winner: A")
				So(out, ShouldContainSubstring, "Warning: weights could not be saved")
				So(out, ShouldContainSubstring, "Winner: Bob")
				So(w.spins, ShouldEqual, 2)
			})
		})

		Convey("When the spin fails for another reason", func() {
			w := &fakeWheel{outcomes: []service.Outcome{{}}, errs: []error{service.ErrNotStarted}}
			_, err := run(w, "\n")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("When the user asks for help or types nonsense", func() {
			out, err := run(&fakeWheel{}, "help\nfoo\nq\n")
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Commands:")
			So(out, ShouldContainSubstring, `Unknown command "foo"`)
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			pr, pw := io.Pipe()
			defer func() { _ = pw.Close() }()

			var out bytes.Buffer
			err := shell.New(&fakeWheel{}, pr, &out).Run(ctx)

			Convey("Then the shell should return without reading", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}
