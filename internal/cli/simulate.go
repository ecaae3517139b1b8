package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/beacon/internal/beacon"
	"github.com/dshills/beacon/internal/bus"
	"github.com/dshills/beacon/internal/host/headless"
	"github.com/dshills/beacon/internal/host/term"
	"github.com/dshills/beacon/internal/indicator"
	"github.com/dshills/beacon/internal/logging"
	"github.com/dshills/beacon/internal/menu"
)

type simulateOptions struct {
	instances      int
	tui            bool
	releaseOnEmpty bool
	disposeOwner   bool
	choice         int
}

func newSimulateCmd(a *app) *cobra.Command {
	opts := simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Race several plugin copies for the shared indicator",
		Long: "simulate starts N beacon instances on one bus, registers client plugin-<i> " +
			"on each concurrently and reports which instance owns the indicator.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.instances < 1 {
				return fmt.Errorf("--instances must be at least 1, got %d", opts.instances)
			}
			if opts.releaseOnEmpty {
				a.cfg.Relay.ReleaseOnEmpty = true
			}
			if opts.tui {
				return a.simulateTUI(cmd.Context(), opts)
			}
			return a.simulateHeadless(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.instances, "instances", "n", 3, "number of plugin copies")
	f.BoolVar(&opts.tui, "tui", false, "draw the indicator on the terminal")
	f.BoolVar(&opts.releaseOnEmpty, "release-on-empty", false, "owner gives up its endpoints when the count reaches zero")
	f.BoolVar(&opts.disposeOwner, "dispose-owner", false, "dispose the owner and show a newcomer taking over")
	f.IntVar(&opts.choice, "choice", 0, "menu entry the headless presenter picks (-1 cancels)")
	return cmd
}

// spawn creates n beacons on b sharing host and presenter.
func (a *app) spawn(n int, b *bus.Bus, host indicator.Host, presenter menu.Presenter) ([]*beacon.Beacon, error) {
	out := make([]*beacon.Beacon, 0, n)
	for i := 0; i < n; i++ {
		bc, err := beacon.New(beacon.Options{
			Bus:       b,
			Host:      host,
			Presenter: presenter,
			Config:    &a.cfg,
			Logger:    a.log.WithField("plugin", fmt.Sprintf("plugin-%d", i)),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, bc)
	}
	return out, nil
}

// race registers plugin-<i> on every instance concurrently.
func race(ctx context.Context, instances []*beacon.Beacon) error {
	g, ctx := errgroup.WithContext(ctx)
	for i, bc := range instances {
		id := fmt.Sprintf("plugin-%d", i)
		g.Go(func() error {
			bc.RegisterExtension(ctx, id)
			return nil
		})
	}
	return g.Wait()
}

func snapshotRows(instances []*beacon.Beacon) []row {
	rows := make([]row, 0, len(instances))
	for i, bc := range instances {
		rows = append(rows, row{Label: fmt.Sprintf("plugin-%d", i), Snapshot: bc.DiagnosticInfo()})
	}
	sortRows(rows)
	return rows
}

func findOwner(instances []*beacon.Beacon) (int, bool) {
	for i, bc := range instances {
		if bc.IsOwner() {
			return i, true
		}
	}
	return -1, false
}

func (a *app) simulateHeadless(cmd *cobra.Command, opts simulateOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	b := bus.New(bus.WithLogger(a.log))
	host := headless.NewHost(a.log)
	presenter := headless.NewPresenter(a.log, opts.choice)

	instances, err := a.spawn(opts.instances, b, host, presenter)
	if err != nil {
		return err
	}
	defer func() {
		for i := len(instances) - 1; i >= 0; i-- {
			instances[i].Dispose()
		}
	}()

	sink := &bufferSink{}
	instances[0].SetOutputChannel(sink)

	if err := race(ctx, instances); err != nil {
		return err
	}
	if err := writeRows(out, a.jsonOut, "after registration", snapshotRows(instances)); err != nil {
		return err
	}

	names := a.cfg.Endpoints()
	picked, err := b.Invoke(ctx, names.Menu)
	if err != nil {
		return fmt.Errorf("invoking menu: %w", err)
	}
	if !a.jsonOut {
		fmt.Fprintf(out, "\nmenu selection: %v\n", picked)
	}

	if opts.disposeOwner {
		if i, ok := findOwner(instances); ok {
			instances[i].Dispose()
			newcomer, err := a.spawn(1, b, host, presenter)
			if err != nil {
				return err
			}
			instances = append(instances, newcomer[0])
			newcomer[0].RegisterExtension(ctx, fmt.Sprintf("plugin-%d", len(instances)-1))
			if !a.jsonOut {
				fmt.Fprintln(out)
			}
			if err := writeRows(out, a.jsonOut, "after owner disposal", snapshotRows(instances)); err != nil {
				return err
			}
		}
	}

	if _, err := b.Invoke(ctx, names.Diagnostics); err != nil {
		a.log.Warn("diagnostics unavailable", "error", err.Error())
	}
	if a.jsonOut {
		return nil
	}
	fmt.Fprintln(out)
	return writeSection(out, "output channel", sink.Lines())
}

func (a *app) simulateTUI(ctx context.Context, opts simulateOptions) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	// Log lines would tear the screen.
	a.log = logging.New(logging.Config{Level: a.log.Level(), Output: io.Discard})

	b := bus.New(bus.WithLogger(a.log))
	bar := term.NewStatusBar(screen, b, term.WithLogger(a.log))
	picker := term.NewPicker(bar)

	instances, err := a.spawn(opts.instances, b, bar, picker)
	if err != nil {
		return err
	}
	defer func() {
		for i := len(instances) - 1; i >= 0; i-- {
			instances[i].Dispose()
		}
	}()

	if err := race(ctx, instances); err != nil {
		return err
	}
	bar.SetNotice(fmt.Sprintf("%d instances raced. F2 or click the indicator; Ctrl-C quits.", len(instances)), menu.LevelInfo)

	if err := bar.Run(ctx, nil); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
