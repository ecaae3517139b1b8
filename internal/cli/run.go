package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/beacon/internal/bus"
	"github.com/dshills/beacon/internal/config"
	"github.com/dshills/beacon/internal/host/headless"
	"github.com/dshills/beacon/internal/host/term"
	"github.com/dshills/beacon/internal/logging"
	"github.com/dshills/beacon/internal/menu"
	"github.com/dshills/beacon/internal/plugin"
)

type runOptions struct {
	plugins string
	tui     bool
	wait    bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load Lua plugins that share one indicator",
		Long: "run loads every .lua file (or directory with init.lua) under --plugins, " +
			"each with its own beacon, and reports the resulting indicator state.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.plugins == "" {
				return errors.New("--plugins is required")
			}
			if opts.tui {
				return a.runTUI(cmd.Context(), opts)
			}
			return a.runHeadless(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.plugins, "plugins", "p", "", "directory of Lua plugins")
	f.BoolVar(&opts.tui, "tui", false, "draw the indicator on the terminal")
	f.BoolVar(&opts.wait, "wait", false, "keep plugins loaded until interrupted, reloading the log level on config changes")
	return cmd
}

func (a *app) runHeadless(cmd *cobra.Command, opts runOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	b := bus.New(bus.WithLogger(a.log))
	sink := &bufferSink{}
	host, err := plugin.NewHost(plugin.Options{
		Bus:       b,
		Indicator: headless.NewHost(a.log),
		Presenter: headless.NewPresenter(a.log, 0),
		Config:    &a.cfg,
		Logger:    a.log,
		Output:    sink,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := host.Close(context.Background()); err != nil {
			a.log.Warn("plugin teardown", "error", err.Error())
		}
	}()

	loaded, loadErr := host.LoadDir(ctx, opts.plugins)
	if loadErr != nil {
		a.log.Error("some plugins failed to load", "error", loadErr.Error())
	}
	if len(loaded) == 0 {
		return fmt.Errorf("no plugins loaded from %s: %w", opts.plugins, errors.Join(plugin.ErrPluginNotFound, loadErr))
	}

	rows := pluginRows(host)
	if err := writeRows(out, a.jsonOut, fmt.Sprintf("%d plugins", len(rows)), rows); err != nil {
		return err
	}

	if opts.wait {
		a.watchConfig(ctx)
		<-ctx.Done()
	}
	if a.jsonOut {
		return nil
	}
	fmt.Fprintln(out)
	return writeSection(out, "output channel", sink.Lines())
}

func (a *app) runTUI(ctx context.Context, opts runOptions) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	a.log = logging.New(logging.Config{Level: a.log.Level(), Output: io.Discard})

	b := bus.New()
	bar := term.NewStatusBar(screen, b, term.WithLogger(a.log))
	host, err := plugin.NewHost(plugin.Options{
		Bus:       b,
		Indicator: bar,
		Presenter: term.NewPicker(bar),
		Config:    &a.cfg,
		Logger:    a.log,
	})
	if err != nil {
		return err
	}
	defer func() { _ = host.Close(context.Background()) }()

	loaded, loadErr := host.LoadDir(ctx, opts.plugins)
	notice := fmt.Sprintf("%d plugins loaded. F2 or click the indicator; Ctrl-C quits.", len(loaded))
	level := menu.LevelInfo
	if loadErr != nil {
		notice = fmt.Sprintf("%d plugins loaded, some failed: %v", len(loaded), loadErr)
		level = menu.LevelError
	}
	bar.SetNotice(notice, level)
	a.watchConfig(ctx)

	if err := bar.Run(ctx, nil); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// watchConfig applies log level changes from the config file until ctx
// ends. Without a config file it does nothing.
func (a *app) watchConfig(ctx context.Context) {
	if a.configPath == "" {
		return
	}
	go func() {
		err := config.Watch(ctx, a.configPath,
			func(cfg config.Config) {
				level := logging.ParseLevel(cfg.Logging.Level)
				a.log.SetLevel(level)
				a.log.Info("config reloaded", "level", level.String())
			},
			func(err error) {
				a.log.Warn("config reload failed", "error", err.Error())
			})
		if err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn("config watch stopped", "error", err.Error())
		}
	}()
}

func pluginRows(host *plugin.Host) []row {
	plugins := host.List()
	rows := make([]row, 0, len(plugins))
	for _, p := range plugins {
		label := p.Name()
		if p.State() != plugin.StateActive {
			label += " (" + p.State().String() + ")"
		}
		rows = append(rows, row{Label: label, Snapshot: p.Beacon().DiagnosticInfo()})
	}
	sortRows(rows)
	return rows
}
