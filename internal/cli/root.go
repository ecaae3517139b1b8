// Package cli implements the beacon command line.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/beacon/internal/config"
	"github.com/dshills/beacon/internal/logging"
)

// Version information, set at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// app carries what PersistentPreRunE resolved for the subcommands.
type app struct {
	configPath string
	logLevel   string
	jsonOut    bool

	cfg config.Config
	log *logging.Logger
}

// NewRootCmd creates the top-level command with global flags.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "beacon",
		Short: "One shared status indicator for sibling extensions",
		Long: "beacon elects one owner among independently loaded copies of a plugin " +
			"and draws a single status indicator counting every registered client.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "TOML configuration file (or "+config.EnvPrefix+"CONFIG env)")
	pf.StringVar(&a.logLevel, "log-level", "", "override the log level (debug, info, warn, error)")
	pf.BoolVar(&a.jsonOut, "json", false, "print diagnostics as JSON")

	root.AddCommand(newSimulateCmd(a))
	root.AddCommand(newRunCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.configPath == "" {
		a.configPath = os.Getenv(config.EnvPrefix + "CONFIG")
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg
	a.log = logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Output: cmd.ErrOrStderr(),
		Format: logging.Format(cfg.Logging.Format),
		Prefix: "beacon",
	})
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		cmd.PrintErrln("Error:", err)
		return 1
	}
	return 0
}
