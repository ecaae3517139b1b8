package config

import (
	"fmt"
	"strings"
	"time"
)

// Endpoint name suffixes. The full name is "<namespace>.<suffix>".
const (
	SuffixRegister    = "registerWithOwner"
	SuffixUnregister  = "unregisterWithOwner"
	SuffixMenu        = "showMenu"
	SuffixDiagnostics = "showDiagnostics"
)

// Duration is a time.Duration that decodes from strings like "2s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds all beacon settings.
type Config struct {
	// Namespace prefixes every bus endpoint name. All sibling copies must
	// agree on it to find each other.
	Namespace string `toml:"namespace"`

	Indicator IndicatorConfig `toml:"indicator"`
	Relay     RelayConfig     `toml:"relay"`
	Logging   LoggingConfig   `toml:"logging"`
}

// IndicatorConfig configures the shared indicator item.
type IndicatorConfig struct {
	// Text is the static label.
	Text string `toml:"text"`

	// Tooltip is a format string with one %d verb for the client count.
	Tooltip string `toml:"tooltip"`
}

// RelayConfig configures the election and relay protocol.
type RelayConfig struct {
	// Timeout bounds each forwarded call. A silent owner is treated as absent.
	Timeout Duration `toml:"timeout"`

	// ReleaseOnEmpty releases the owner endpoints when the last client
	// unregisters, allowing another instance to take over.
	ReleaseOnEmpty bool `toml:"release_on_empty"`

	// Deferred batches indicator recomputes to one per loop turn.
	Deferred bool `toml:"deferred"`
}

// LoggingConfig configures the default log output.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Endpoints holds the derived bus endpoint names.
type Endpoints struct {
	Register    string
	Unregister  string
	Menu        string
	Diagnostics string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Namespace: "beacon",
		Indicator: IndicatorConfig{
			Text:    "$(extensions) Siblings",
			Tooltip: DefaultTooltip,
		},
		Relay: RelayConfig{
			Timeout: Duration(2 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Endpoints derives the bus endpoint names from the namespace.
func (c Config) Endpoints() Endpoints {
	ns := c.Namespace
	return Endpoints{
		Register:    ns + "." + SuffixRegister,
		Unregister:  ns + "." + SuffixUnregister,
		Menu:        ns + "." + SuffixMenu,
		Diagnostics: ns + "." + SuffixDiagnostics,
	}
}

// DefaultTooltip is the built-in tooltip format.
const DefaultTooltip = "%d extensions active"

// TooltipFunc renders the tooltip for count clients. The built-in format
// reads "1 extension active" for a single client.
func (c Config) TooltipFunc() func(int) string {
	format := c.Indicator.Tooltip
	return func(count int) string {
		if count == 1 && format == DefaultTooltip {
			return "1 extension active"
		}
		return fmt.Sprintf(format, count)
	}
}

// Validate checks the configuration for values the protocol cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Namespace) == "" {
		return fmt.Errorf("%w: namespace is empty", ErrInvalidConfig)
	}
	if strings.ContainsAny(c.Namespace, " \t\n") {
		return fmt.Errorf("%w: namespace %q contains whitespace", ErrInvalidConfig, c.Namespace)
	}
	if c.Relay.Timeout < 0 {
		return fmt.Errorf("%w: relay timeout %s is negative", ErrInvalidConfig, c.Relay.Timeout.Std())
	}
	if err := checkTooltip(c.Indicator.Tooltip); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

// checkTooltip accepts a format with exactly one %d and otherwise only %%.
func checkTooltip(format string) error {
	counts := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		if i+1 == len(format) {
			return fmt.Errorf("%w: tooltip %q ends with a bare %%", ErrInvalidConfig, format)
		}
		i++
		switch format[i] {
		case '%':
		case 'd':
			counts++
		default:
			return fmt.Errorf("%w: tooltip %q has unsupported verb %%%c", ErrInvalidConfig, format, format[i])
		}
	}
	if counts != 1 {
		return fmt.Errorf("%w: tooltip %q needs exactly one %%d", ErrInvalidConfig, format)
	}
	return nil
}
