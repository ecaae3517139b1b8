package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "BEACON_"

// Load builds a Config from defaults, the TOML file at path and the
// environment, in that order of precedence. A missing file is not an
// error; an empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decode(path, data, &cfg); err != nil {
				return Config{}, err
			}
		case os.IsNotExist(err):
		default:
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadReader decodes TOML from r on top of the defaults. The environment
// is not consulted.
func LoadReader(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := decode("<reader>", data, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

func decode(source string, data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return &ParseError{Path: source, Message: err.Error(), Err: err}
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

// applyEnv overlays BEACON_* variables. Empty values are treated as set.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	if v, ok := lookup(EnvPrefix + "NAMESPACE"); ok {
		cfg.Namespace = v
	}
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := lookup(EnvPrefix + "LOG_FORMAT"); ok {
		cfg.Logging.Format = v
	}
	if v, ok := lookup(EnvPrefix + "RELAY_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ParseError{Path: EnvPrefix + "RELAY_TIMEOUT", Message: err.Error(), Err: err}
		}
		cfg.Relay.Timeout = Duration(d)
	}
	if v, ok := lookup(EnvPrefix + "RELEASE_ON_EMPTY"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ParseError{Path: EnvPrefix + "RELEASE_ON_EMPTY", Message: err.Error(), Err: err}
		}
		cfg.Relay.ReleaseOnEmpty = b
	}
	if v, ok := lookup(EnvPrefix + "DEFERRED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ParseError{Path: EnvPrefix + "DEFERRED", Message: err.Error(), Err: err}
		}
		cfg.Relay.Deferred = b
	}
	return nil
}
