// Package config loads CLI configuration from defaults, a YAML file in the XDG config dir,
// QUERYDESK_* environment variables and command-line flags, in increasing precedence.
// Only non-secret settings are kept here; the API token goes to the OS keychain.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"querydesk/cli/internal/backend"
	"querydesk/cli/internal/wire"
	"querydesk/cli/internal/xdg"
)

// EnvPrefix prefixes every environment variable. A double underscore separates nested keys,
// so QUERYDESK_BACKEND__URL sets backend.url.
const EnvPrefix = "QUERYDESK_"

// FileName is the config file looked up in the XDG config dir.
const FileName = "config.yaml"

// Config holds non-sensitive CLI settings.
type Config struct {
	Backend     BackendConfig `koanf:"backend"`
	LogLevel    string        `koanf:"log_level"`
	LogFormat   string        `koanf:"log_format"`
	DownloadDir string        `koanf:"download_dir"`
	Output      string        `koanf:"output"`
	Verbose     bool          `koanf:"verbose"`
	Server      ServerConfig  `koanf:"server"`
}

// BackendConfig describes how to reach the query backend.
type BackendConfig struct {
	URL       string            `koanf:"url"`
	Transport string            `koanf:"transport"`
	Timeout   time.Duration     `koanf:"timeout"`
	Insecure  bool              `koanf:"insecure"`
	Endpoints backend.Endpoints `koanf:"endpoints"`
}

// ServerConfig configures the development backend started by `querydesk serve`.
type ServerConfig struct {
	Addr            string   `koanf:"addr"`
	GRPCAddr        string   `koanf:"grpc_addr"`
	Driver          string   `koanf:"driver"`
	DSN             string   `koanf:"dsn"`
	Token           string   `koanf:"token"`
	HiddenDatabases []string `koanf:"hidden_databases"`
}

// Options returns the backend client options for this configuration.
func (c *Config) Options(token string) backend.Options {
	return backend.Options{
		URL:       c.Backend.URL,
		Transport: c.Backend.Transport,
		Token:     token,
		Timeout:   c.Backend.Timeout,
		Insecure:  c.Backend.Insecure,
		Endpoints: c.Backend.Endpoints,
	}
}

func defaults() map[string]any {
	return map[string]any{
		"backend.url":               "http://127.0.0.1:5000",
		"backend.transport":         backend.TransportHTTP,
		"backend.timeout":           "0s",
		"backend.insecure":          false,
		"backend.endpoints.sources": wire.PathSources,
		"backend.endpoints.select":  wire.PathSelect,
		"backend.endpoints.query":   wire.PathQuery,
		"backend.endpoints.export":  wire.PathExport,
		"log_level":                 "info",
		"log_format":                "text",
		"download_dir":              ".",
		"output":                    "table",
		"verbose":                   false,
		"server.addr":               "127.0.0.1:5000",
		"server.grpc_addr":          "",
		"server.driver":             "sqlite",
		"server.dsn":                ".",
		"server.token":              "",
		"server.hidden_databases":   []string{"sys", "information_schema", "mysql", "performance_schema"},
	}
}

// flagKeys maps flag names onto config keys. Flags not listed are not configuration.
var flagKeys = map[string]string{
	"backend":      "backend.url",
	"transport":    "backend.transport",
	"timeout":      "backend.timeout",
	"insecure":     "backend.insecure",
	"log-level":    "log_level",
	"log-format":   "log_format",
	"download-dir": "download_dir",
	"output":       "output",
	"verbose":      "verbose",
	"addr":         "server.addr",
	"grpc-addr":    "server.grpc_addr",
	"driver":       "server.driver",
	"dsn":          "server.dsn",
	"token":        "server.token",
}

// DefaultPath returns the config file path in the XDG config dir.
func DefaultPath() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads configuration. An explicit cfgFile must exist; the default file is optional.
// flags may be nil. Only flags the user actually set override other sources.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := cfgFile
	if path == "" {
		if p, err := DefaultPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			}
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey turns QUERYDESK_BACKEND__URL into backend.url.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Backend.Transport) {
	case backend.TransportHTTP, backend.TransportGRPC:
	default:
		errs = append(errs, fmt.Errorf("backend.transport: unknown transport %q", c.Backend.Transport))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format: unknown format %q", c.LogFormat))
	}
	if c.Backend.Timeout < 0 {
		errs = append(errs, errors.New("backend.timeout: must not be negative"))
	}
	if strings.TrimSpace(c.Backend.URL) == "" {
		errs = append(errs, errors.New("backend.url: must be set"))
	}
	return errors.Join(errs...)
}
