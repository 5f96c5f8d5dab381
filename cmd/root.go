// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the querydesk client.
// It implements subcommands for the interactive shell, one-shot queries, source listing,
// API token management and the local development backend, using the Cobra CLI framework.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"querydesk/cli/internal/backend"
	"querydesk/cli/internal/config"
	qerrors "querydesk/cli/internal/errors"
	"querydesk/cli/internal/httperrors"
	"querydesk/cli/internal/keychain"
	"querydesk/cli/internal/logging"
)

// tokenEnv overrides the keychain token when set.
const tokenEnv = "QUERYDESK_TOKEN"

var (
	showVersion bool
	cfgFile     string

	cfg *config.Config
	log *pterm.Logger = logging.Discard()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "querydesk",
	Short: "Terminal client for a natural-language query backend",
	Long: `querydesk talks to a query backend that turns natural-language questions into SQL,
runs them against a selected database and returns the rows. Use 'querydesk shell' for an
interactive session or 'querydesk query' for a single question.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		level := loaded.LogLevel
		if loaded.Verbose {
			level = "debug"
		}
		l, err := logging.New(level, loaded.LogFormat, os.Stderr)
		if err != nil {
			return err
		}
		cfg, log = loaded, l
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			printVersion(cmd.OutOrStdout())
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application. Failures already shown to the user only set the exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var shown *reportedError
		if !errors.As(err, &shown) {
			pterm.Error.Println(logging.PresentError("", err))
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default $XDG_CONFIG_HOME/querydesk/config.yaml)")
	pf.String("backend", "", "Backend URL, or host:port for grpc")
	pf.String("transport", "", "Backend transport: http or grpc")
	pf.Duration("timeout", 0, "Per-request timeout (0 waits indefinitely)")
	pf.Bool("insecure", false, "Dial grpc backends without TLS")
	pf.String("log-level", "", "Log level: trace, debug, info, warn, error or disabled")
	pf.String("log-format", "", "Log format: text or json")
	pf.String("download-dir", "", "Directory that receives exported files")
	pf.BoolP("verbose", "v", false, "Enable debug logging")
}

// reportedError marks a failure that was already rendered.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// resolveToken returns the API token from the environment or the keychain.
// A missing token is not an error: the backend may not require one.
func resolveToken() string {
	if t := strings.TrimSpace(os.Getenv(tokenEnv)); t != "" {
		return t
	}
	km, err := keychain.GetManager()
	if err != nil {
		log.Debug("keychain unavailable", log.Args("error", err))
		return ""
	}
	t, err := km.LoadToken(cfg.Backend.URL)
	if err != nil && !errors.Is(err, keychain.ErrNoToken) {
		log.Warn("reading API token failed", log.Args("error", err))
	}
	return t
}

// openBackend creates a client for the configured backend.
func openBackend() (backend.API, io.Closer, error) {
	api, closer, err := backend.New(cfg.Options(resolveToken()))
	if err != nil {
		return nil, nil, err
	}
	log.Debug("backend client ready", log.Args("url", logging.Mask(cfg.Backend.URL), "transport", cfg.Backend.Transport))
	return api, closer, nil
}

// hintTransport prints troubleshooting hints under a transport failure.
func hintTransport(w io.Writer, err error) {
	if !qerrors.Is(err, qerrors.Transport) {
		return
	}
	for _, h := range httperrors.Hints(httperrors.Classify(err), httperrors.ExtractHostFromURL(cfg.Backend.URL)) {
		fmt.Fprintln(w, pterm.NewStyle(pterm.FgGray).Sprint("  • "+h))
	}
}
