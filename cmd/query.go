// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"querydesk/cli/internal/display"
	"querydesk/cli/internal/workbench"
)

var (
	querySource string
	queryExport bool
)

// queryCmd asks a single question and prints the result.
var queryCmd = &cobra.Command{
	Use:   "query [flags] TEXT...",
	Short: "Ask one question and print the result",
	Long: `The query command sends TEXT to the backend, shows the SQL it generated and prints the
returned rows. Without --source the backend's only database is used; when it has several,
name one with --source.

With a format other than table, rows go to stdout and everything else to stderr, so the
output can be piped:

  querydesk query --source shop -o csv "top ten products by revenue" > top.csv

With --export the result is also downloaded as a spreadsheet into the download directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := display.ParseFormat(cfg.Output)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		msgs := os.Stdout
		if format.Plain() {
			msgs = os.Stderr
		}
		s, err := newSession(os.Stdout, msgs, format)
		if err != nil {
			return err
		}
		defer s.Close()

		first := workbench.LoadSources()
		if querySource != "" {
			first = workbench.SelectSource(querySource)
		}
		steps := []workbench.Action{first, workbench.Submit(strings.Join(args, " "))}
		if queryExport {
			steps = append(steps, workbench.Export())
		}
		for _, a := range steps {
			if err := s.wb.Dispatch(ctx, a); err != nil {
				hintTransport(os.Stderr, err)
				return reported(err)
			}
		}
		return s.term.Err()
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&querySource, "source", "s", "", "Database to query")
	queryCmd.Flags().BoolVar(&queryExport, "export", false, "Also download the result as a spreadsheet")
	queryCmd.Flags().StringP("output", "o", "", "Output format: "+formatNames())
}
