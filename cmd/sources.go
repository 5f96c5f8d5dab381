// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"querydesk/cli/internal/display"
	"querydesk/cli/internal/workbench"
)

var sourcesCmd = &cobra.Command{
	Use:     "sources",
	Aliases: []string{"databases"},
	Short:   "List the databases the backend can query",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(os.Stdout, os.Stdout, display.FormatTable)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.wb.Dispatch(cmd.Context(), workbench.LoadSources()); err != nil {
			hintTransport(os.Stdout, err)
			return reported(err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
