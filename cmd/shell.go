// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"querydesk/cli/internal/display"
	"querydesk/cli/internal/workbench"
	"querydesk/cli/internal/xdg"
)

const shellPrompt = "querydesk> "

// shellCmd starts the interactive session.
var shellCmd = &cobra.Command{
	Use:     "shell",
	Aliases: []string{"repl"},
	Short:   "Start an interactive query session",
	Long: `The shell command opens an interactive session. Pick a database with .use, then type
questions; each line is sent to the backend and the result is shown as a table. .export
downloads the last successful result as a spreadsheet.

Type .help for the list of commands. Ctrl-C cancels a running request.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := display.ParseFormat(cfg.Output)
		if err != nil {
			return err
		}
		s, err := newSession(os.Stdout, os.Stdout, format)
		if err != nil {
			return err
		}
		defer s.Close()

		rlCfg := &readline.Config{
			Prompt:          shellPrompt,
			AutoComplete:    shellCompleter(s.wb),
			InterruptPrompt: "^C",
			EOFPrompt:       ".quit",
		}
		if hist, err := xdg.HistoryFile(); err == nil {
			rlCfg.HistoryFile = hist
		} else {
			log.Warn("shell history disabled", log.Args("error", err))
		}
		rl, err := readline.NewEx(rlCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize shell: %w", err)
		}
		defer func() { _ = rl.Close() }()

		out := rl.Stdout()
		pterm.Fprintln(out, pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).Sprint("querydesk ")+pterm.NewStyle(pterm.FgGray).Sprint(Version))
		pterm.Fprintln(out, "Type .help for commands, .quit to exit")
		pterm.Fprintln(out)

		run(cmd.Context(), s.wb, workbench.LoadSources())
		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}

			action, meta, err := parseShellLine(line)
			if err != nil {
				pterm.Fprintln(out, pterm.Warning.Sprint(err.Error()))
				continue
			}
			switch meta {
			case "":
				run(cmd.Context(), s.wb, action)
			case "quit":
				return nil
			case "help":
				printShellHelp(out)
			case "status":
				printShellStatus(out, s.wb)
			case "skip":
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.Flags().StringP("output", "o", "", "Output format: "+formatNames())
}

// run dispatches a, cancelling it on Ctrl-C. Errors have already been rendered.
func run(parent context.Context, wb *workbench.Workbench, a workbench.Action) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := wb.Dispatch(ctx, a); err != nil {
		log.Debug("action failed", log.Args("action", a.Kind.String(), "error", err))
		hintTransport(os.Stdout, err)
	}
}

// parseShellLine turns an input line into a workbench action, or a meta command
// (help, status, quit) handled by the shell itself. Blank lines yield "skip".
func parseShellLine(line string) (workbench.Action, string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return workbench.Action{}, "skip", nil
	}
	if !strings.HasPrefix(line, ".") {
		return workbench.Submit(line), "", nil
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(name) {
	case ".quit", ".exit":
		return workbench.Action{}, "quit", nil
	case ".help":
		return workbench.Action{}, "help", nil
	case ".status":
		return workbench.Action{}, "status", nil
	case ".sources", ".databases":
		return workbench.LoadSources(), "", nil
	case ".export":
		return workbench.Export(), "", nil
	case ".use":
		if arg == "" {
			return workbench.Action{}, "", errors.New("usage: .use NAME")
		}
		return workbench.SelectSource(arg), "", nil
	default:
		return workbench.Action{}, "", fmt.Errorf("unknown command %s (type .help for commands)", name)
	}
}

func shellCompleter(wb *workbench.Workbench) *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".sources"),
		readline.PcItem(".use", readline.PcItemDynamic(func(string) []string { return wb.Sources() })),
		readline.PcItem(".export"),
		readline.PcItem(".status"),
		readline.PcItem(".quit"),
	)
}

func printShellHelp(w io.Writer) {
	help := `
Commands:
  .sources        Reload the list of databases
  .use NAME       Select the database to query
  .export         Download the last successful result as a spreadsheet
  .status         Show the selected database and last query
  .help           Show this help message
  .quit / .exit   Leave the shell

Any other line is sent to the backend as a question.
`
	_, _ = fmt.Fprintln(w, help)
}

func printShellStatus(w io.Writer, wb *workbench.Workbench) {
	c := wb.Controls()
	source, ok := wb.Session().SelectedSource()
	if !ok {
		source = "(none)"
	}
	last, ok := wb.Session().LastQuery()
	if !ok {
		last = "(none)"
	}
	rows := [][]string{
		{"Database", display.SanitizeLine(source)},
		{"Indicator", c.Indicator.State.String() + ": " + display.SanitizeLine(c.Indicator.Text)},
		{"Last query", display.SanitizeLine(last)},
		{"Last outcome", wb.LastOutcome().String()},
		{"Export", fmt.Sprintf("%t", c.Export.Enabled)},
		{"Backend", display.SanitizeLine(cfg.Backend.URL) + " (" + cfg.Backend.Transport + ")"},
	}
	out, err := pterm.DefaultTable.WithData(rows).Srender()
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(w, out)
}
