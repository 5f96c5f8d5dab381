// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"querydesk/cli/internal/backend"
	"querydesk/cli/internal/display"
	"querydesk/cli/internal/httperrors"
	"querydesk/cli/internal/keychain"
	"querydesk/cli/internal/terminal"
)

const verifyTimeout = 30 * time.Second

var loginSkipVerify bool

// loginCmd stores the backend API token in the OS keychain.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Store the backend API token in the OS keychain",
	Long: `The login command prompts for the API token of the configured backend, checks it by
listing the backend's databases and stores it in the OS keychain. Tokens are kept per backend
URL, so several backends can be used side by side.

The token is read without echo. When stdin is not a terminal it is read from the first line
of input, so it can be piped:

  printf '%s\n' "$TOKEN" | querydesk login --backend https://query.example.com

The QUERYDESK_TOKEN environment variable takes precedence over the stored token.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			pterm.Error.Println("Secure storage is not available on this system.")
			return reported(err)
		}

		token, err := readToken(fmt.Sprintf("Enter API token for %s: ", display.SanitizeLine(cfg.Backend.URL)))
		if err != nil {
			return err
		}
		if token == "" {
			return errors.New("API token is required")
		}

		if !loginSkipVerify {
			if err := verifyToken(cmd, token); err != nil {
				pterm.Error.Println("The backend did not accept the token; nothing was saved.")
				httperrors.Present(os.Stdout, err, cfg.Backend.URL)
				return reported(err)
			}
		}

		if err := km.SaveToken(cfg.Backend.URL, token); err != nil {
			pterm.Error.Println("Failed to save the token securely.")
			return reported(err)
		}
		pterm.Success.Printfln("Token saved for %s", display.SanitizeLine(cfg.Backend.URL))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().BoolVar(&loginSkipVerify, "skip-verify", false, "Save the token without contacting the backend")
}

// readToken prompts on stdout and reads a secret from stdin. On a terminal the prompt is
// cleared once the token is entered.
func readToken(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read token: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	fmt.Print(prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	terminal.ClearPreviousLines(os.Stdout, len([]rune(prompt)), terminal.Width(os.Stdout))
	return strings.TrimSpace(string(raw)), nil
}

// verifyToken lists sources with token and reports whether the backend accepted it.
func verifyToken(cmd *cobra.Command, token string) error {
	api, closer, err := backend.New(cfg.Options(token))
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), verifyTimeout)
	defer cancel()
	if terminal.IsInteractive(os.Stdout) {
		stop := display.StartInlineSpinner(os.Stdout, "Verifying token", display.SpinnerFrames, 100*time.Millisecond)
		defer stop()
	}
	_, err = api.ListSources(ctx)
	return err
}
