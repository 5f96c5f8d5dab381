// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"querydesk/cli/internal/display"
	"querydesk/cli/internal/keychain"
)

// logoutCmd removes the stored API token for the configured backend.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored API token",
	Long: `The logout command removes the API token stored for the configured backend from the OS
keychain. Tokens stored for other backends are kept. A token supplied through QUERYDESK_TOKEN
is not affected.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			pterm.Error.Println("Secure storage is not available on this system.")
			return reported(err)
		}
		if err := km.ClearToken(cfg.Backend.URL); err != nil {
			return err
		}
		pterm.Success.Printfln("Token removed for %s", display.SanitizeLine(cfg.Backend.URL))
		if os.Getenv(tokenEnv) != "" {
			pterm.Warning.Printfln("%s is still set and will be used", tokenEnv)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
