package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pders01/gamelib/internal/catalog"
	"github.com/pders01/gamelib/internal/config"
	"github.com/pders01/gamelib/internal/validation"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "gamelib %s\n", Version)
			fmt.Fprintln(out, "Game library dashboard")
			fmt.Fprintln(out, "github.com/pders01/gamelib")
		},
	}
}

func newGenerateConfigCmd() *cobra.Command {
	var (
		path  string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "generate-config",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = defaultConfigPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return fmt.Errorf("generating config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Destination (default ~/.config/gamelib/config.toml)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigureCmd(opts *rootOptions) *cobra.Command {
	var apiKey, accountID, proxy string
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Show or set the catalog API credentials",
		Long: `Without flags, configure prints the stored credentials with the key masked.
With --api-key and --account-id it validates and stores new credentials.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.open()
			if err != nil {
				return err
			}
			defer app.Close()
			out := cmd.OutOrStdout()

			if !cmd.Flags().Changed("api-key") && !cmd.Flags().Changed("account-id") {
				creds, ok := app.client.Config()
				if !ok {
					fmt.Fprintln(out, "Catalog API not configured")
					return nil
				}
				printCredentials(cmd, creds)
				return nil
			}

			valid, err := validation.ValidateCredentials(apiKey, accountID, proxy)
			if err != nil {
				return err
			}
			creds := catalog.Credentials{
				APIKey:       valid.APIKey,
				AccountID:    valid.AccountID,
				ProxyBaseURL: valid.ProxyBaseURL,
			}
			if err := app.client.SetConfig(creds); err != nil {
				return fmt.Errorf("saving credentials: %w", err)
			}
			fmt.Fprintln(out, "Credentials saved")
			printCredentials(cmd, creds)
			return nil
		},
	}
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Catalog API key (32 hex characters)")
	cmd.Flags().StringVar(&accountID, "account-id", "", "Account id (17 digits)")
	cmd.Flags().StringVar(&proxy, "proxy", "", "Optional proxy base URL")
	return cmd
}

func printCredentials(cmd *cobra.Command, creds catalog.Credentials) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "API key:    %s\n", validation.MaskSecret(creds.APIKey))
	fmt.Fprintf(out, "Account id: %s\n", creds.AccountID)
	if creds.ProxyBaseURL != "" {
		fmt.Fprintf(out, "Proxy:      %s\n", creds.ProxyBaseURL)
	}
}

func newTestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Check that the catalog API answers with the stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.open()
			if err != nil {
				return err
			}
			defer app.Close()

			if _, ok := app.client.Config(); !ok {
				return catalog.ErrNotConfigured
			}
			if !app.client.TestConnection(cmd.Context()) {
				return errors.New("connection test failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Connection OK")
			return nil
		},
	}
}
