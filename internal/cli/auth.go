package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmoran/spotify-insights/internal/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with Spotify",
	Long: `Authenticate with Spotify using the OAuth authorization-code flow.

A browser URL is printed; after you approve access, the token is cached
under your user config directory and reused by the other commands until
it can no longer be refreshed.

Credentials come from SPOTIFY_ID and SPOTIFY_SECRET (or the config
file). Create an application at https://developer.spotify.com/dashboard
and register http://127.0.0.1:8910/callback as its redirect URI.`,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger()

	authenticator, err := auth.New(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, log)
	if err != nil {
		return err
	}

	client, err := authenticator.Login(cmd.Context())
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	user, err := client.CurrentUser(cmd.Context())
	if err != nil {
		return fmt.Errorf("verifying token: %w", err)
	}

	fmt.Printf("\nAuthenticated as %s.\n", user.ID)
	fmt.Println("You can now run 'spotify-insights run' to build your dashboard data.")
	return nil
}
