package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmoran/spotify-insights/internal/auth"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the cached Spotify token",
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	cache, err := auth.DefaultTokenCache()
	if err != nil {
		return err
	}

	if err := cache.Delete(); err != nil {
		return fmt.Errorf("removing cached token: %w", err)
	}

	fmt.Println("Cached token removed.")
	return nil
}
