package cli

import (
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/rmoran/spotify-insights/internal/dashboard"
	"github.com/rmoran/spotify-insights/internal/store"
	webfs "github.com/rmoran/spotify-insights/web"
)

var dashboardAddr string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Serve the insights dashboard",
	Long: `Serve the web dashboard over the persisted pipeline artifacts. The
server never calls the Spotify API; sections whose artifacts are missing
render an explicit unavailable panel instead. Artifacts are re-read per
request, so re-running the pipeline shows up without a restart.`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)

	dashboardCmd.Flags().StringVar(&dashboardAddr, "addr", "", "Listen address (default from config, 127.0.0.1:8080)")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger()

	addr := cfg.Dashboard.Addr
	if dashboardAddr != "" {
		addr = dashboardAddr
	}

	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}
	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := dashboard.NewServer(dashboard.ServerConfig{
		Addr:        addr,
		Store:       store.New(cfg.DataDir),
		TemplatesFS: templates,
		StaticFS:    static,
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	fmt.Printf("Dashboard at http://%s\n", addr)
	return server.Run()
}
