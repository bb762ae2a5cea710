// Command spotify-insights builds and serves a local dashboard of personal
// Spotify listening analytics.
package main

import "github.com/rmoran/spotify-insights/internal/cli"

func main() {
	cli.Execute()
}
