// Command weslined runs the wesline daemon until SIGINT or SIGTERM. It reads
// the default configuration file; use "wesline serve --config" to pick
// another.
package main

import (
	"context"
	"log"

	"wesline/internal/config"
	"wesline/internal/daemonrun"
)

var version = "dev"

func main() {
	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{Version: version}); err != nil {
		log.Fatalf("wesline daemon: %v", err)
	}
}
