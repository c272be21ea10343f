package main

import (
	"fmt"
	"os"

	app "github.com/valter-silva-au/agent-session/internal"
	"github.com/valter-silva-au/agent-session/internal/cli"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	sessionDir := app.ResolveSessionDir()

	a, err := app.NewApp(sessionDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing ase: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
