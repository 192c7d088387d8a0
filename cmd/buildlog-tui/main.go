package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/handiism/buildlog-dashboard/internal/config"
	"github.com/handiism/buildlog-dashboard/internal/tui"
)

func main() {
	var (
		configFlag    = flag.String("config", config.DefaultPath(), "Path to config file")
		workspaceFlag = flag.String("workspace", "", "Workspace directory (overrides config)")
		verboseFlag   = flag.Bool("verbose", false, "Show verbose output")
	)
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *workspaceFlag != "" {
		settings.WorkspacePath = *workspaceFlag
	} else if flag.NArg() > 0 {
		settings.WorkspacePath = flag.Arg(0)
	}
	if *verboseFlag {
		settings.Verbose = true
	}

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
