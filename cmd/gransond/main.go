package main

import (
	"fmt"
	"os"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	// Handle version flag before subcommand parsing
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-version") {
		fmt.Printf("gransond version %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	subcommand := os.Args[1]
	switch subcommand {
	case "sweep":
		runSweep(os.Args[2:])
	case "prune":
		runPrune(os.Args[2:])
	case "plan":
		runPlan(os.Args[2:])
	case "version":
		fmt.Printf("gransond version %s (built %s, commit %s)\n", version, buildTime, gitCommit)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: gransond <command> [options]

Commands:
  sweep       Start the sweep daemon (scheduled retention enforcement)
  prune       Run a single retention pass and exit
  plan        Show keep/delete decisions for timestamps without touching storage
  version     Print version information

Run 'gransond <command> --help' for more information on a command.`)
}
