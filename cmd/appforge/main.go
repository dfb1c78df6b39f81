// Command appforge turns an architecture spec into a deployed
// application: it validates the graph, plans a codebase, generates it
// through a descending strategy ladder, and publishes the result.
package main

import (
	"flag"
	"fmt"
	"os"

	"appforge/pkg/version"
)

const usageText = `Usage: appforge <command> [flags]

Commands:
  run      Generate an application from an architecture spec
  jobs     List jobs for a project
  sweep    Remove stale workspace directories
  usage    Show provider token usage for a job
  doctor   Run preflight checks against the current configuration
  secrets  Manage encrypted credentials
  version  Show version information

Run "appforge <command> -h" for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	var exitCode int
	switch os.Args[1] {
	case "run":
		exitCode = cmdRun(os.Args[2:])
	case "jobs":
		exitCode = cmdJobs(os.Args[2:])
	case "sweep":
		exitCode = cmdSweep(os.Args[2:])
	case "usage":
		exitCode = cmdUsage(os.Args[2:])
	case "doctor":
		exitCode = cmdDoctor(os.Args[2:])
	case "secrets":
		exitCode = cmdSecrets(os.Args[2:])
	case "version":
		fmt.Printf("appforge %s\n", version.Version)
		fmt.Printf("  commit: %s\n", version.Commit)
		fmt.Printf("  built:  %s\n", version.Date)
	case "-h", "--help", "help":
		fmt.Print(usageText)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usageText)
		exitCode = 2
	}
	os.Exit(exitCode)
}

// commonFlags registers the flags every subcommand shares.
func commonFlags(fs *flag.FlagSet) *string {
	return fs.String("projectdir", ".", "Project directory")
}
