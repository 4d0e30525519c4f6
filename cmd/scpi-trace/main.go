// Command scpi-trace is a tool for viewing and analyzing SCPI session
// trace files.
//
// Trace files are created by pointing a driver's Trace configuration at a
// file logger, or with the -trace flag of scpi-shell.
//
// Usage:
//
//	scpi-trace <command> [flags] <file.strace>
//
// Commands:
//
//	view     View trace file in human-readable format
//	export   Export trace file to JSONL
//	stats    Show statistics about the trace file
//
// Examples:
//
//	# View all events
//	scpi-trace view session.strace
//
//	# View only queries
//	scpi-trace view -category query session.strace
//
//	# Export to JSONL
//	scpi-trace export session.strace
//
//	# Show statistics
//	scpi-trace stats session.strace
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/scpi-protocol/scpi-go/cmd/scpi-trace/commands"
)

const usage = `scpi-trace - SCPI Session Trace Analyzer

Usage:
  scpi-trace <command> [flags] <file.strace>

Commands:
  view     View trace file in human-readable format
  export   Export trace file to JSONL
  stats    Show statistics about the trace file

Use "scpi-trace <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `scpi-trace view - View trace file in human-readable format

Usage:
  scpi-trace view [flags] <file.strace>

Flags:
`)
		fs.PrintDefaults()
	}

	category := fs.String("category", "", "Filter by category (command, query, block, state, error)")
	session := fs.String("session", "", "Filter by session ID prefix")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}

	var filter commands.ViewFilter
	filter.Session = *session

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Category = &c
	}

	if err := commands.RunView(fs.Arg(0), filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `scpi-trace export - Export trace file to JSONL

Usage:
  scpi-trace export [flags] <file.strace>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunExport(fs.Arg(0), *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `scpi-trace stats - Show statistics about the trace file

Usage:
  scpi-trace stats <file.strace>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunStats(fs.Arg(0), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
