// Command podium is the CLI entry point: it runs the assessment daemon and
// offers status, report, and configuration subcommands.
package main
