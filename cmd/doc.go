// Package cmd implements the command-line interface for meetgate.
//
// This package provides the following commands:
//   - serve: Run the web server issuing cached daily Google Meet links
//   - reset: Clear all cached meeting links, e.g. from a daily CronJob
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
package cmd
