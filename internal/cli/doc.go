// Package cli implements the command-line interface for clubot.
//
// The cli package provides the Cobra-based CLI: watch runs the poll loop on
// its schedule, check runs a single cycle and reports new events through its
// exit code, and show prints the stored history of an activity. It wires the
// scraper, storage, poller, notifier and report packages from the loaded
// configuration.
package cli
