// Package poller runs the fetch, reconcile, save and notify cycle for every
// watched activity, once or on a cron schedule.
package poller
