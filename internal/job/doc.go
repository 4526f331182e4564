// Package job runs fallible background work off the UI goroutine.
//
// A Manager owns a priority queue of pending jobs and a fixed pool of worker
// goroutines. Each Job carries an Action that runs on a worker, plus optional
// callbacks (progress, cancel, finished) that are always marshaled onto the
// UI loop through a uiloop.Deferrer. Every submitted job reaches exactly one
// finished callback, whether it completes, fails, or is canceled.
//
// Cancellation is cooperative: canceling a running job marks it canceled and
// cancels its context, but the worker keeps running the action until the
// action notices and returns.
package job
