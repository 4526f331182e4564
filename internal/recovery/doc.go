// Package recovery lets a worker goroutine ask the user how to handle a
// failed item and wait for the answer, while the UI goroutine never waits
// on the worker.
//
// The worker builds a Request and defers its presentation to the UI loop,
// then blocks on the request's one-shot reply slot. The UI side answers with
// Respond, which never blocks: the slot has room for exactly one decision and
// later answers are dropped.
package recovery
