// Package batch drives one job across an ordered list of items, any of which
// may fail and receive its own recovery decision.
//
// A Coordinator's Run method is the job action. For each item it calls the
// Operation; on failure it asks the user through a recovery.Channel and acts
// on the answer (retry the item, skip it, allow overwriting for this item,
// or cancel the rest of the batch). Progress advances once per item, and
// cancellation is checked only between items.
package batch
