// Package events provides batch lifecycle events and an in-process emitter.
//
// The batch coordinator emits events as items start, fail, receive a recovery
// decision and as the batch finishes. Handlers such as the log handler here
// and the Prometheus handler in platform/metrics subscribe without the
// coordinator knowing about them.
//
// The primary components are:
// - BatchEvent: a single lifecycle event
// - EventHandler: interface for components that can handle events
// - EventEmitter: interface for components that can emit events
package events
