// Package uiloop provides the single goroutine that owns UI-visible state.
//
// Worker goroutines never touch the presentation layer directly. They hand
// closures to a Loop with Defer, and the goroutine running Loop.Run executes
// them one at a time in submission order. Defer never blocks, so the loop
// goroutine may itself defer work without deadlocking.
package uiloop
