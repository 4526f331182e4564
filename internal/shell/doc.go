// Package shell is the terminal front end of imgbatch. It owns the UI loop
// goroutine and the job manager, asks recovery questions on the terminal and
// draws batch progress with a progress bar.
package shell
