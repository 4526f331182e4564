package batch

import (
	"sync"

	"github.com/phrazzld/imgbatch/internal/imageops"
)

// Destination describes where items are written. OverwriteAll is the
// batch-wide choice made before the batch starts; an Overwrite recovery
// decision only allows overwriting for the item being processed.
type Destination struct {
	Namer        imageops.Namer
	OverwriteAll bool
	Quality      int

	mu               sync.Mutex
	overwriteCurrent bool
}

// Target returns the save target for source. Without a Namer the item is
// written over its source.
func (d *Destination) Target(source string) (string, error) {
	if d == nil || d.Namer == nil {
		return source, nil
	}
	return d.Namer.Target(source)
}

// AllowOverwrite reports whether an existing target may be replaced.
func (d *Destination) AllowOverwrite() bool {
	if d == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.OverwriteAll || d.overwriteCurrent
}

// SaveOptions converts the destination into imageops options.
func (d *Destination) SaveOptions() imageops.SaveOptions {
	opts := imageops.SaveOptions{Overwrite: d.AllowOverwrite()}
	if d != nil {
		opts.Quality = d.Quality
	}
	return opts
}

func (d *Destination) setOverwriteCurrent(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.overwriteCurrent = v
}
