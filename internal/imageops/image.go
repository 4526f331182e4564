package imageops

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
)

// Image is a file-backed image whose pixels are loaded on demand.
// It is safe for concurrent use.
type Image struct {
	path string

	mu       sync.Mutex
	data     image.Image
	format   Format
	modified bool
	history  []Transform
}

// Open returns an unloaded image for path. Nothing is read until Load.
func Open(path string) *Image {
	return &Image{path: path}
}

// FromImage wraps already decoded pixels. The image counts as loaded and
// unmodified.
func FromImage(path string, data image.Image) *Image {
	format, _ := FormatFromPath(path)
	return &Image{path: path, data: data, format: format}
}

// Path returns the file the image was opened from.
func (im *Image) Path() string {
	return im.path
}

// Caption is the short name shown to the user.
func (im *Image) Caption() string {
	return filepath.Base(im.path)
}

// Loaded reports whether pixel data is in memory.
func (im *Image) Loaded() bool {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.data != nil
}

// Modified reports whether the in-memory pixels differ from the file.
func (im *Image) Modified() bool {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.modified
}

// Bounds returns the pixel bounds, or an empty rectangle if not loaded.
func (im *Image) Bounds() image.Rectangle {
	im.mu.Lock()
	defer im.mu.Unlock()
	if im.data == nil {
		return image.Rectangle{}
	}
	return im.data.Bounds()
}

// Data returns the current pixels, or nil if not loaded.
func (im *Image) Data() image.Image {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.data
}

// Load decodes the file if it is not already in memory.
func (im *Image) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	if im.data != nil {
		return nil
	}

	f, err := os.Open(im.path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, name, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", im.Caption(), err)
	}

	im.data = data
	im.format = Format(name)
	im.modified = false
	return nil
}

// Unload drops the pixels and the undo history.
func (im *Image) Unload() {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.data = nil
	im.history = nil
	im.modified = false
}

// Apply transforms the pixels in memory and records t for Undo.
func (im *Image) Apply(t Transform) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	if im.data == nil {
		return fmt.Errorf("%w: %s", ErrNotLoaded, im.Caption())
	}
	if t.IsIdentity() {
		return nil
	}

	im.data = t.Apply(im.data)
	im.history = append(im.history, t)
	im.modified = true
	return nil
}

// Undo reverts the most recent Apply.
func (im *Image) Undo() error {
	im.mu.Lock()
	defer im.mu.Unlock()

	if im.data == nil {
		return fmt.Errorf("%w: %s", ErrNotLoaded, im.Caption())
	}
	if len(im.history) == 0 {
		return fmt.Errorf("%w: %s", ErrNothingToUndo, im.Caption())
	}

	last := im.history[len(im.history)-1]
	im.history = im.history[:len(im.history)-1]
	im.data = last.Reverse().Apply(im.data)
	im.modified = len(im.history) > 0
	return nil
}

// Transform returns the net transform applied since load.
func (im *Image) Transform() Transform {
	im.mu.Lock()
	defer im.mu.Unlock()

	net := Identity
	for _, t := range im.history {
		net = net.Compose(t)
	}
	return net
}
