package imageops

import "errors"

// Errors returned by image operations. They are wrapped with the offending
// path, so callers should match them with errors.Is.
var (
	// ErrDestinationExists is returned when a save target already exists and
	// overwriting was not allowed.
	ErrDestinationExists = errors.New("destination already exists")

	// ErrNotLoaded is returned when an operation needs pixel data that has
	// not been loaded.
	ErrNotLoaded = errors.New("no image loaded")

	// ErrTempFile is returned when the temporary file for an atomic save
	// could not be created or written.
	ErrTempFile = errors.New("temporary file failed")

	// ErrUnsupportedFormat is returned for file suffixes with no codec.
	ErrUnsupportedFormat = errors.New("unsupported image type")

	// ErrNothingToUndo is returned by Undo on an image with no history.
	ErrNothingToUndo = errors.New("nothing to undo")
)
