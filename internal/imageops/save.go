package imageops

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultJPEGQuality is used when SaveOptions.Quality is zero.
const DefaultJPEGQuality = 90

// SaveOptions control SaveAs.
type SaveOptions struct {
	// Overwrite allows replacing an existing file other than the source.
	Overwrite bool

	// Quality is the JPEG quality (1-100).
	Quality int
}

// SaveAs writes the image to target, choosing the codec from target's suffix.
//
// Saving an unmodified image over its own source is a no-op. Otherwise the
// image is encoded into a temporary file in the target directory and renamed
// into place, so a failed attempt never leaves a partial file at target.
func (im *Image) SaveAs(ctx context.Context, target string, opts SaveOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	im.mu.Lock()
	defer im.mu.Unlock()

	if im.data == nil {
		return fmt.Errorf("%w: %s", ErrNotLoaded, filepath.Base(im.path))
	}

	sameFile := samePath(target, im.path)
	if sameFile && !im.modified {
		return nil
	}

	format, err := FormatFromPath(target)
	if err != nil {
		return err
	}

	if !sameFile && !opts.Overwrite {
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("%w: %s", ErrDestinationExists, target)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check destination: %w", err)
		}
	}

	quality := opts.Quality
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}

	if err := writeAtomic(target, func(f *os.File) error {
		return encode(f, im.data, format, quality)
	}); err != nil {
		return err
	}

	if sameFile {
		im.modified = false
		im.history = nil
	}
	return nil
}

// writeAtomic writes through a temporary file next to target and renames it
// over target once fully written. An existing target keeps its permissions.
func writeAtomic(target string, write func(f *os.File) error) (err error) {
	mode := fs.FileMode(0o644)
	if fi, statErr := os.Stat(target); statErr == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".imgbatch-*"+filepath.Ext(target))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTempFile, err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err = write(tmp); err != nil {
		return fmt.Errorf("%w: encode: %w", ErrTempFile, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: %w", ErrTempFile, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrTempFile, err)
	}
	if err = os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("%w: %w", ErrTempFile, err)
	}
	if err = os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("failed to move image into place: %w", err)
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
