package imageops

import (
	"errors"
	"path/filepath"
	"strings"
)

// Namer maps a source path to a save target.
type Namer interface {
	Target(source string) (string, error)
}

// NamerFunc adapts a function to the Namer interface.
type NamerFunc func(source string) (string, error)

// Target calls f(source).
func (f NamerFunc) Target(source string) (string, error) {
	return f(source)
}

// InPlace saves every image over its source.
var InPlace Namer = NamerFunc(func(source string) (string, error) {
	return source, nil
})

// DirNamer places every image in Dir under its original base name,
// optionally converting it to Format.
type DirNamer struct {
	Dir    string
	Format Format
}

// Target implements Namer.
func (n DirNamer) Target(source string) (string, error) {
	if n.Dir == "" {
		return "", errors.New("destination directory is empty")
	}
	base := filepath.Base(source)
	if n.Format != "" {
		base = strings.TrimSuffix(base, filepath.Ext(base)) + n.Format.Ext()
	}
	return filepath.Join(n.Dir, base), nil
}
