// Package imageops holds the minimal image collaborators used by batch jobs:
// lazily loaded images, atomic saving, lossless orientation transforms and
// destination naming.
//
// Only PNG and JPEG are supported.
package imageops
