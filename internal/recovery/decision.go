package recovery

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/phrazzld/imgbatch/internal/imageops"
)

// Decision is the user's answer to a failed item.
type Decision int

const (
	// Undecided is returned by a Presenter that will answer later through
	// Request.Respond instead of synchronously.
	Undecided Decision = iota
	Retry
	Skip
	Overwrite
	Cancel
)

func (d Decision) String() string {
	switch d {
	case Retry:
		return "retry"
	case Skip:
		return "skip"
	case Overwrite:
		return "overwrite"
	case Cancel:
		return "cancel"
	default:
		return "undecided"
	}
}

// ParseDecision maps a decision name (case-insensitive) back to a Decision.
func ParseDecision(name string) (Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "retry":
		return Retry, true
	case "skip":
		return Skip, true
	case "overwrite":
		return Overwrite, true
	case "cancel":
		return Cancel, true
	default:
		return Undecided, false
	}
}

// OptionsFor lists the decisions that make sense for err. Overwrite is only
// offered when the destination already exists, and Retry is withheld for
// permission failures since retrying cannot change the outcome.
func OptionsFor(err error) []Decision {
	opts := make([]Decision, 0, 4)
	if !errors.Is(err, fs.ErrPermission) {
		opts = append(opts, Retry)
	}
	opts = append(opts, Skip)
	if errors.Is(err, imageops.ErrDestinationExists) {
		opts = append(opts, Overwrite)
	}
	return append(opts, Cancel)
}
