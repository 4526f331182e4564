package batch

// ItemResult records what happened to one item.
type ItemResult int

const (
	ItemNotAttempted ItemResult = iota
	ItemSaved
	ItemSkipped
)

func (r ItemResult) String() string {
	switch r {
	case ItemSaved:
		return "saved"
	case ItemSkipped:
		return "skipped"
	default:
		return "not_attempted"
	}
}

// Outcome summarizes a whole batch.
type Outcome int

const (
	// Complete means every item was processed without a skip.
	Complete Outcome = iota
	// PartialSkip means the batch ran to the end but at least one item was skipped.
	PartialSkip
	// Canceled means the batch stopped before its last item.
	Canceled
)

func (o Outcome) String() string {
	switch o {
	case PartialSkip:
		return "partial_skip"
	case Canceled:
		return "canceled"
	default:
		return "complete"
	}
}

// Counts tallies item results.
type Counts struct {
	Saved        int
	Skipped      int
	NotAttempted int
}

// Total is the number of items counted.
func (c Counts) Total() int {
	return c.Saved + c.Skipped + c.NotAttempted
}
