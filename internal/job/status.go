package job

// Status represents the current state of a job
type Status string

// Possible job status values
const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
	StatusCanceled Status = "canceled"
)

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusCanceled
}

// Priority decides where a submitted job enters the pending queue.
type Priority int

const (
	// PriorityNormal appends the job to the tail of the queue.
	PriorityNormal Priority = iota
	// PriorityHigh pushes the job to the head of the queue.
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	default:
		return "normal"
	}
}
