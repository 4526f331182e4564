package recovery

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Request is a single question posed by a worker. It is created right before
// the worker blocks and dropped right after it wakes.
type Request struct {
	Err     error
	Item    string
	Options []Decision

	reply    chan Decision
	once     sync.Once
	answered atomic.Bool
	coerced  atomic.Bool
}

// NewRequest builds a request for item with the options OptionsFor(err).
func NewRequest(item string, err error) *Request {
	return &Request{
		Err:     err,
		Item:    item,
		Options: OptionsFor(err),
		reply:   make(chan Decision, 1),
	}
}

// Offers reports whether d is one of the request's options.
func (r *Request) Offers(d Decision) bool {
	return slices.Contains(r.Options, d)
}

// Message is a one-line description of the failure.
func (r *Request) Message() string {
	if r.Err == nil {
		return r.Item
	}
	return r.Item + ": " + r.Err.Error()
}

// Respond posts the answer. It never blocks and only the first call has any
// effect; it returns false for later calls. A decision that was not offered
// is replaced by Skip.
func (r *Request) Respond(d Decision) bool {
	delivered := false
	r.once.Do(func() {
		if !r.Offers(d) {
			r.coerced.Store(true)
			d = Skip
		}
		r.answered.Store(true)
		select {
		case r.reply <- d:
		default:
			// capacity 1 and guarded by once, so this cannot happen
		}
		delivered = true
	})
	return delivered
}

// Pending reports whether the request is still waiting for an answer.
func (r *Request) Pending() bool {
	return !r.answered.Load()
}

// Coerced reports whether the answer was replaced because it was not offered.
func (r *Request) Coerced() bool {
	return r.coerced.Load()
}

// wait blocks the worker until Respond has been called.
func (r *Request) wait() Decision {
	return <-r.reply
}
