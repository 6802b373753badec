package tilecache

import (
	"context"
	"time"

	"github.com/jaennil/guide_helper/backend/tileview/internal/pyramid"
)

type State int

const (
	StatePending State = iota
	StateReady
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// entry is the state of one key. Pending entries own cancel; Ready entries
// own payload; Unavailable entries own retryAfter.
type entry[P any] struct {
	state      State
	url        string
	addr       pyramid.Address
	lastNeeded uint64

	cancel     context.CancelFunc
	payload    P
	retryAfter time.Time
}

func (e *entry[P]) expired(now time.Time) bool {
	return e.state == StateUnavailable && !now.Before(e.retryAfter)
}
