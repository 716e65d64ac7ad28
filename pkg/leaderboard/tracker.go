package leaderboard

import (
	"context"
	"sync"
)

type viewerState struct {
	gen    uint64
	cancel context.CancelFunc
	active int
}

// Tracker makes sure only the most recent date request of each viewer
// produces a result. Beginning a request cancels the viewer's previous one.
type Tracker struct {
	mu      sync.Mutex
	viewers map[string]*viewerState
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{viewers: make(map[string]*viewerState)}
}

// Ticket is one in-flight date request.
type Ticket struct {
	tracker *Tracker
	viewer  string
	date    string
	gen     uint64
	cancel  context.CancelFunc
	once    sync.Once
	current bool
}

// Begin starts a request for date on behalf of viewer. The returned context
// is cancelled when the viewer begins another request or the ticket is
// finished.
func (t *Tracker) Begin(ctx context.Context, viewer, date string) (context.Context, *Ticket) {
	ctx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.viewers[viewer]
	if !ok {
		st = &viewerState{}
		t.viewers[viewer] = st
	}
	if st.cancel != nil {
		st.cancel()
	}
	st.gen++
	st.cancel = cancel
	st.active++

	return ctx, &Ticket{
		tracker: t,
		viewer:  viewer,
		date:    date,
		gen:     st.gen,
		cancel:  cancel,
	}
}

// Viewers returns the number of viewers with requests in flight.
func (t *Tracker) Viewers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.viewers)
}

// Date returns the date the ticket was issued for.
func (k *Ticket) Date() string {
	return k.date
}

// Current reports whether no newer request has begun for the viewer.
func (k *Ticket) Current() bool {
	k.tracker.mu.Lock()
	defer k.tracker.mu.Unlock()
	st, ok := k.tracker.viewers[k.viewer]
	return ok && st.gen == k.gen
}

// Finish releases the ticket and reports whether its result is still
// current. A stale result must be discarded. Calling Finish again returns the
// first answer.
func (k *Ticket) Finish() bool {
	k.once.Do(func() {
		t := k.tracker
		t.mu.Lock()
		st, ok := t.viewers[k.viewer]
		if ok {
			k.current = st.gen == k.gen
			if k.current {
				st.cancel = nil
			}
			st.active--
			if st.active <= 0 {
				delete(t.viewers, k.viewer)
			}
		}
		t.mu.Unlock()
		k.cancel()
	})
	return k.current
}
