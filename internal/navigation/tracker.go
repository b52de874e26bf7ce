package navigation

import "sync"

// Ticket identifies one in-flight load for a session.
type Ticket struct {
	Session string
	Key     string
	seq     uint64
}

// Tracker discards results of loads that were superseded by a newer request from the
// same session before they completed.
type Tracker struct {
	mutex  sync.Mutex
	next   uint64
	latest map[string]uint64
}

func NewTracker() *Tracker {
	return &Tracker{latest: make(map[string]uint64)}
}

// Begin registers a load of key for session and supersedes any earlier one.
func (t *Tracker) Begin(session, key string) Ticket {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.next++
	t.latest[session] = t.next
	return Ticket{Session: session, Key: key, seq: t.next}
}

// Current reports whether tk is still the newest load of its session.
func (t *Tracker) Current(tk Ticket) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.latest[tk.Session] == tk.seq
}

// Done releases tk. It reports whether tk was still current, in which case its
// result may be committed.
func (t *Tracker) Done(tk Ticket) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.latest[tk.Session] != tk.seq {
		return false
	}
	delete(t.latest, tk.Session)
	return true
}
