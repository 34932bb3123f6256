package query

// History is a back/forward stack of visited states, stored as encoded query
// strings the way a browser address bar would keep them.
type History struct {
	entries []string
	index   int
}

// NewHistory starts a history at the given state.
func NewHistory(initial State) *History {
	return &History{entries: []string{initial.Encode()}}
}

// Current returns the state at the cursor.
func (h *History) Current() State {
	return ParseString(h.entries[h.index])
}

// Push records s as the newest entry, discarding any forward entries.
// Pushing the current state again is a no-op.
func (h *History) Push(s State) {
	encoded := s.Encode()
	if h.entries[h.index] == encoded {
		return
	}
	h.entries = append(h.entries[:h.index+1], encoded)
	h.index++
}

// Back moves one entry back. It reports false at the oldest entry.
func (h *History) Back() (State, bool) {
	if h.index == 0 {
		return h.Current(), false
	}
	h.index--
	return h.Current(), true
}

// Forward moves one entry forward. It reports false at the newest entry.
func (h *History) Forward() (State, bool) {
	if h.index == len(h.entries)-1 {
		return h.Current(), false
	}
	h.index++
	return h.Current(), true
}

// CanBack reports whether Back would move.
func (h *History) CanBack() bool { return h.index > 0 }

// CanForward reports whether Forward would move.
func (h *History) CanForward() bool { return h.index < len(h.entries)-1 }

// Len returns the number of recorded entries.
func (h *History) Len() int { return len(h.entries) }
