package gate

import "sync"

// Slot holds at most one live gate.
type Slot struct {
	mu   sync.Mutex
	gate *Gate
}

// Open creates and stores a new gate. If a live gate already exists it
// returns nil, nil and leaves that gate untouched.
func (s *Slot) Open(delaySeconds int, opts Options) (*Gate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gate != nil && s.gate.Live() {
		return nil, nil
	}
	g, err := New(delaySeconds, opts)
	if err != nil {
		return nil, err
	}
	s.gate = g
	return g, nil
}

// Current returns the live gate, or nil.
func (s *Slot) Current() *Gate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gate == nil || !s.gate.Live() {
		return nil
	}
	return s.gate
}
