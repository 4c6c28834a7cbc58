package logmanager

import "go.uber.org/zap"

// resourceState tracks, for one resource URI, the highest contiguous
// position that has completed (success or terminal failure) — the
// position a resumed run can safely skip past, since anything at or
// below it is either done or already recorded in a bad-record file.
// Positions beyond the checkpoint that complete out of order are held
// in a bounded sparse window until the gap closes.
type resourceState struct {
	nextExpected int64
	checkpoint   int64
	held         map[int64]struct{}
}

func newResourceState() *resourceState {
	return &resourceState{nextExpected: 1, held: make(map[int64]struct{})}
}

// advance records that position has completed and returns the resulting
// checkpoint. Positions below nextExpected are duplicates and ignored.
func (s *resourceState) advance(position int64) int64 {
	if position < s.nextExpected {
		return s.checkpoint
	}
	if position == s.nextExpected {
		s.checkpoint = position
		s.nextExpected++
		for {
			if _, ok := s.held[s.nextExpected]; !ok {
				break
			}
			delete(s.held, s.nextExpected)
			s.checkpoint = s.nextExpected
			s.nextExpected++
		}
		return s.checkpoint
	}
	s.held[position] = struct{}{}
	return s.checkpoint
}

// dropOldestHeld removes the smallest held position, used when the held
// window exceeds maxHeldPositions. Returns the dropped position and
// whether one was dropped.
func (s *resourceState) dropOldestHeld() (int64, bool) {
	if len(s.held) == 0 {
		return 0, false
	}
	var min int64
	first := true
	for p := range s.held {
		if first || p < min {
			min, first = p, false
		}
	}
	delete(s.held, min)
	return min, true
}

// checkpoint updates the resource's position tracking for one completed
// position (success or terminal failure) and enforces maxHeldPositions,
// logging a warning when the bounded window overflows and the oldest
// hole must be dropped from tracking.
func (m *Manager) checkpoint(resource string, position int64, _ bool) {
	if resource == "" || position <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.resources[resource]
	if !ok {
		state = newResourceState()
		m.resources[resource] = state
	}
	state.advance(position)

	for len(state.held) > m.cfg.MaxHeldPositions {
		dropped, ok := state.dropOldestHeld()
		if !ok {
			break
		}
		if m.logger != nil {
			m.logger.Warn("dropping held position from checkpoint tracking, held window exceeded",
				zap.String("resource", resource), zap.Int64("position", dropped), zap.Int("max_held", m.cfg.MaxHeldPositions))
		}
	}
}

// Checkpoint returns the highest contiguous completed position tracked
// for resource, or 0 if the resource has not been observed.
func (m *Manager) Checkpoint(resource string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.resources[resource]
	if !ok {
		return 0
	}
	return state.checkpoint
}
