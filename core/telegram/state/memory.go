package state

import "sync"

type memoryManager[T any] struct {
	mu       sync.RWMutex
	sessions map[Conversation]*Session[T]
}

// NewMemoryManager constructs an in-memory Manager implementation. Sessions
// do not survive a restart; use the redis manager when they should.
func NewMemoryManager[T any]() Manager[T] {
	return &memoryManager[T]{
		sessions: make(map[Conversation]*Session[T]),
	}
}

// Snapshot returns a copy of the session if it exists, otherwise an idle session.
func (m *memoryManager[T]) Snapshot(conv Conversation) (Session[T], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if sess, ok := m.sessions[conv]; ok {
		return *sess, nil
	}
	return Session[T]{State: StateIdle}, nil
}

// Update applies fn to the session under the store lock.
func (m *memoryManager[T]) Update(conv Conversation, fn func(*Session[T])) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[conv]
	if !ok {
		sess = &Session[T]{State: StateIdle}
		m.sessions[conv] = sess
	}
	fn(sess)
	return nil
}

// SetState changes the FSM state of the conversation.
func (m *memoryManager[T]) SetState(conv Conversation, st State) error {
	return m.Update(conv, func(s *Session[T]) { s.State = st })
}

// StateOf returns the current FSM state, or StateIdle if none exists.
func (m *memoryManager[T]) StateOf(conv Conversation) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[conv]; ok {
		return sess.State
	}
	return StateIdle
}

// Clear removes the entire session for a conversation.
func (m *memoryManager[T]) Clear(conv Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, conv)
	return nil
}

// InProgress reports whether the conversation has an active state.
func (m *memoryManager[T]) InProgress(conv Conversation) bool {
	return m.StateOf(conv) != StateIdle
}
