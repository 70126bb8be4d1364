package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 3 * time.Second

type redisManager[T any] struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration

	mu    sync.Mutex
	locks map[Conversation]*sync.Mutex
}

// NewRedisManager constructs a Manager backed by redis so conversations
// survive restarts. Sessions are stored as JSON under prefix:userID:chatID.
// A zero ttl keeps sessions until explicitly cleared.
func NewRedisManager[T any](rdb *redis.Client, prefix string, ttl time.Duration) Manager[T] {
	if prefix == "" {
		prefix = "session"
	}
	return &redisManager[T]{
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
		locks:  make(map[Conversation]*sync.Mutex),
	}
}

func (m *redisManager[T]) key(conv Conversation) string {
	return fmt.Sprintf("%s:%d:%d", m.prefix, conv.UserID, conv.ChatID)
}

// lockFor returns the in-process mutex serializing updates for one key.
// The source dispatch never runs two events for the same conversation in
// parallel; the lock guards against misbehaving callers, not other processes.
func (m *redisManager[T]) lockFor(conv Conversation) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[conv]
	if !ok {
		l = &sync.Mutex{}
		m.locks[conv] = l
	}
	return l
}

func (m *redisManager[T]) load(ctx context.Context, conv Conversation) (Session[T], error) {
	raw, err := m.rdb.Get(ctx, m.key(conv)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session[T]{State: StateIdle}, nil
	}
	if err != nil {
		return Session[T]{State: StateIdle}, fmt.Errorf("session load: %w", err)
	}
	var sess Session[T]
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session[T]{State: StateIdle}, fmt.Errorf("session decode: %w", err)
	}
	if sess.State == "" {
		sess.State = StateIdle
	}
	return sess, nil
}

func (m *redisManager[T]) store(ctx context.Context, conv Conversation, sess Session[T]) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := m.rdb.Set(ctx, m.key(conv), raw, m.ttl).Err(); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	return nil
}

// Snapshot returns a decoded copy of the session. Mutations on the copy are
// not persisted; use Update for that.
func (m *redisManager[T]) Snapshot(conv Conversation) (Session[T], error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return m.load(ctx, conv)
}

// Update performs a load-mutate-store cycle under the per-key lock.
func (m *redisManager[T]) Update(conv Conversation, fn func(*Session[T])) error {
	l := m.lockFor(conv)
	l.Lock()
	defer l.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	sess, err := m.load(ctx, conv)
	if err != nil {
		return err
	}
	fn(&sess)
	return m.store(ctx, conv, sess)
}

// SetState changes only the FSM state of the conversation.
func (m *redisManager[T]) SetState(conv Conversation, st State) error {
	return m.Update(conv, func(s *Session[T]) { s.State = st })
}

// StateOf reports the current state; backend failures degrade to StateIdle.
func (m *redisManager[T]) StateOf(conv Conversation) State {
	sess, err := m.Snapshot(conv)
	if err != nil {
		return StateIdle
	}
	return sess.State
}

// Clear removes the session and its lock entry.
func (m *redisManager[T]) Clear(conv Conversation) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	m.mu.Lock()
	delete(m.locks, conv)
	m.mu.Unlock()

	if err := m.rdb.Del(ctx, m.key(conv)).Err(); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}

// InProgress reports whether the conversation holds a non-idle state.
func (m *redisManager[T]) InProgress(conv Conversation) bool {
	return m.StateOf(conv) != StateIdle
}
