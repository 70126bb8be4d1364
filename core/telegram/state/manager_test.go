package state

import (
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type payload struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

const stTesting State = "testing"

func managers(t *testing.T) map[string]Manager[payload] {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return map[string]Manager[payload]{
		"memory": NewMemoryManager[payload](),
		"redis":  NewRedisManager[payload](rdb, "test", time.Hour),
	}
}

func TestManagerLifecycle(t *testing.T) {
	conv := Conversation{UserID: 7, ChatID: 9}
	other := Conversation{UserID: 7, ChatID: 10}

	for name, mgr := range managers(t) {
		t.Run(name, func(t *testing.T) {
			if mgr.InProgress(conv) {
				t.Fatal("fresh conversation should not be in progress")
			}
			if st := mgr.StateOf(conv); st != StateIdle {
				t.Fatalf("fresh state = %q, want idle", st)
			}

			if err := mgr.Update(conv, func(s *Session[payload]) {
				s.State = stTesting
				s.Data = &payload{City: "Oslo"}
			}); err != nil {
				t.Fatalf("update: %v", err)
			}

			if !mgr.InProgress(conv) {
				t.Fatal("conversation should be in progress")
			}
			if mgr.InProgress(other) {
				t.Fatal("same user in a different chat must hold a separate session")
			}

			sess, err := mgr.Snapshot(conv)
			if err != nil {
				t.Fatalf("snapshot: %v", err)
			}
			if sess.State != stTesting || sess.Data == nil || sess.Data.City != "Oslo" {
				t.Fatalf("unexpected session: %+v", sess)
			}

			if err := mgr.Clear(conv); err != nil {
				t.Fatalf("clear: %v", err)
			}
			if mgr.InProgress(conv) {
				t.Fatal("cleared conversation should be idle")
			}
		})
	}
}

func TestManagerUpdateIsAtomic(t *testing.T) {
	conv := Conversation{UserID: 1, ChatID: 1}
	const rounds = 100

	for name, mgr := range managers(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < rounds; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_ = mgr.Update(conv, func(s *Session[payload]) {
						if s.Data == nil {
							s.Data = &payload{}
						}
						s.Data.Count++
					})
				}()
			}
			wg.Wait()

			sess, err := mgr.Snapshot(conv)
			if err != nil {
				t.Fatalf("snapshot: %v", err)
			}
			if sess.Data == nil || sess.Data.Count != rounds {
				t.Fatalf("count = %+v, want %d", sess.Data, rounds)
			}
		})
	}
}
