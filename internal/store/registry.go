package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// loadTimeout bounds a shared scope load, which outlives any single caller.
const loadTimeout = 30 * time.Second

type session struct {
	store    *Store
	lastUsed time.Time
}

// Registry hands out one Store per scope. Concurrent first requests for the
// same scope share a single load.
type Registry struct {
	persister Persister
	opts      []Option
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
	group    singleflight.Group
}

func NewRegistry(p Persister, opts ...Option) *Registry {
	return &Registry{
		persister: p,
		opts:      opts,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
}

func (r *Registry) Get(ctx context.Context, scope string) (*Store, error) {
	if s := r.lookup(scope); s != nil {
		return s, nil
	}

	v, err, _ := r.group.Do(scope, func() (any, error) {
		if s := r.lookup(scope); s != nil {
			return s, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		s := New(r.persister, r.opts...)
		if err := s.SwitchScope(loadCtx, scope); err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.sessions[scope] = &session{store: s, lastUsed: r.now()}
		r.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("Registry.Get: %w", err)
	}
	return v.(*Store), nil
}

func (r *Registry) lookup(scope string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[scope]
	if !ok {
		return nil
	}
	sess.lastUsed = r.now()
	return sess.store
}

// Drop forgets a scope's session; the next Get reloads it from storage.
func (r *Registry) Drop(scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, scope)
}

// EvictIdle drops sessions unused for longer than maxIdle and returns how
// many were dropped.
func (r *Registry) EvictIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for scope, sess := range r.sessions {
		if sess.lastUsed.Before(cutoff) {
			delete(r.sessions, scope)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
