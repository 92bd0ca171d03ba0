package oauthflow

import (
	"errors"
	"fmt"
	"sync"
	"time"

	autherrors "github.com/jrsteele09/lingo-session/internal/errors"
)

// InMemoryRepo is a thread-safe in-memory Repo with expiry.
type InMemoryRepo struct {
	mu      sync.Mutex
	flows   map[string]Flow
	ttl     time.Duration
	nowTime func() time.Time
}

var _ Repo = (*InMemoryRepo)(nil)

type InMemoryOption func(*InMemoryRepo)

func WithTTL(ttl time.Duration) InMemoryOption {
	return func(r *InMemoryRepo) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithNowTime(now func() time.Time) InMemoryOption {
	return func(r *InMemoryRepo) {
		r.nowTime = now
	}
}

// NewInMemoryRepo creates an empty flow repository.
func NewInMemoryRepo(options ...InMemoryOption) *InMemoryRepo {
	r := &InMemoryRepo{
		flows:   make(map[string]Flow),
		ttl:     DefaultTTL,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Put stores a flow, pruning expired ones.
func (r *InMemoryRepo) Put(state string, flow Flow) error {
	if state == "" {
		return errors.New("[oauthflow.Put] state cannot be empty")
	}
	if flow.CodeVerifier == "" {
		return errors.New("[oauthflow.Put] code verifier is required")
	}
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = r.nowTime()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	r.flows[state] = flow
	return nil
}

// Take retrieves and deletes a flow so each state can be used once.
func (r *InMemoryRepo) Take(state string) (Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	flow, ok := r.flows[state]
	if !ok {
		return Flow{}, fmt.Errorf("[oauthflow.Take] state %q: %w", state, autherrors.ErrNotFound)
	}
	delete(r.flows, state)
	if r.expired(flow) {
		return Flow{}, fmt.Errorf("[oauthflow.Take] state %q expired: %w", state, autherrors.ErrNotFound)
	}
	return flow, nil
}

// Len returns the number of pending flows, including expired ones not yet pruned.
func (r *InMemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}

func (r *InMemoryRepo) expired(flow Flow) bool {
	return r.nowTime().Sub(flow.CreatedAt) > r.ttl
}

func (r *InMemoryRepo) pruneLocked() {
	for state, flow := range r.flows {
		if r.expired(flow) {
			delete(r.flows, state)
		}
	}
}
