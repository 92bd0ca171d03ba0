package profilefake

import (
	"context"
	"sync"

	"github.com/jrsteele09/lingo-session/profile"
)

// Fetcher returns scripted profiles. Per-token entries win over the default.
type Fetcher struct {
	mu       sync.Mutex
	profile  *profile.Profile
	byToken  map[string]*profile.Profile
	err      error
	gate     chan struct{}
	requests []string
}

var _ profile.Fetcher = (*Fetcher)(nil)

func New() *Fetcher {
	return &Fetcher{byToken: make(map[string]*profile.Profile)}
}

// SetDefault sets the profile returned for any token without its own entry.
func (f *Fetcher) SetDefault(p profile.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile = &p
}

// SetForToken sets the profile returned for one access token.
func (f *Fetcher) SetForToken(accessToken string, p profile.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byToken[accessToken] = &p
}

// SetError makes every fetch fail with err until cleared with nil.
func (f *Fetcher) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// SetGate makes every fetch wait until gate is closed or its context ends.
func (f *Fetcher) SetGate(gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = gate
}

// Requests returns the access tokens fetched so far.
func (f *Fetcher) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *Fetcher) FetchProfile(ctx context.Context, accessToken string) (*profile.Profile, error) {
	f.mu.Lock()
	f.requests = append(f.requests, accessToken)
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.byToken[accessToken]; ok {
		c := *p
		return &c, nil
	}
	if f.profile == nil {
		return &profile.Profile{}, nil
	}
	c := *f.profile
	return &c, nil
}
