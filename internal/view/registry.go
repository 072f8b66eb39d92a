package view

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// PublishFunc receives every snapshot produced by a session's presenter.
type PublishFunc func(sessionID string, snap Snapshot)

// Registry maps browser session ids to presenters.
type Registry struct {
	cooldown time.Duration
	ttl      time.Duration
	publish  PublishFunc
	now      func() time.Time
	clock    atomic.Uint64

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	presenter *Presenter
	lastSeen  time.Time
	streams   int
}

// NewRegistry creates an empty registry. Sessions idle for longer than ttl
// are removed by Sweep; a non-positive ttl keeps them forever. Snapshot
// versions come from one registry-wide counter, so a session recreated after
// a sweep continues above any version its open page has already seen.
func NewRegistry(cooldown, ttl time.Duration, publish PublishFunc) *Registry {
	return &Registry{
		cooldown: cooldown,
		ttl:      ttl,
		publish:  publish,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Get returns the presenter for id, creating it on first use.
func (r *Registry) Get(id string) *Presenter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.sessions[id]; ok {
		e.lastSeen = r.now()
		return e.presenter
	}

	var publish func(Snapshot)
	if r.publish != nil {
		publish = func(snap Snapshot) { r.publish(id, snap) }
	}
	p := newPresenter(r.cooldown, publish, &r.clock)
	p.state.Version = r.clock.Add(1)
	e := &entry{presenter: p, lastSeen: r.now()}
	r.sessions[id] = e
	return e.presenter
}

// Attach marks a live stream for id. Sessions with attached streams are
// never swept. It returns the session's presenter.
func (r *Registry) Attach(id string) *Presenter {
	p := r.Get(id)
	r.mu.Lock()
	if e, ok := r.sessions[id]; ok {
		e.streams++
	}
	r.mu.Unlock()
	return p
}

// Detach releases a stream registered with Attach and counts as activity.
func (r *Registry) Detach(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok {
		if e.streams > 0 {
			e.streams--
		}
		e.lastSeen = r.now()
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the ttl and returns how many went.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.sessions {
		if e.streams == 0 && e.lastSeen.Before(cutoff) {
			e.presenter.Close()
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if r.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := r.Sweep(); removed > 0 {
				logrus.WithFields(logrus.Fields{
					"removed":  removed,
					"sessions": r.Len(),
				}).Debug("swept idle sessions")
			}
		}
	}
}
