// Package registry holds the set of chats subscribed to seat alerts.
//
// The registry is shared by the command loop, the admin HTTP handlers and the
// dispatcher. All access goes through a single RWMutex so a Snapshot never
// sees a half-applied Upsert or Remove.
package registry

import (
	"sync"

	"seat_tracker/internal/model"
)

// Registry maps subscriber IDs to their preference.
type Registry struct {
	mu   sync.RWMutex
	subs map[string]model.Preference
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{subs: make(map[string]model.Preference)}
}

// Upsert creates or replaces the subscriber with the given preference.
// An empty preference is stored as PreferenceBoth.
func (r *Registry) Upsert(id string, pref model.Preference) {
	if pref == "" {
		pref = model.PreferenceBoth
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[id] = pref
}

// SetPreference updates an existing subscriber. It reports false and changes
// nothing when id is not registered.
func (r *Registry) SetPreference(id string, pref model.Preference) bool {
	if pref == "" {
		pref = model.PreferenceBoth
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[id]; !ok {
		return false
	}
	r.subs[id] = pref
	return true
}

// Remove deletes the subscriber and reports whether it was present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[id]; !ok {
		return false
	}
	delete(r.subs, id)
	return true
}

// Get returns the subscriber with the given id.
func (r *Registry) Get(id string) (model.Subscriber, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pref, ok := r.subs[id]
	if !ok {
		return model.Subscriber{}, false
	}
	return model.Subscriber{ID: id, Preference: pref}, true
}

// Snapshot returns a copy of all subscribers in no particular order.
func (r *Registry) Snapshot() []model.Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Subscriber, 0, len(r.subs))
	for id, pref := range r.subs {
		out = append(out, model.Subscriber{ID: id, Preference: pref})
	}
	return out
}

// Count returns the number of subscribers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
