// Package discovery distributes short-range-radio credentials to companion
// integrations. When a lock detail refresh yields an offline key, the
// credential is published to every registered listener so local transports
// can reach the lock without the cloud.
package discovery

import "sync"

// Credential is everything a local transport needs to find and operate a
// lock directly.
type Credential struct {
	// Name is the lock's display name, used for advertisement matching.
	Name string `json:"name"`

	// Address is the radio MAC address the lock advertises.
	Address string `json:"address"`

	// Serial is the lock's serial number.
	Serial string `json:"serial"`

	// Key is the offline operation key.
	Key string `json:"key"`

	// Slot is the key slot the offline key occupies.
	Slot int `json:"slot"`
}

// Listener receives credentials as they are discovered.
type Listener func(cred Credential)

// Publisher fans discovered credentials out to registered listeners.
//
// Re-publishing the same credential is harmless; listeners are expected to
// treat deliveries as idempotent. The zero value is ready to use.
type Publisher struct {
	mu        sync.RWMutex
	listeners []Listener

	// seen caches the last credential per address so listeners registered
	// late still receive credentials discovered before them.
	seen map[string]Credential
}

// NewPublisher creates an empty publisher.
func NewPublisher() *Publisher {
	return &Publisher{
		seen: make(map[string]Credential),
	}
}

// AddListener registers a listener and immediately replays every credential
// already discovered.
func (p *Publisher) AddListener(fn Listener) {
	if fn == nil {
		return
	}

	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	replay := make([]Credential, 0, len(p.seen))
	for _, cred := range p.seen {
		replay = append(replay, cred)
	}
	p.mu.Unlock()

	for _, cred := range replay {
		fn(cred)
	}
}

// Publish records the credential and delivers it to every listener.
// Credentials without an address are ignored; there is nothing to discover.
func (p *Publisher) Publish(cred Credential) {
	if cred.Address == "" || cred.Key == "" {
		return
	}

	p.mu.Lock()
	if p.seen == nil {
		p.seen = make(map[string]Credential)
	}
	p.seen[cred.Address] = cred
	listeners := make([]Listener, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(cred)
	}
}

// Count returns the number of distinct credentials discovered so far.
func (p *Publisher) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.seen)
}
