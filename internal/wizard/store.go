package wizard

import (
	"errors"
	"sync"
)

var ErrNotFound = errors.New("wizard not found")

// Store keeps at most one open wizard per owner (the authenticated subject).
// A wizard that closed itself (Cancel, successful Submit) counts as gone.
type Store interface {
	// Open returns the owner's wizard, creating one with opts when none is
	// open. opts apply after the store's own options.
	Open(owner string, opts ...Option) (w *Wizard, created bool)
	Get(owner string) (*Wizard, error)
	// Close forgets w if it is still the owner's current wizard.
	Close(owner string, w *Wizard)
	Len() int
}

type memoryStore struct {
	mu      sync.RWMutex
	wizards map[string]*Wizard
	opts    []Option
}

// NewInMemoryStore returns a Store whose wizards are built with opts.
func NewInMemoryStore(opts ...Option) Store {
	return &memoryStore{wizards: map[string]*Wizard{}, opts: opts}
}

func (m *memoryStore) Open(owner string, opts ...Option) (*Wizard, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.wizards[owner]; ok && !w.Closed() {
		return w, false
	}
	w := New(owner, append(append([]Option{}, m.opts...), opts...)...)
	m.wizards[owner] = w
	return w, true
}

func (m *memoryStore) Get(owner string) (*Wizard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.wizards[owner]
	if !ok || w.Closed() {
		return nil, ErrNotFound
	}
	return w, nil
}

func (m *memoryStore) Close(owner string, w *Wizard) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.wizards[owner] == w {
		delete(m.wizards, owner)
	}
}

func (m *memoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, w := range m.wizards {
		if !w.Closed() {
			n++
		}
	}
	return n
}
