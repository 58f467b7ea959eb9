// Package shutdown tracks running game units in registration order and
// stops them in reverse, so later-started units (the simulated players)
// are fully joined before anything they depend on goes away.
package shutdown

import "sync"

type entry struct {
	name string
	stop func()
	done <-chan struct{}
}

type Coordinator struct {
	mu      sync.Mutex
	entries []entry
}

func NewCoordinator() *Coordinator { return &Coordinator{} }

// Register records a unit in start order. stop must be idempotent and
// must interrupt any blocking wait the unit is in; done must close once
// the unit has fully unwound.
func (c *Coordinator) Register(name string, stop func(), done <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry{name: name, stop: stop, done: done})
}

// Shutdown stops and joins every registered unit in reverse registration
// order. It blocks until the last unit has unwound.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	entries := append([]entry(nil), c.entries...)
	c.mu.Unlock()
	for i := len(entries) - 1; i >= 0; i-- {
		entries[i].stop()
		<-entries[i].done
	}
}

// Names returns the registered unit names in start order.
func (c *Coordinator) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.name
	}
	return names
}
