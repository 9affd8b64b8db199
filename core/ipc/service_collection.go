package ipc

import "sync"

// ServiceCollection is an insertion-ordered registry from a string service
// identifier to an instance (or factory marker) of any type. It carries no
// behavior beyond bookkeeping; application code is expected to substitute
// any strongly-typed registry it prefers for actual dependency injection.
type ServiceCollection struct {
	mu     sync.Mutex
	order  []string
	values map[string]any
}

// NewServiceCollection builds an empty collection.
func NewServiceCollection() *ServiceCollection {
	return &ServiceCollection{values: make(map[string]any)}
}

// Set binds id to value and returns the previous binding, if any. A new id
// is appended to the insertion order; rebinding an existing id preserves
// its original position.
func (c *ServiceCollection) Set(id string, value any) (previous any, hadPrevious bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous, hadPrevious = c.values[id]
	if !hadPrevious {
		c.order = append(c.order, id)
	}
	c.values[id] = value
	return previous, hadPrevious
}

// Get returns the binding for id, if any.
func (c *ServiceCollection) Get(id string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[id]
	return v, ok
}

// Keys returns every bound id in insertion order.
func (c *ServiceCollection) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, len(c.order))
	copy(keys, c.order)
	return keys
}
