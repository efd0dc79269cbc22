package foundation

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotBound is returned by Make for names without a binding or instance
var ErrNotBound = errors.New("target is not bound in the container")

// Factory builds a service, resolving its dependencies from c
type Factory func(c *Container) (interface{}, error)

type binding struct {
	factory Factory
	shared  bool
	mu      sync.Mutex
}

// Container is a name-keyed service registry. Shared bindings are built on
// first use and the result is reused afterwards.
type Container struct {
	mu        sync.RWMutex
	bindings  map[string]*binding
	instances map[string]interface{}

	// missing is consulted once when Make finds no binding
	missing func(name string) error
	// deferred reports names that missing can provide
	deferred func(name string) bool
}

func NewContainer() *Container {
	return &Container{
		bindings:  make(map[string]*binding),
		instances: make(map[string]interface{}),
	}
}

// Bind registers a factory that runs on every Make
func (c *Container) Bind(name string, factory Factory) {
	c.bind(name, factory, false)
}

// Singleton registers a factory that runs at most once
func (c *Container) Singleton(name string, factory Factory) {
	c.bind(name, factory, true)
}

func (c *Container) bind(name string, factory Factory, shared bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.instances, name)
	c.bindings[name] = &binding{factory: factory, shared: shared}
}

// Instance registers an already built service
func (c *Container) Instance(name string, instance interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances[name] = instance
}

// Make returns the service registered under name
func (c *Container) Make(name string) (interface{}, error) {
	c.mu.RLock()
	instance, ok := c.instances[name]
	b, bound := c.bindings[name]
	missing := c.missing
	c.mu.RUnlock()
	if ok {
		return instance, nil
	}

	if !bound && missing != nil {
		if err := missing(name); err != nil {
			return nil, err
		}
		c.mu.RLock()
		instance, ok = c.instances[name]
		b, bound = c.bindings[name]
		c.mu.RUnlock()
		if ok {
			return instance, nil
		}
	}
	if !bound {
		return nil, fmt.Errorf("%w: [%s]", ErrNotBound, name)
	}

	if !b.shared {
		return b.factory(c)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	c.mu.RLock()
	instance, ok = c.instances[name]
	c.mu.RUnlock()
	if ok {
		return instance, nil
	}
	instance, err := b.factory(c)
	if err != nil {
		return nil, fmt.Errorf("failed to build [%s]: %w", name, err)
	}
	c.mu.Lock()
	c.instances[name] = instance
	c.mu.Unlock()
	return instance, nil
}

// Bound reports whether name has a binding or an instance
func (c *Container) Bound(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.bindings[name]
	if !ok {
		_, ok = c.instances[name]
	}
	return ok
}

// Has reports whether name can be made, including services of deferred
// providers that are not registered yet
func (c *Container) Has(name string) bool {
	if c.Bound(name) {
		return true
	}
	c.mu.RLock()
	deferred := c.deferred
	c.mu.RUnlock()
	return deferred != nil && deferred(name)
}

// Resolved reports whether a shared service has been built or an instance set
func (c *Container) Resolved(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.instances[name]
	return ok
}

// Forget drops the binding and instance for name
func (c *Container) Forget(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bindings, name)
	delete(c.instances, name)
}

// Names lists every bound name, sorted
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]bool)
	var names []string
	for name := range c.bindings {
		seen[name] = true
		names = append(names, name)
	}
	for name := range c.instances {
		if !seen[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Resolve makes name and asserts its type
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T
	v, err := c.Make(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("[%s] is %T, not %T", name, v, zero)
	}
	return t, nil
}
