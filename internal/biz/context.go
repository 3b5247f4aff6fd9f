package biz

import "fmt"

// Context is a mutable bag shared by the steps of one chain run so that later
// steps can read values derived by earlier ones.
//
// It is passed explicitly to every step and is not safe for concurrent use.
// Whoever creates it releases it; Chain does so on every exit path.
type Context struct {
	values   map[string]any
	released bool
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Set stores v under key. It panics on a released Context.
func (c *Context) Set(key string, v any) {
	if c.released {
		panic(fmt.Sprintf("biz: Set(%q) on released context", key))
	}
	c.values[key] = v
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Delete removes key.
func (c *Context) Delete(key string) {
	delete(c.values, key)
}

// Len returns the number of stored values.
func (c *Context) Len() int { return len(c.values) }

// Release drops every value. A released Context reads as empty.
func (c *Context) Release() {
	clear(c.values)
	c.released = true
}

// Released reports whether Release has been called.
func (c *Context) Released() bool { return c.released }

// Value returns the value under key if it has type V.
func Value[V any](c *Context, key string) (V, bool) {
	var zero V
	raw, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return v, true
}
