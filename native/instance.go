package native

import (
	"sync"
)

// Instance is a generic native object with named fields. It is convenient
// for libraries assembled at runtime, such as the CLI's inspector.
type Instance struct {
	fields map[string]any
	class  string
	mu     sync.RWMutex
}

// NewInstance creates an instance of class.
func NewInstance(class string) *Instance {
	return &Instance{class: class, fields: make(map[string]any)}
}

// NativeClass implements Object.
func (i *Instance) NativeClass() string {
	return i.class
}

// Get returns a field value.
func (i *Instance) Get(name string) any {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.fields[name]
}

// Set stores a field value.
func (i *Instance) Set(name string, v any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.fields[name] = v
}
