// Package remoting moves values between the controller process and the
// launched server process through artifact files.
//
// The two processes never share a single runtime identity for "the same"
// type: the controller binary and the server binary are built separately
// (or are the same binary re-executed). A transported value therefore
// travels as an envelope pairing a registered kind name with the gob
// encoding of the concrete value. The reader resolves the kind through a
// caller-supplied Resolver first and falls back to the process-wide
// Default registry, so a value written in one registration scope can be
// reconstructed in another as long as the kind is present in both.
package remoting

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"reflect"
	"sync"
)

// Envelope is the on-disk form of a transported value.
type Envelope struct {
	Kind string
	Data []byte
}

// Resolver maps a kind name to a fresh instance to decode into. The
// instance must be a pointer.
type Resolver interface {
	Resolve(kind string) (any, bool)
}

// Registry is a table of transportable kinds. Writers use it to find the
// kind name for a concrete type; readers use it to obtain a fresh
// instance for a kind name. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]func() any
	kinds     map[reflect.Type]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]func() any),
		kinds:     make(map[reflect.Type]string),
	}
}

// Register adds a kind under name. The factory must return a pointer to a
// fresh zero value; registering the same name again replaces the earlier
// entry.
func (r *Registry) Register(name string, factory func() any) {
	t := reflect.TypeOf(factory())
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	r.kinds[t] = name
}

// Resolve returns a fresh instance for kind, if registered.
func (r *Registry) Resolve(kind string) (any, bool) {
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return factory(), true
}

// kindOf looks up the registered name for v's concrete type, indirecting
// through pointers.
func (r *Registry) kindOf(v any) (string, bool) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.kinds[t]
	return name, ok
}

// Default is the process-wide registry. Kinds that must be readable with
// no extra resolver (such as the failure proxy) register here.
var Default = NewRegistry()

// Register adds a kind to the Default registry.
func Register(name string, factory func() any) {
	Default.Register(name, factory)
}

// SerializationError reports a value that could not cross the process
// boundary, on either side of the channel.
type SerializationError struct {
	Op   string // "write" or "read"
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("%s artifact %s: %v", e.Op, e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Write serializes value to path. The value's concrete type must be
// registered in reg (nil means the Default registry) and must be fully
// gob-encodable; values holding open resources or other live state are
// not transportable and fail here rather than on the far side.
func Write(path string, value any, reg *Registry) error {
	if reg == nil {
		reg = Default
	}
	kind, ok := reg.kindOf(value)
	if !ok {
		return &SerializationError{Op: "write", Path: path, Err: fmt.Errorf("type %T is not a registered kind", value)}
	}
	var data bytes.Buffer
	if err := gob.NewEncoder(&data).Encode(value); err != nil {
		return &SerializationError{Op: "write", Path: path, Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return &SerializationError{Op: "write", Path: path, Err: err}
	}
	if err := gob.NewEncoder(f).Encode(Envelope{Kind: kind, Data: data.Bytes()}); err != nil {
		_ = f.Close()
		return &SerializationError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &SerializationError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Read deserializes the value at path. The envelope's kind is resolved
// through resolver first when one is supplied, then through the Default
// registry. The returned value is the pointer produced by the resolving
// registry's factory.
func Read(path string, resolver Resolver) (any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &SerializationError{Op: "read", Path: path, Err: err}
	}
	defer f.Close()

	var env Envelope
	if err := gob.NewDecoder(f).Decode(&env); err != nil {
		return nil, &SerializationError{Op: "read", Path: path, Err: err}
	}

	var out any
	if resolver != nil {
		if v, ok := resolver.Resolve(env.Kind); ok {
			out = v
		}
	}
	if out == nil {
		v, ok := Default.Resolve(env.Kind)
		if !ok {
			return nil, &SerializationError{Op: "read", Path: path, Err: fmt.Errorf("kind %q is not registered", env.Kind)}
		}
		out = v
	}
	if reflect.TypeOf(out).Kind() != reflect.Pointer {
		return nil, &SerializationError{Op: "read", Path: path, Err: fmt.Errorf("factory for kind %q returned non-pointer %T", env.Kind, out)}
	}
	if err := gob.NewDecoder(bytes.NewReader(env.Data)).Decode(out); err != nil {
		return nil, &SerializationError{Op: "read", Path: path, Err: err}
	}
	return out, nil
}
