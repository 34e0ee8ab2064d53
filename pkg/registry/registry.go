package registry

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/ngena/pkg/domain"
)

// Request is the input of a validator.
type Request struct {
	UserID  string
	Body    string
	Session domain.Session
	Message domain.IncomingMessage
}

// Validator implements the business logic of one state.
// A returned error is a dispatch failure; invalid input is reported through Result.Valid.
type Validator func(ctx context.Context, req Request) (domain.Result, error)

// Registry manages the available validators.
type Registry struct {
	mu         sync.RWMutex
	validators map[string]Validator
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		validators: make(map[string]Validator),
	}
}

// Register adds a validator to the registry.
// If a validator with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn Validator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[name] = fn
}

// Lookup returns the validator registered under name.
func (r *Registry) Lookup(name string) (Validator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.validators[name]
	return fn, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the registered names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.validators))
	for n := range r.validators {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Execute looks up a validator by name and runs it.
// A panic inside the validator is converted into an error.
func (r *Registry) Execute(ctx context.Context, name string, req Request) (res domain.Result, err error) {
	fn, ok := r.Lookup(name)
	if !ok {
		return domain.Result{}, fmt.Errorf("%w: %s", domain.ErrUnknownValidator, name)
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("validator %s panicked: %v", name, p)
		}
	}()
	return fn(ctx, req)
}
