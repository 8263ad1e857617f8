package db

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrPoisoned marks a store whose lock was released by a panic.
	ErrPoisoned = errors.New("store poisoned by an earlier panic")
	// ErrUnknownStore is returned for a store that was never registered.
	ErrUnknownStore = errors.New("unknown store")
	// ErrClosed is returned for a store closed while the caller waited.
	ErrClosed = errors.New("store closed")
)

// ConcurrencyError reports that a store could not be used safely. The
// operation is aborted; the application keeps running.
type ConcurrencyError struct {
	Store Store
	Err   error
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("%s store unavailable: %v", e.Store, e.Err)
}

func (e *ConcurrencyError) Unwrap() error { return e.Err }

// guarded is one store behind its own lock.
type guarded struct {
	mu       sync.Mutex
	db       *sqlx.DB
	poisoned bool
	closed   bool
}

// Registry owns one exclusive connection per store for the process lifetime.
// Stores are registered at startup, before any call to With.
type Registry struct {
	mu     sync.RWMutex // guards stores, not the connections
	stores map[Store]*guarded
	policy DecodePolicy
}

// NewRegistry creates an empty registry using policy for list decoding.
func NewRegistry(policy DecodePolicy) *Registry {
	return &Registry{
		stores: make(map[Store]*guarded),
		policy: policy,
	}
}

// Register hands ownership of db to the registry.
func (r *Registry) Register(store Store, db *sqlx.DB) {
	r.mu.Lock()
	r.stores[store] = &guarded{db: db}
	r.mu.Unlock()
}

func (r *Registry) lookup(store Store) (*guarded, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.stores[store]
	return g, ok
}

// Policy returns the row-decode policy for list operations.
func (r *Registry) Policy() DecodePolicy {
	return r.policy
}

// With runs fn with exclusive access to store. The lock is released on every
// exit path. A panic in fn poisons the store and is returned as a
// *ConcurrencyError, as is every later call until Heal.
func (r *Registry) With(store Store, fn func(db *sqlx.DB) error) (err error) {
	g, ok := r.lookup(store)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStore, store)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return fmt.Errorf("%w: %s", ErrClosed, store)
	}
	if g.poisoned {
		return &ConcurrencyError{Store: store, Err: ErrPoisoned}
	}

	defer func() {
		if p := recover(); p != nil {
			g.poisoned = true
			slog.Error("store operation panicked", "store", store, "panic", p)
			err = &ConcurrencyError{Store: store, Err: fmt.Errorf("%w: %v", ErrPoisoned, p)}
		}
	}()

	return fn(g.db)
}

// Heal clears the poisoned state of store.
func (r *Registry) Heal(store Store) {
	g, ok := r.lookup(store)
	if !ok {
		return
	}
	g.mu.Lock()
	g.poisoned = false
	g.mu.Unlock()
	slog.Warn("store healed", "store", store)
}

// Close closes every registered store.
// Close closes every registered store. Calls to With that are still
// running finish first; later ones fail.
func (r *Registry) Close() error {
	r.mu.RLock()
	stores := make([]Store, 0, len(r.stores))
	for store := range r.stores {
		stores = append(stores, store)
	}
	r.mu.RUnlock()

	var errs []error
	for _, store := range stores {
		if err := r.close(store); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", store, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) close(store Store) error {
	r.mu.Lock()
	g, ok := r.stores[store]
	delete(r.stores, store)
	r.mu.Unlock()
	if !ok {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return g.db.Close()
}
