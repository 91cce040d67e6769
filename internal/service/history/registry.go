package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var ErrOwnerRequired = errors.New("owner id is required")

// Registry owns the history database and one Store per signed-in user.
// Stores are created on sign-in and dropped on sign-out.
type Registry struct {
	db  *bolt.DB
	now func() time.Time

	mu     sync.Mutex
	stores map[string]*Store
}

// OpenRegistry opens (or creates) the bbolt file at path.
func OpenRegistry(path string) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	return &Registry{db: db, now: time.Now, stores: make(map[string]*Store)}, nil
}

// Open returns the store of uid, loading it on first use.
func (r *Registry) Open(uid string) (*Store, error) {
	if uid == "" {
		return nil, ErrOwnerRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.stores[uid]; ok {
		return s, nil
	}
	s, err := openStore(r.db, uid, r.now)
	if err != nil {
		return nil, err
	}
	r.stores[uid] = s
	return s, nil
}

// Close drops the in-memory store of uid. Persisted sessions remain.
func (r *Registry) Close(uid string) {
	r.mu.Lock()
	delete(r.stores, uid)
	r.mu.Unlock()
}

// Shutdown closes the database.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	r.stores = make(map[string]*Store)
	r.mu.Unlock()
	return r.db.Close()
}
