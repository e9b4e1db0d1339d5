// Package docstore provides a document database with a collection/document/query model.
//
// A Store is built over one of two backends: an in-process ordered map (NewMemory)
// or a PostgreSQL JSONB table (NewPostgres). Documents are identified by
// (collection, id) and carry a flat map of JSON-compatible fields. Reading a
// missing document is not an error; it yields a Snapshot with Exists=false.
package docstore

import (
	"context"
	"errors"
	"iter"
	"sync"
)

// ErrNotInitialized is returned when a Store is used before it was opened or after Close.
var ErrNotInitialized = errors.New("docstore: store not initialized")

// Snapshot is the state of a single document at read time.
type Snapshot struct {
	ID     string
	Exists bool
	Fields map[string]any
}

// backend is the storage variant behind a Store.
type backend interface {
	set(ctx context.Context, collection, id string, fields map[string]any) error
	update(ctx context.Context, collection, id string, partial map[string]any) error
	get(ctx context.Context, collection, id string) (map[string]any, bool, error)
	delete(ctx context.Context, collection, id string) error
	stream(ctx context.Context, collection string, q query) iter.Seq2[Snapshot, error]
	ping(ctx context.Context) error
	close() error
}

// Store is the entry point for collection handles.
type Store struct {
	mu sync.RWMutex
	b  backend
}

// Collection returns a handle scoped to name. Collections are created implicitly on first write.
func (s *Store) Collection(name string) *CollectionRef {
	return &CollectionRef{store: s, name: name}
}

func (s *Store) Ping(ctx context.Context) error {
	b, err := s.backend()
	if err != nil {
		return err
	}
	return b.ping(ctx)
}

// Close releases the backend. Further use returns ErrNotInitialized.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	b := s.b
	s.b = nil
	s.mu.Unlock()
	if b == nil {
		return nil
	}
	return b.close()
}

func (s *Store) backend() (backend, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.b == nil {
		return nil, ErrNotInitialized
	}
	return s.b, nil
}

// CollectionRef is a handle to a named collection.
type CollectionRef struct {
	store *Store
	name  string
}

func (c *CollectionRef) Name() string { return c.name }

// Doc returns a handle to the document id inside the collection.
func (c *CollectionRef) Doc(id string) *DocumentRef {
	return &DocumentRef{store: c.store, collection: c.name, id: id}
}

// Stream returns the documents of the collection in insertion order, filtered
// and truncated by opts. The sequence is lazy: every range over it scans the
// current state again. Iteration stops at the first error.
func (c *CollectionRef) Stream(ctx context.Context, opts ...QueryOption) iter.Seq2[Snapshot, error] {
	q := query{}
	for _, opt := range opts {
		opt(&q)
	}
	return func(yield func(Snapshot, error) bool) {
		b, err := c.store.backend()
		if err != nil {
			yield(Snapshot{}, err)
			return
		}
		if q.hasLimit && q.limit <= 0 {
			return
		}
		for snap, err := range b.stream(ctx, c.name, q) {
			if !yield(snap, err) || err != nil {
				return
			}
		}
	}
}

// All drains Stream into a slice.
func (c *CollectionRef) All(ctx context.Context, opts ...QueryOption) ([]Snapshot, error) {
	out := make([]Snapshot, 0)
	for snap, err := range c.Stream(ctx, opts...) {
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

// DocumentRef is a handle to a single document. The document need not exist.
type DocumentRef struct {
	store      *Store
	collection string
	id         string
}

func (d *DocumentRef) ID() string { return d.id }

// Set replaces the document's fields wholesale, creating it if absent.
func (d *DocumentRef) Set(ctx context.Context, fields map[string]any) error {
	b, err := d.store.backend()
	if err != nil {
		return err
	}
	return b.set(ctx, d.collection, d.id, nonNil(fields))
}

// Update shallow-merges partial into the document, creating it with exactly partial if absent.
func (d *DocumentRef) Update(ctx context.Context, partial map[string]any) error {
	b, err := d.store.backend()
	if err != nil {
		return err
	}
	return b.update(ctx, d.collection, d.id, nonNil(partial))
}

// Get reads the document. A missing document yields Exists=false and empty Fields.
func (d *DocumentRef) Get(ctx context.Context) (Snapshot, error) {
	b, err := d.store.backend()
	if err != nil {
		return Snapshot{}, err
	}
	fields, ok, err := b.get(ctx, d.collection, d.id)
	if err != nil {
		return Snapshot{}, err
	}
	if !ok {
		return Snapshot{ID: d.id, Exists: false, Fields: map[string]any{}}, nil
	}
	return Snapshot{ID: d.id, Exists: true, Fields: fields}, nil
}

// Delete removes the document. Deleting a missing document is a no-op.
func (d *DocumentRef) Delete(ctx context.Context) error {
	b, err := d.store.backend()
	if err != nil {
		return err
	}
	return b.delete(ctx, d.collection, d.id)
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
