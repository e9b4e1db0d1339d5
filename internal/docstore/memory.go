package docstore

import (
	"context"
	"iter"
	"slices"
	"sync"
)

type memCollection struct {
	ids  []string
	docs map[string]map[string]any
}

type memoryBackend struct {
	mu     sync.RWMutex
	colls  map[string]*memCollection
	closed bool
}

// NewMemory returns a Store kept in process memory. Writes are serialized;
// fields are copied on the way in and out.
func NewMemory() *Store {
	return &Store{b: &memoryBackend{colls: make(map[string]*memCollection)}}
}

func (m *memoryBackend) collectionLocked(name string) *memCollection {
	c, ok := m.colls[name]
	if !ok {
		c = &memCollection{docs: make(map[string]map[string]any)}
		m.colls[name] = c
	}
	return c
}

func (m *memoryBackend) set(_ context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrNotInitialized
	}
	c := m.collectionLocked(collection)
	if _, ok := c.docs[id]; !ok {
		c.ids = append(c.ids, id)
	}
	c.docs[id] = cloneFields(fields)
	return nil
}

func (m *memoryBackend) update(_ context.Context, collection, id string, partial map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrNotInitialized
	}
	c := m.collectionLocked(collection)
	cur, ok := c.docs[id]
	if !ok {
		c.ids = append(c.ids, id)
		c.docs[id] = cloneFields(partial)
		return nil
	}
	for k, v := range partial {
		cur[k] = cloneValue(v)
	}
	return nil
}

func (m *memoryBackend) get(_ context.Context, collection, id string) (map[string]any, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrNotInitialized
	}
	c, ok := m.colls[collection]
	if !ok {
		return nil, false, nil
	}
	doc, ok := c.docs[id]
	if !ok {
		return nil, false, nil
	}
	return cloneFields(doc), true, nil
}

func (m *memoryBackend) delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrNotInitialized
	}
	c, ok := m.colls[collection]
	if !ok {
		return nil
	}
	if _, ok := c.docs[id]; !ok {
		return nil
	}
	delete(c.docs, id)
	if i := slices.Index(c.ids, id); i >= 0 {
		c.ids = slices.Delete(c.ids, i, i+1)
	}
	return nil
}

// stream copies the matching documents under the read lock, then yields them.
func (m *memoryBackend) stream(_ context.Context, collection string, q query) iter.Seq2[Snapshot, error] {
	return func(yield func(Snapshot, error) bool) {
		m.mu.RLock()
		if m.closed {
			m.mu.RUnlock()
			yield(Snapshot{}, ErrNotInitialized)
			return
		}
		var out []Snapshot
		if c, ok := m.colls[collection]; ok {
			for _, id := range c.ids {
				doc := c.docs[id]
				if !q.matches(doc) {
					continue
				}
				out = append(out, Snapshot{ID: id, Exists: true, Fields: cloneFields(doc)})
				if q.hasLimit && len(out) >= q.limit {
					break
				}
			}
		}
		m.mu.RUnlock()

		for _, snap := range out {
			if !yield(snap, nil) {
				return
			}
		}
	}
}

func (m *memoryBackend) ping(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrNotInitialized
	}
	return nil
}

func (m *memoryBackend) close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.colls = nil
	return nil
}

func cloneFields(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneFields(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(t)
	}
	return v
}
