package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type memDoc struct {
	fields map[string]json.RawMessage
	seq    int64
}

// MemoryStore keeps documents in process. It backs local development and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]*memDoc
	seq         int64

	subMu   sync.Mutex
	subs    map[string]map[int]Listener
	nextSub int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]*memDoc),
		subs:        make(map[string]map[int]Listener),
	}
}

// NewID returns a random document id.
func (s *MemoryStore) NewID() string {
	return uuid.NewString()
}

// Get returns the document or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.snapshot(collection, id, doc)
}

// Find returns matching documents in insertion order.
func (s *MemoryStore) Find(ctx context.Context, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wanted := make([]interface{}, len(q.Filters))
	for i, f := range q.Filters {
		raw, err := encodeValue(f.Value)
		if err != nil {
			return nil, err
		}
		var v interface{}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		wanted[i] = v
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type hit struct {
		id  string
		doc *memDoc
	}
	var hits []hit
	for id, doc := range s.collections[q.Collection] {
		ok, err := matches(doc, q.Filters, wanted)
		if err != nil {
			return nil, err
		}
		if ok {
			hits = append(hits, hit{id: id, doc: doc})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].doc.seq < hits[j].doc.seq })
	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}

	out := make([]Document, 0, len(hits))
	for _, h := range hits {
		doc, err := s.snapshot(q.Collection, h.id, h.doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, nil
}

// Set writes a document, merging top-level fields when requested.
func (s *MemoryStore) Set(ctx context.Context, collection, id string, data interface{}, opts ...SetOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := encodeObject(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	err = s.applyLocked(batchOp{collection: collection, id: id, payload: payload, merge: applySetOptions(opts).merge})
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(collection, id)
	return nil
}

// Delete removes a document. Missing documents are not an error.
func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	_ = s.applyLocked(batchOp{collection: collection, id: id, delete: true})
	s.mu.Unlock()
	s.notify(collection, id)
	return nil
}

// RunBatch applies every queued write or none of them.
func (s *MemoryStore) RunBatch(ctx context.Context, fn func(Batch) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := &opBatch{}
	if err := fn(b); err != nil {
		return err
	}
	if b.err != nil {
		return b.err
	}

	s.mu.Lock()
	backup := s.cloneLocked()
	for _, op := range b.ops {
		if err := s.applyLocked(op); err != nil {
			s.collections = backup
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	for _, op := range b.ops {
		s.notify(op.collection, op.id)
	}
	return nil
}

// Subscribe delivers the current snapshot immediately and again after each write.
func (s *MemoryStore) Subscribe(ctx context.Context, collection, id string, fn Listener) (Unsubscribe, error) {
	key := subscriptionKey(collection, id)
	s.subMu.Lock()
	s.nextSub++
	token := s.nextSub
	if s.subs[key] == nil {
		s.subs[key] = make(map[int]Listener)
	}
	s.subs[key][token] = fn
	s.subMu.Unlock()

	doc, err := s.Get(ctx, collection, id)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	fn(doc)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs[key], token)
			s.subMu.Unlock()
		})
	}, nil
}

func (s *MemoryStore) notify(collection, id string) {
	s.subMu.Lock()
	listeners := make([]Listener, 0, len(s.subs[subscriptionKey(collection, id)]))
	for _, l := range s.subs[subscriptionKey(collection, id)] {
		listeners = append(listeners, l)
	}
	s.subMu.Unlock()
	if len(listeners) == 0 {
		return
	}

	doc, err := s.Get(context.Background(), collection, id)
	if err != nil {
		doc = nil
	}
	for _, l := range listeners {
		l(doc)
	}
}

func (s *MemoryStore) applyLocked(op batchOp) error {
	coll := s.collections[op.collection]
	if op.delete {
		if coll != nil {
			delete(coll, op.id)
		}
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(op.payload, &fields); err != nil {
		return fmt.Errorf("decode document %s/%s: %w", op.collection, op.id, err)
	}
	if coll == nil {
		coll = make(map[string]*memDoc)
		s.collections[op.collection] = coll
	}
	existing, ok := coll[op.id]
	if ok && op.merge {
		for k, v := range fields {
			existing.fields[k] = v
		}
		return nil
	}
	seq := int64(0)
	if ok {
		seq = existing.seq
	} else {
		s.seq++
		seq = s.seq
	}
	coll[op.id] = &memDoc{fields: fields, seq: seq}
	return nil
}

func (s *MemoryStore) cloneLocked() map[string]map[string]*memDoc {
	out := make(map[string]map[string]*memDoc, len(s.collections))
	for name, coll := range s.collections {
		copied := make(map[string]*memDoc, len(coll))
		for id, doc := range coll {
			fields := make(map[string]json.RawMessage, len(doc.fields))
			for k, v := range doc.fields {
				fields[k] = v
			}
			copied[id] = &memDoc{fields: fields, seq: doc.seq}
		}
		out[name] = copied
	}
	return out
}

func (s *MemoryStore) snapshot(collection, id string, doc *memDoc) (*Document, error) {
	raw, err := json.Marshal(doc.fields)
	if err != nil {
		return nil, fmt.Errorf("encode document %s/%s: %w", collection, id, err)
	}
	return &Document{Collection: collection, ID: id, Data: raw}, nil
}

func matches(doc *memDoc, filters []Filter, wanted []interface{}) (bool, error) {
	for i, f := range filters {
		raw, ok := doc.fields[f.Field]
		if !ok {
			return false, nil
		}
		var have interface{}
		if err := json.Unmarshal(raw, &have); err != nil {
			return false, err
		}
		switch f.Op {
		case OpEqual:
			if !reflect.DeepEqual(have, wanted[i]) {
				return false, nil
			}
		case OpArrayContains:
			items, isArray := have.([]interface{})
			if !isArray {
				return false, nil
			}
			found := false
			for _, item := range items {
				if reflect.DeepEqual(item, wanted[i]) {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported filter operator %q", f.Op)
		}
	}
	return true, nil
}
