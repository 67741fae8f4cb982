// Package docstore is a small schemaless document-store abstraction:
// collection-scoped equality queries, get-by-id, set with optional merge,
// delete, atomic batches and per-document change subscriptions.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when no document exists under the id.
var ErrNotFound = errors.New("docstore: document not found")

// Op is a filter operator.
type Op string

const (
	OpEqual         Op = "=="
	OpArrayContains Op = "array-contains"
)

// Filter constrains one top-level field.
type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

// Eq builds an equality filter. Values compare as JSON, so 3 and "3" differ.
func Eq(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

// ArrayContains matches documents whose array field holds value.
func ArrayContains(field string, value interface{}) Filter {
	return Filter{Field: field, Op: OpArrayContains, Value: value}
}

// Query describes a collection scan with AND-ed filters.
type Query struct {
	Collection string
	Filters    []Filter
	Limit      int
}

// Collection starts a query over name.
func Collection(name string) Query {
	return Query{Collection: name}
}

// Where returns a copy of q with additional filters.
func (q Query) Where(filters ...Filter) Query {
	next := Query{Collection: q.Collection, Limit: q.Limit}
	next.Filters = append(append([]Filter{}, q.Filters...), filters...)
	return next
}

// String renders the query for logs.
func (q Query) String() string {
	parts := make([]string, 0, len(q.Filters))
	for _, f := range q.Filters {
		parts = append(parts, fmt.Sprintf("%s %s %v", f.Field, f.Op, f.Value))
	}
	return fmt.Sprintf("%s[%s]", q.Collection, strings.Join(parts, " && "))
}

// Document is a stored JSON object.
type Document struct {
	Collection string
	ID         string
	Data       json.RawMessage
}

// Decode unmarshals the document body into v.
func (d Document) Decode(v interface{}) error {
	if len(d.Data) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(d.Data, v)
}

// SetOption tweaks Set behaviour.
type SetOption func(*setOptions)

type setOptions struct {
	merge bool
}

// Merge makes Set overlay top-level fields onto an existing document
// instead of replacing it. Nested objects are replaced wholesale.
func Merge() SetOption {
	return func(o *setOptions) { o.merge = true }
}

func applySetOptions(opts []SetOption) setOptions {
	var o setOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Batch accumulates writes that are applied together by RunBatch.
type Batch interface {
	Set(collection, id string, data interface{}, opts ...SetOption)
	Delete(collection, id string)
}

// Listener receives full snapshots. doc is nil when the document does not exist.
type Listener func(doc *Document)

// Unsubscribe stops a subscription. Safe to call more than once.
type Unsubscribe func()

// Store is the document-store contract the attendance core depends on.
type Store interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	Find(ctx context.Context, q Query) ([]Document, error)
	Set(ctx context.Context, collection, id string, data interface{}, opts ...SetOption) error
	Delete(ctx context.Context, collection, id string) error
	NewID() string
	RunBatch(ctx context.Context, fn func(Batch) error) error
	Subscribe(ctx context.Context, collection, id string, fn Listener) (Unsubscribe, error)
}

type batchOp struct {
	collection string
	id         string
	payload    []byte
	merge      bool
	delete     bool
}

type opBatch struct {
	ops []batchOp
	err error
}

func (b *opBatch) Set(collection, id string, data interface{}, opts ...SetOption) {
	if b.err != nil {
		return
	}
	payload, err := encodeObject(data)
	if err != nil {
		b.err = fmt.Errorf("batch set %s/%s: %w", collection, id, err)
		return
	}
	b.ops = append(b.ops, batchOp{collection: collection, id: id, payload: payload, merge: applySetOptions(opts).merge})
}

func (b *opBatch) Delete(collection, id string) {
	if b.err != nil {
		return
	}
	b.ops = append(b.ops, batchOp{collection: collection, id: id, delete: true})
}

// encodeObject marshals data and insists on a JSON object.
func encodeObject(data interface{}) ([]byte, error) {
	if raw, ok := data.(json.RawMessage); ok {
		data = []byte(raw)
	}
	var payload []byte
	switch v := data.(type) {
	case []byte:
		payload = v
	default:
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode document: %w", err)
		}
		payload = encoded
	}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("document must encode to a JSON object")
	}
	return trimmed, nil
}

// encodeValue marshals a filter value.
func encodeValue(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode filter value: %w", err)
	}
	return raw, nil
}

func subscriptionKey(collection, id string) string {
	return collection + "/" + id
}
