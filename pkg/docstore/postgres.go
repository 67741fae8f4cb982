package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// DefaultNotifyChannel is the LISTEN/NOTIFY channel used when none is configured.
const DefaultNotifyChannel = "docstore_changes"

// PostgresStore keeps every collection in one JSONB table.
type PostgresStore struct {
	db      *sqlx.DB
	channel string
	logger  *zap.Logger

	mu      sync.Mutex
	subs    map[string]map[int]Listener
	nextSub int
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sqlx.DB, channel string, logger *zap.Logger) *PostgresStore {
	if channel == "" {
		channel = DefaultNotifyChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{
		db:      db,
		channel: channel,
		logger:  logger,
		subs:    make(map[string]map[int]Listener),
	}
}

// SchemaStatements returns the DDL that EnsureSchema applies.
func (s *PostgresStore) SchemaStatements() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	data JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (collection, id)
)`,
		`CREATE INDEX IF NOT EXISTS documents_data_gin ON documents USING GIN (data jsonb_path_ops)`,
		fmt.Sprintf(`CREATE OR REPLACE FUNCTION docstore_notify() RETURNS trigger AS $$
BEGIN
	IF TG_OP = 'DELETE' THEN
		PERFORM pg_notify(%[1]s, OLD.collection || '/' || OLD.id);
		RETURN OLD;
	END IF;
	PERFORM pg_notify(%[1]s, NEW.collection || '/' || NEW.id);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`, pq.QuoteLiteral(s.channel)),
		`DROP TRIGGER IF EXISTS documents_notify ON documents`,
		`CREATE TRIGGER documents_notify AFTER INSERT OR UPDATE OR DELETE ON documents
	FOR EACH ROW EXECUTE FUNCTION docstore_notify()`,
	}
}

// EnsureSchema creates the documents table and its change trigger.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.SchemaStatements() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply docstore schema: %w", err)
		}
	}
	return nil
}

// NewID returns a random document id.
func (s *PostgresStore) NewID() string {
	return uuid.NewString()
}

type documentRow struct {
	Collection string `db:"collection"`
	ID         string `db:"id"`
	Data       []byte `db:"data"`
}

// Get returns the document or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var row documentRow
	err := s.db.GetContext(ctx, &row, `SELECT collection, id, data FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document %s/%s: %w", collection, id, err)
	}
	return &Document{Collection: row.Collection, ID: row.ID, Data: row.Data}, nil
}

// Find runs the query with JSONB containment and equality operators.
func (s *PostgresStore) Find(ctx context.Context, q Query) ([]Document, error) {
	query, args, err := buildFindQuery(q)
	if err != nil {
		return nil, err
	}
	var rows []documentRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("find %s: %w", q.String(), err)
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, Document{Collection: row.Collection, ID: row.ID, Data: row.Data})
	}
	return docs, nil
}

func buildFindQuery(q Query) (string, []interface{}, error) {
	var b strings.Builder
	b.WriteString(`SELECT collection, id, data FROM documents WHERE collection = $1`)
	args := []interface{}{q.Collection}
	for _, f := range q.Filters {
		raw, err := encodeValue(f.Value)
		if err != nil {
			return "", nil, err
		}
		switch f.Op {
		case OpEqual:
			args = append(args, f.Field, string(raw))
			fmt.Fprintf(&b, " AND data -> $%d = $%d::jsonb", len(args)-1, len(args))
		case OpArrayContains:
			args = append(args, f.Field, "["+string(raw)+"]")
			fmt.Fprintf(&b, " AND jsonb_typeof(data -> $%d) = 'array' AND data -> $%d @> $%d::jsonb", len(args)-1, len(args)-1, len(args))
		default:
			return "", nil, fmt.Errorf("unsupported filter operator %q", f.Op)
		}
	}
	b.WriteString(` ORDER BY created_at, id`)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args, nil
}

const (
	upsertReplaceSQL = `INSERT INTO documents (collection, id, data, created_at, updated_at)
VALUES ($1, $2, $3::jsonb, NOW(), NOW())
ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`
	upsertMergeSQL = `INSERT INTO documents (collection, id, data, created_at, updated_at)
VALUES ($1, $2, $3::jsonb, NOW(), NOW())
ON CONFLICT (collection, id) DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = NOW()`
	deleteSQL = `DELETE FROM documents WHERE collection = $1 AND id = $2`
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func execOp(ctx context.Context, e execer, op batchOp) error {
	if op.delete {
		if _, err := e.ExecContext(ctx, deleteSQL, op.collection, op.id); err != nil {
			return fmt.Errorf("delete document %s/%s: %w", op.collection, op.id, err)
		}
		return nil
	}
	stmt := upsertReplaceSQL
	if op.merge {
		stmt = upsertMergeSQL
	}
	if _, err := e.ExecContext(ctx, stmt, op.collection, op.id, string(op.payload)); err != nil {
		return fmt.Errorf("set document %s/%s: %w", op.collection, op.id, err)
	}
	return nil
}

// Set writes a document. With Merge the top-level keys are overlaid.
func (s *PostgresStore) Set(ctx context.Context, collection, id string, data interface{}, opts ...SetOption) error {
	payload, err := encodeObject(data)
	if err != nil {
		return err
	}
	return execOp(ctx, s.db, batchOp{collection: collection, id: id, payload: payload, merge: applySetOptions(opts).merge})
}

// Delete removes a document. Missing documents are not an error.
func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	return execOp(ctx, s.db, batchOp{collection: collection, id: id, delete: true})
}

// RunBatch applies queued writes inside one transaction.
func (s *PostgresStore) RunBatch(ctx context.Context, fn func(Batch) error) (err error) {
	b := &opBatch{}
	if err := fn(b); err != nil {
		return err
	}
	if b.err != nil {
		return b.err
	}
	if len(b.ops) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, op := range b.ops {
		if err = execOp(ctx, tx, op); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Subscribe registers fn for changes to one document and delivers the
// current snapshot straight away. Change delivery requires Listen to run.
func (s *PostgresStore) Subscribe(ctx context.Context, collection, id string, fn Listener) (Unsubscribe, error) {
	key := subscriptionKey(collection, id)
	s.mu.Lock()
	s.nextSub++
	token := s.nextSub
	if s.subs[key] == nil {
		s.subs[key] = make(map[int]Listener)
	}
	s.subs[key][token] = fn
	s.mu.Unlock()

	unsubscribe := func() {
		s.mu.Lock()
		delete(s.subs[key], token)
		if len(s.subs[key]) == 0 {
			delete(s.subs, key)
		}
		s.mu.Unlock()
	}

	doc, err := s.Get(ctx, collection, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		unsubscribe()
		return nil, err
	}
	fn(doc)

	var once sync.Once
	return func() { once.Do(unsubscribe) }, nil
}

// Listen consumes change notifications until ctx is cancelled.
func (s *PostgresStore) Listen(ctx context.Context, dsn string) error {
	listener := pq.NewListener(dsn, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			s.logger.Warn("docstore listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	if err := listener.Listen(s.channel); err != nil {
		_ = listener.Close()
		return fmt.Errorf("listen %s: %w", s.channel, err)
	}
	defer listener.Close()

	s.logger.Info("docstore listener started", zap.String("channel", s.channel))
	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			if n == nil {
				// Connection was re-established; notifications may have been missed.
				s.refreshAll(ctx)
				continue
			}
			s.dispatch(ctx, n.Extra)
		case <-time.After(90 * time.Second):
			go func() { _ = listener.Ping() }()
		}
	}
}

func (s *PostgresStore) listenersFor(key string) []Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Listener, 0, len(s.subs[key]))
	for _, l := range s.subs[key] {
		out = append(out, l)
	}
	return out
}

func (s *PostgresStore) dispatch(ctx context.Context, key string) {
	listeners := s.listenersFor(key)
	if len(listeners) == 0 {
		return
	}
	collection, id, ok := strings.Cut(key, "/")
	if !ok {
		return
	}
	doc, err := s.Get(ctx, collection, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Warn("docstore refetch failed", zap.String("key", key), zap.Error(err))
		return
	}
	for _, l := range listeners {
		l(doc)
	}
}

func (s *PostgresStore) refreshAll(ctx context.Context) {
	s.mu.Lock()
	keys := make([]string, 0, len(s.subs))
	for k := range s.subs {
		keys = append(keys, k)
	}
	s.mu.Unlock()
	for _, k := range keys {
		s.dispatch(ctx, k)
	}
}
