package tracedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DBStore reads a trace database through database/sql with the modernc driver.
type DBStore struct {
	db *sql.DB
}

// OpenDBStore opens path with every pooled connection in query_only mode.
func OpenDBStore(path string) (*DBStore, error) {
	db, err := sql.Open("sqlite", readOnlyDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open db: %w", err)
	}
	return &DBStore{db: db}, nil
}

// readOnlyDSN builds a file: URI whose _pragma the modernc driver runs on
// each new connection.
func readOnlyDSN(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path), RawQuery: "_pragma=query_only(1)"}
	return u.String()
}

func (s *DBStore) Close() error {
	return s.db.Close()
}

func (s *DBStore) ResolveFQN(ctx context.Context, sink Sink) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, queryResolveFQN, sink.ClassName, sink.MethodName).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("sink %s: %w", sink, ErrNotFound)
	}
	if err != nil {
		return 0, queryErr("resolve fqn", err)
	}
	return id, nil
}

func (s *DBStore) ListInvocations(ctx context.Context, fqnID int64) (*Invocations, error) {
	rows, err := s.db.QueryContext(ctx, queryInvocations, fqnID)
	if err != nil {
		return nil, queryErr("list invocations", err)
	}
	defer rows.Close()
	inv := NewInvocations()
	for rows.Next() {
		var t Trace
		var parent sql.NullInt64
		if err := rows.Scan(&t.ID, &t.ThreadID, &t.FQNID, &parent); err != nil {
			return nil, queryErr("list invocations", err)
		}
		t.ParentID = nullParent(parent)
		inv.Add(t)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("list invocations", err)
	}
	return inv, nil
}

func (s *DBStore) ExtractWindow(ctx context.Context, threadID, center, radius int64) ([]WindowRow, error) {
	if err := ValidateWindow(center, radius); err != nil {
		return nil, err
	}
	lower, upper := WindowBounds(center, radius)
	rows, err := s.db.QueryContext(ctx, queryWindow, lower, upper, threadID)
	if err != nil {
		return nil, queryErr("extract window", err)
	}
	defer rows.Close()
	out := []WindowRow{}
	for rows.Next() {
		var r WindowRow
		var fqnID, parent sql.NullInt64
		var class, method sql.NullString
		if err := rows.Scan(&r.TraceID, &fqnID, &class, &method, &parent); err != nil {
			return nil, queryErr("extract window", err)
		}
		r.FQNID = fqnID.Int64
		r.ClassName = class.String
		r.MethodName = method.String
		r.ParentID = nullParent(parent)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("extract window", err)
	}
	return out, nil
}

func (s *DBStore) ListThreads(ctx context.Context) ([]Thread, error) {
	rows, err := s.db.QueryContext(ctx, queryThreads)
	if err != nil {
		return nil, queryErr("list threads", err)
	}
	defer rows.Close()
	threads := []Thread{}
	for rows.Next() {
		var t Thread
		var name sql.NullString
		if err := rows.Scan(&t.ID, &name); err != nil {
			return nil, queryErr("list threads", err)
		}
		t.Name = name.String
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr("list threads", err)
	}
	return threads, nil
}

func (s *DBStore) CheckSchema(ctx context.Context) error {
	found := make(map[string]map[string]bool)
	for _, req := range requiredColumns {
		cols, err := s.tableColumns(ctx, req.Table)
		if err != nil {
			return err
		}
		found[req.Table] = cols
	}
	return missingColumns(found)
}

func (s *DBStore) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, queryTableColumns, table)
	if err != nil {
		return nil, queryErr("check schema", err)
	}
	defer rows.Close()
	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, queryErr("check schema", err)
		}
		cols[name] = true
	}
	return cols, queryErr("check schema", rows.Err())
}

func nullParent(n sql.NullInt64) ParentID {
	if !n.Valid {
		return NoParent
	}
	return Parent(n.Int64)
}
