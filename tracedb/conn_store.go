package tracedb

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// ConnStore reads a trace database over a single read-only zombiezen connection.
// It is not safe for concurrent use.
type ConnStore struct {
	conn *sqlite.Conn
}

// OpenConnStore opens path read-only.
func OpenConnStore(path string) (*ConnStore, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadOnly)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &ConnStore{conn: conn}, nil
}

func (s *ConnStore) Close() error {
	return s.conn.Close()
}

// exec runs query with args, interrupting the statement when ctx is done.
func (s *ConnStore) exec(ctx context.Context, op, query string, args []any, fn func(stmt *sqlite.Stmt) error) error {
	prev := s.conn.SetInterrupt(ctx.Done())
	defer s.conn.SetInterrupt(prev)

	err := sqlitex.Execute(s.conn, query, &sqlitex.ExecOptions{
		Args:       args,
		ResultFunc: fn,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return queryErr(op, ctxErr)
		}
		return queryErr(op, err)
	}
	return nil
}

func (s *ConnStore) ResolveFQN(ctx context.Context, sink Sink) (int64, error) {
	var (
		id    int64
		found bool
	)
	err := s.exec(ctx, "resolve fqn", queryResolveFQN, []any{sink.ClassName, sink.MethodName}, func(stmt *sqlite.Stmt) error {
		id, found = stmt.ColumnInt64(0), true
		return nil
	})
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("sink %s: %w", sink, ErrNotFound)
	}
	return id, nil
}

func (s *ConnStore) ListInvocations(ctx context.Context, fqnID int64) (*Invocations, error) {
	inv := NewInvocations()
	err := s.exec(ctx, "list invocations", queryInvocations, []any{fqnID}, func(stmt *sqlite.Stmt) error {
		inv.Add(Trace{
			ID:       stmt.ColumnInt64(0),
			ThreadID: stmt.ColumnInt64(1),
			FQNID:    stmt.ColumnInt64(2),
			ParentID: columnParent(stmt, 3),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *ConnStore) ExtractWindow(ctx context.Context, threadID, center, radius int64) ([]WindowRow, error) {
	if err := ValidateWindow(center, radius); err != nil {
		return nil, err
	}
	lower, upper := WindowBounds(center, radius)
	rows := []WindowRow{}
	err := s.exec(ctx, "extract window", queryWindow, []any{lower, upper, threadID}, func(stmt *sqlite.Stmt) error {
		rows = append(rows, WindowRow{
			TraceID:    stmt.ColumnInt64(0),
			FQNID:      stmt.ColumnInt64(1),
			ClassName:  stmt.ColumnText(2),
			MethodName: stmt.ColumnText(3),
			ParentID:   columnParent(stmt, 4),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ConnStore) ListThreads(ctx context.Context) ([]Thread, error) {
	threads := []Thread{}
	err := s.exec(ctx, "list threads", queryThreads, nil, func(stmt *sqlite.Stmt) error {
		threads = append(threads, Thread{ID: stmt.ColumnInt64(0), Name: stmt.ColumnText(1)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return threads, nil
}

func (s *ConnStore) CheckSchema(ctx context.Context) error {
	found := make(map[string]map[string]bool)
	for _, req := range requiredColumns {
		cols := make(map[string]bool)
		err := s.exec(ctx, "check schema", queryTableColumns, []any{req.Table}, func(stmt *sqlite.Stmt) error {
			cols[stmt.ColumnText(0)] = true
			return nil
		})
		if err != nil {
			return err
		}
		found[req.Table] = cols
	}
	return missingColumns(found)
}

func columnParent(stmt *sqlite.Stmt, col int) ParentID {
	if stmt.ColumnType(col) == sqlite.TypeNull {
		return NoParent
	}
	return Parent(stmt.ColumnInt64(col))
}
