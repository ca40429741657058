package tracedb

import (
	"context"
	"path/filepath"
	"testing"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const (
	sinkFQN   = 1
	otherFQN  = 2
	webThread = 35
	bgThread  = 36
	center    = 18173553
)

type fixtureTrace struct {
	id, thread, fqn int64
	parent          any // nil or int64
}

// windowFixture surrounds the (18173483, 18173573) window of thread 35 with
// rows on and just inside both bounds, plus sink calls on a second thread.
var windowFixture = []fixtureTrace{
	{18173482, webThread, otherFQN, nil},
	{18173483, webThread, otherFQN, nil},
	{18173484, webThread, otherFQN, nil},
	{18173500, webThread, sinkFQN, int64(18173484)},
	{18173501, bgThread, sinkFQN, nil},
	{18173572, webThread, otherFQN, nil},
	{18173573, webThread, otherFQN, nil},
	{18180000, webThread, sinkFQN, nil},
}

// writeFixture creates a trace database at a temp path and returns the path.
func writeFixture(t *testing.T, traces []fixtureTrace) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "traces.db")
	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate, sqlite.OpenReadWrite)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer func() { _ = conn.Close() }()

	if err := sqlitex.ExecuteScript(conn, Schema, nil); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	stmts := []struct {
		q    string
		args []any
	}{
		{`INSERT INTO threads VALUES (?, ?)`, []any{webThread, "http-nio-8080-exec-1"}},
		{`INSERT INTO threads VALUES (?, ?)`, []any{bgThread, "Finalizer"}},
		{`INSERT INTO classes VALUES (1, 'Ljavax/el/BeanELResolver;')`, nil},
		{`INSERT INTO classes VALUES (2, 'Lorg/apache/el/parser/AstValue;')`, nil},
		{`INSERT INTO methods VALUES (1, 'getValue')`, nil},
		{`INSERT INTO methods VALUES (2, 'getTarget')`, nil},
		{`INSERT INTO fqns VALUES (?, 1, 1, NULL, NULL)`, []any{sinkFQN}},
		{`INSERT INTO fqns VALUES (?, 2, 2, NULL, NULL)`, []any{otherFQN}},
	}
	for _, s := range stmts {
		if err := sqlitex.Execute(conn, s.q, &sqlitex.ExecOptions{Args: s.args}); err != nil {
			t.Fatalf("seed %q: %v", s.q, err)
		}
	}
	for _, tr := range traces {
		if err := sqlitex.Execute(conn, `INSERT INTO traces VALUES (?, ?, ?, ?)`, &sqlitex.ExecOptions{
			Args: []any{tr.id, tr.thread, tr.fqn, tr.parent},
		}); err != nil {
			t.Fatalf("seed trace %d: %v", tr.id, err)
		}
	}
	return path
}

// stores opens the same fixture through both implementations.
func stores(t *testing.T, path string) map[string]Store {
	t.Helper()
	cs, err := OpenConnStore(path)
	if err != nil {
		t.Fatalf("OpenConnStore: %v", err)
	}
	ds, err := OpenDBStore(path)
	if err != nil {
		t.Fatalf("OpenDBStore: %v", err)
	}
	t.Cleanup(func() {
		_ = cs.Close()
		_ = ds.Close()
	})
	return map[string]Store{"conn": cs, "db": ds}
}

func forEachStore(t *testing.T, traces []fixtureTrace, fn func(t *testing.T, ctx context.Context, s Store)) {
	t.Helper()
	path := writeFixture(t, traces)
	for name, s := range stores(t, path) {
		t.Run(name, func(t *testing.T) {
			fn(t, context.Background(), s)
		})
	}
}
