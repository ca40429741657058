package tracedb

// SQL shared by ConnStore and DBStore. Parameters are positional.

const queryResolveFQN = `SELECT fqns.id
FROM fqns
LEFT JOIN classes ON classes.id = fqns.class_id
LEFT JOIN methods ON methods.id = fqns.method_id
WHERE classes.class_name = ? AND methods.method_name = ?
ORDER BY fqns.id
LIMIT 1`

const queryInvocations = `SELECT id, thread_id, fqn_id, parent_trace_id
FROM traces
WHERE fqn_id = ?
ORDER BY id ASC`

// queryWindow binds the exclusive lower and upper bounds from WindowBounds.
const queryWindow = `SELECT traces.id, fqns.id, classes.class_name, methods.method_name, traces.parent_trace_id
FROM traces
LEFT JOIN fqns ON fqns.id = traces.fqn_id
LEFT JOIN classes ON classes.id = fqns.class_id
LEFT JOIN methods ON methods.id = fqns.method_id
WHERE ? < traces.id AND traces.id < ?
  AND traces.thread_id = ?
ORDER BY traces.id ASC`

const queryThreads = `SELECT DISTINCT id, thread_name FROM threads ORDER BY id`

const queryTableColumns = `SELECT name FROM pragma_table_info(?)`

// requiredColumns is the read contract with the tracer's schema.
var requiredColumns = []struct {
	Table   string
	Columns []string
}{
	{"threads", []string{"id", "thread_name"}},
	{"classes", []string{"id", "class_name"}},
	{"methods", []string{"id", "method_name"}},
	{"fqns", []string{"id", "class_id", "method_id"}},
	{"traces", []string{"id", "thread_id", "fqn_id", "parent_trace_id"}},
}

// Schema is the DDL the JVMTI agent creates. The tools here never run it
// against a user database; it builds fixtures and documents the contract.
const Schema = `
CREATE TABLE IF NOT EXISTS traces (id INTEGER PRIMARY KEY, thread_id INTEGER, fqn_id INTEGER, parent_trace_id INTEGER);
CREATE TABLE IF NOT EXISTS threads (id INTEGER PRIMARY KEY, thread_name TEXT);
CREATE TABLE IF NOT EXISTS fqns (id INTEGER PRIMARY KEY, class_id INTEGER, method_id INTEGER, signature_id INTEGER, jmethod_id INTEGER);
CREATE TABLE IF NOT EXISTS classes (id INTEGER PRIMARY KEY, class_name TEXT);
CREATE TABLE IF NOT EXISTS methods (id INTEGER PRIMARY KEY, method_name TEXT);
CREATE TABLE IF NOT EXISTS signatures (id INTEGER PRIMARY KEY, signature_name TEXT);
`
