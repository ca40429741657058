package tracedb

import "strconv"

// Thread is a JVM thread that produced trace events.
type Thread struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Sink identifies the method whose invocation context is inspected.
// Names use the JVM internal form stored by the agent, e.g. "Ljavax/el/BeanELResolver;".
type Sink struct {
	ClassName  string `json:"class_name" yaml:"class" toml:"class"`
	MethodName string `json:"method_name" yaml:"method" toml:"method"`
}

func (s Sink) String() string {
	return s.ClassName + " " + s.MethodName
}

// ParentID is a nullable parent_trace_id. It is comparable so that the null
// parent can be used as a map key of its own.
type ParentID struct {
	ID    int64
	Valid bool
}

// NoParent is the null parent.
var NoParent = ParentID{}

// Parent returns a valid ParentID for id.
func Parent(id int64) ParentID {
	return ParentID{ID: id, Valid: true}
}

func (p ParentID) String() string {
	if !p.Valid {
		return "null"
	}
	return strconv.FormatInt(p.ID, 10)
}

// MarshalJSON encodes the parent as a number or null.
func (p ParentID) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, p.ID, 10), nil
}

// UnmarshalJSON accepts a number or null.
func (p *ParentID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = NoParent
		return nil
	}
	id, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	*p = Parent(id)
	return nil
}

// Trace is one recorded method invocation.
type Trace struct {
	ID       int64    `json:"id"`
	ThreadID int64    `json:"thread_id"`
	FQNID    int64    `json:"fqn_id"`
	ParentID ParentID `json:"parent_trace_id"`
}

// WindowRow is a trace row joined with its class and method names.
// Names are empty when the left join finds no fqn, class or method row.
type WindowRow struct {
	TraceID    int64    `json:"trace_id"`
	FQNID      int64    `json:"fqn_id"`
	ClassName  string   `json:"class_name"`
	MethodName string   `json:"method_name"`
	ParentID   ParentID `json:"parent_trace_id"`
}

// Is reports whether the row is an invocation of s.
func (r WindowRow) Is(s Sink) bool {
	return r.ClassName == s.ClassName && r.MethodName == s.MethodName
}

// ThreadInvocations holds the sink invocations recorded on one thread.
type ThreadInvocations struct {
	ThreadID int64   `json:"thread_id"`
	Traces   []Trace `json:"traces"`
}

// Invocations groups sink invocations per thread. Threads keep the order in
// which they were first seen, traces keep query order.
type Invocations struct {
	threads []ThreadInvocations
	index   map[int64]int // thread id → position in threads
}

// NewInvocations returns an empty grouping.
func NewInvocations() *Invocations {
	return &Invocations{index: make(map[int64]int)}
}

// Add appends t to its thread's bucket, creating the bucket on first sight.
func (inv *Invocations) Add(t Trace) {
	i, ok := inv.index[t.ThreadID]
	if !ok {
		i = len(inv.threads)
		inv.index[t.ThreadID] = i
		inv.threads = append(inv.threads, ThreadInvocations{ThreadID: t.ThreadID})
	}
	inv.threads[i].Traces = append(inv.threads[i].Traces, t)
}

// Threads returns the buckets in first-seen order.
func (inv *Invocations) Threads() []ThreadInvocations {
	return inv.threads
}

// Thread returns the invocations recorded on threadID.
func (inv *Invocations) Thread(threadID int64) ([]Trace, bool) {
	i, ok := inv.index[threadID]
	if !ok {
		return nil, false
	}
	return inv.threads[i].Traces, true
}

// Len is the total number of invocations across all threads.
func (inv *Invocations) Len() int {
	n := 0
	for _, t := range inv.threads {
		n += len(t.Traces)
	}
	return n
}

// Empty reports whether the sink was never invoked.
func (inv *Invocations) Empty() bool {
	return len(inv.threads) == 0
}
