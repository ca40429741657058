package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"jvmtrace/tracedb"
)

// Report runs resolve → group → window → render for one sink.
type Report struct {
	Store    tracedb.Store
	Sink     tracedb.Sink
	Thread   int64 // 0 selects every thread
	Center   int64 // 0 selects every invocation
	Radius   int64
	Renderer tracedb.Renderer
	Check    bool
	// Highlight, when non-nil, colours sink rows.
	Highlight *color.Color
	Progress  *Progress
}

// focus is one window to print.
type focus struct {
	thread, center int64
	header         string
}

// Run writes the report to w. Nothing is written unless every query succeeds.
func (r *Report) Run(ctx context.Context, w io.Writer) error {
	if r.Check {
		if err := r.Store.CheckSchema(ctx); err != nil {
			return err
		}
		r.Progress.Verbose("Schema OK")
	}

	fqnID, err := r.Store.ResolveFQN(ctx, r.Sink)
	if err != nil {
		return err
	}
	r.Progress.Verbose("Sink %s is fqn %d", r.Sink, fqnID)

	inv, err := r.Store.ListInvocations(ctx, fqnID)
	if err != nil {
		return err
	}
	if inv.Empty() {
		r.Progress.Log("Sink %s was never invoked", r.Sink)
		return nil
	}

	threads, err := r.Store.ListThreads(ctx)
	if err != nil {
		return err
	}
	names := tracedb.ThreadNames(threads)
	r.Progress.Invocations(r.Sink, inv, names)

	var buf bytes.Buffer
	for _, f := range r.focuses(inv, names) {
		rows, err := r.Store.ExtractWindow(ctx, f.thread, f.center, r.Radius)
		if errors.Is(err, tracedb.ErrWindowOverflow) {
			return &ConfigError{Field: "radius", Msg: err.Error()}
		}
		if err != nil {
			return err
		}
		r.Progress.Window(f.thread, f.center, r.Radius, len(rows))
		if f.header != "" {
			fmt.Fprintln(&buf, f.header)
		}
		for _, l := range r.Renderer.Render(rows) {
			fmt.Fprintln(&buf, r.format(l))
		}
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// focuses lists the windows to print. An explicit thread and center yield a
// single headerless window; otherwise every invocation gets its own.
func (r *Report) focuses(inv *tracedb.Invocations, names map[int64]string) []focus {
	if r.Thread != 0 && r.Center != 0 {
		return []focus{{thread: r.Thread, center: r.Center}}
	}
	groups := inv.Threads()
	if r.Thread != 0 {
		traces, _ := inv.Thread(r.Thread)
		groups = []tracedb.ThreadInvocations{{ThreadID: r.Thread, Traces: traces}}
	}
	var out []focus
	for _, t := range groups {
		for _, tr := range t.Traces {
			out = append(out, focus{
				thread: t.ThreadID,
				center: tr.ID,
				header: fmt.Sprintf("# thread %d (%s) trace %d", t.ThreadID, names[t.ThreadID], tr.ID),
			})
		}
	}
	return out
}

func (r *Report) format(l tracedb.Line) string {
	if r.Highlight == nil || !l.Row.Is(r.Sink) {
		return l.String()
	}
	return l.Indent + r.Highlight.Sprint(l.Row.ClassName+" "+l.Row.MethodName)
}
