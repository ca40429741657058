package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"jvmtrace/tracedb"
)

// InvocationGroup is one thread's sink invocations.
type InvocationGroup struct {
	ThreadID   int64           `json:"thread_id"`
	ThreadName string          `json:"thread_name"`
	Traces     []tracedb.Trace `json:"traces"`
}

// RenderedLine is one display line of a window.
type RenderedLine struct {
	TraceID int64  `json:"trace_id"`
	Depth   int    `json:"depth"`
	Text    string `json:"text"`
}

// WindowResponse is the /api/window payload. Lower and Upper are exclusive.
type WindowResponse struct {
	Thread   int64               `json:"thread"`
	Center   int64               `json:"center"`
	Radius   int64               `json:"radius"`
	Lower    int64               `json:"lower"`
	Upper    int64               `json:"upper"`
	Renderer string              `json:"renderer"`
	Rows     []tracedb.WindowRow `json:"rows"`
	Lines    []RenderedLine      `json:"lines"`
}

func (a *App) handleThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := a.store.ListThreads(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, threads)
}

func (a *App) handleSink(w http.ResponseWriter, r *http.Request) {
	sink := sinkParam(r)
	id, err := a.store.ResolveFQN(r.Context(), sink)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"fqn_id": id, "sink": sink})
}

func (a *App) handleInvocations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := a.store.ResolveFQN(ctx, sinkParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	inv, err := a.store.ListInvocations(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	threads, err := a.store.ListThreads(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	names := tracedb.ThreadNames(threads)
	out := make([]InvocationGroup, 0, len(inv.Threads()))
	for _, t := range inv.Threads() {
		out = append(out, InvocationGroup{ThreadID: t.ThreadID, ThreadName: names[t.ThreadID], Traces: t.Traces})
	}
	writeJSON(w, out)
}

func (a *App) handleWindow(w http.ResponseWriter, r *http.Request) {
	thread, err := int64Param(r, "thread", 0)
	if err != nil || thread == 0 {
		http.Error(w, "missing or invalid query parameter thread", http.StatusBadRequest)
		return
	}
	center, err := int64Param(r, "center", 0)
	if err != nil || center == 0 {
		http.Error(w, "missing or invalid query parameter center", http.StatusBadRequest)
		return
	}
	radius, err := int64Param(r, "radius", tracedb.DefaultRadius)
	if err == nil {
		err = tracedb.ValidateWindow(center, radius)
	}
	if err != nil {
		http.Error(w, "invalid query parameter radius: "+err.Error(), http.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("renderer")
	if name == "" {
		name = tracedb.RendererHeuristic
	}
	renderer, err := tracedb.RendererByName(name, r.URL.Query().Get("indent"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := a.store.ExtractWindow(r.Context(), thread, center, radius)
	if err != nil {
		writeError(w, err)
		return
	}
	rendered := renderer.Render(rows)
	lines := make([]RenderedLine, len(rendered))
	for i, l := range rendered {
		lines[i] = RenderedLine{TraceID: l.Row.TraceID, Depth: l.Depth, Text: l.String()}
	}
	lower, upper := tracedb.WindowBounds(center, radius)
	writeJSON(w, WindowResponse{
		Thread:   thread,
		Center:   center,
		Radius:   radius,
		Lower:    lower,
		Upper:    upper,
		Renderer: name,
		Rows:     rows,
		Lines:    lines,
	})
}

// sinkParam reads class and method, falling back to the default sink.
func sinkParam(r *http.Request) tracedb.Sink {
	sink := tracedb.DefaultSink
	if c := r.URL.Query().Get("class"); c != "" {
		sink.ClassName = c
	}
	if m := r.URL.Query().Get("method"); m != "" {
		sink.MethodName = m
	}
	return sink
}

func int64Param(r *http.Request, name string, def int64) (int64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// writeError maps tracedb errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracedb.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, tracedb.ErrNegativeRadius), errors.Is(err, tracedb.ErrWindowOverflow):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("query failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
