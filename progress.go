package main

import (
	"fmt"
	"io"
	"time"

	"jvmtrace/tracedb"
)

// Progress reports what the tool is doing to stderr with elapsed time.
// Report output never goes through Progress.
type Progress struct {
	out     io.Writer
	start   time.Time
	verbose bool
}

// NewProgress creates a progress reporter writing to out.
func NewProgress(out io.Writer, verbose bool) *Progress {
	return &Progress{out: out, start: time.Now(), verbose: verbose}
}

// Log prints a progress message with elapsed time prefix.
func (p *Progress) Log(format string, args ...any) {
	elapsed := time.Since(p.start)
	fmt.Fprintf(p.out, "[%02d:%02d] %s\n", int(elapsed.Minutes()), int(elapsed.Seconds())%60, fmt.Sprintf(format, args...))
}

// Verbose prints only when verbose mode is enabled.
func (p *Progress) Verbose(format string, args ...any) {
	if p.verbose {
		p.Log(format, args...)
	}
}

// Invocations summarises where sink was called. The per-thread breakdown
// is verbose only.
func (p *Progress) Invocations(sink tracedb.Sink, inv *tracedb.Invocations, names map[int64]string) {
	for _, t := range inv.Threads() {
		name := names[t.ThreadID]
		if name == "" {
			name = "unnamed"
		}
		p.Verbose("  thread %d (%s): %d invocations, first trace %d", t.ThreadID, name, len(t.Traces), t.Traces[0].ID)
	}
	p.Log("Found %d invocations of %s on %d threads", inv.Len(), sink, len(inv.Threads()))
}

// Window notes the bounds and size of one extracted window.
func (p *Progress) Window(thread, center, radius int64, rows int) {
	lower, upper := tracedb.WindowBounds(center, radius)
	p.Verbose("Window (%d, %d) around trace %d on thread %d: %d rows", lower, upper, center, thread, rows)
}
