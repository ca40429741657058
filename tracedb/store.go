// Package tracedb reads JVM method-call traces recorded by a JVMTI agent into
// SQLite and reconstructs the call context around invocations of a sink method.
//
// All access is read-only. Two Store implementations run the same SQL: ConnStore
// on a single zombiezen connection, DBStore on a database/sql pool using the
// modernc driver.
package tracedb

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
)

// DefaultSink is the bean property resolver commonly reached by EL injection.
var DefaultSink = Sink{ClassName: "Ljavax/el/BeanELResolver;", MethodName: "getValue"}

// DefaultRadius is the window radius used when none is configured.
const DefaultRadius = 20

// HistoryBias is the number of extra rows a window looks back before
// center-radius. Analysts care more about what led up to a call than what
// followed it.
const HistoryBias = 50

// Store is the read contract over a trace database.
type Store interface {
	// ResolveFQN returns the fqns id for sink, or an error wrapping ErrNotFound.
	ResolveFQN(ctx context.Context, sink Sink) (int64, error)
	// ListInvocations returns every trace of fqnID grouped by thread.
	ListInvocations(ctx context.Context, fqnID int64) (*Invocations, error)
	// ExtractWindow returns the rows of threadID strictly inside WindowBounds(center, radius), ascending by id.
	ExtractWindow(ctx context.Context, threadID, center, radius int64) ([]WindowRow, error)
	// ListThreads returns all recorded threads ordered by id.
	ListThreads(ctx context.Context) ([]Thread, error)
	// CheckSchema verifies the tables and columns this package reads.
	CheckSchema(ctx context.Context) error
	Close() error
}

// WindowBounds returns the exclusive (lower, upper) id bounds of the window
// around center.
func WindowBounds(center, radius int64) (lower, upper int64) {
	return center - radius - HistoryBias, center + radius
}

// ValidateWindow reports whether WindowBounds(center, radius) is usable:
// radius must be non-negative and neither bound may overflow int64.
func ValidateWindow(center, radius int64) error {
	if radius < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeRadius, radius)
	}
	if radius > math.MaxInt64-HistoryBias {
		return fmt.Errorf("%w: radius %d", ErrWindowOverflow, radius)
	}
	if center > math.MaxInt64-radius || center < math.MinInt64+radius+HistoryBias {
		return fmt.Errorf("%w: center %d radius %d", ErrWindowOverflow, center, radius)
	}
	return nil
}

// missingColumns diffs the columns found per table against requiredColumns.
// A table with no columns at all is reported as missing.
func missingColumns(found map[string]map[string]bool) error {
	var missing []string
	for _, req := range requiredColumns {
		cols := found[req.Table]
		if len(cols) == 0 {
			missing = append(missing, "table "+req.Table)
			continue
		}
		for _, c := range req.Columns {
			if !cols[c] {
				missing = append(missing, req.Table+"."+c)
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return queryErr("check schema", fmt.Errorf("missing %s", strings.Join(missing, ", ")))
}

// ThreadNames indexes threads by id.
func ThreadNames(threads []Thread) map[int64]string {
	names := make(map[int64]string, len(threads))
	for _, t := range threads {
		names[t.ID] = t.Name
	}
	return names
}

var (
	_ Store = (*ConnStore)(nil)
	_ Store = (*DBStore)(nil)
)
