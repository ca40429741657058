package tracedb

import (
	"fmt"
	"strings"
)

// DefaultIndent is one indentation unit.
const DefaultIndent = "  "

// Line is one rendered window row.
type Line struct {
	Depth  int       `json:"depth"`
	Indent string    `json:"indent"`
	Row    WindowRow `json:"row"`
}

// String formats the line as "<indent><class> <method>".
func (l Line) String() string {
	return l.Indent + l.Row.ClassName + " " + l.Row.MethodName
}

// Renderer turns an ordered window into indented lines, one per row, in
// window order unless the renderer documents otherwise.
type Renderer interface {
	Render(rows []WindowRow) []Line
}

// Renderer names accepted by RendererByName.
const (
	RendererHeuristic = "heuristic"
	RendererTree      = "tree"
)

// RendererByName returns the renderer called name using indent as the unit.
// An empty indent selects DefaultIndent.
func RendererByName(name, indent string) (Renderer, error) {
	if indent == "" {
		indent = DefaultIndent
	}
	switch name {
	case "", RendererHeuristic:
		return HeuristicRenderer{Unit: indent}, nil
	case RendererTree:
		return TreeRenderer{Unit: indent}, nil
	default:
		return nil, fmt.Errorf("unknown renderer %q (want %s or %s)", name, RendererHeuristic, RendererTree)
	}
}

// HeuristicRenderer reproduces the agent's viewer: the first time a parent id
// is seen the indentation grows by one unit and is remembered for that
// parent; a parent seen before resets the indentation to its remembered value.
// The null parent is a key like any other. Indentation never shrinks except
// through such a reset, so the output is not a true tree.
type HeuristicRenderer struct {
	Unit string
}

func (h HeuristicRenderer) Render(rows []WindowRow) []Line {
	unit := h.Unit
	if unit == "" {
		unit = DefaultIndent
	}
	seen := make(map[ParentID]int)
	depth := 0
	lines := make([]Line, 0, len(rows))
	for _, r := range rows {
		if d, ok := seen[r.ParentID]; ok {
			depth = d
		} else {
			depth++
			seen[r.ParentID] = depth
		}
		lines = append(lines, Line{Depth: depth, Indent: strings.Repeat(unit, depth), Row: r})
	}
	return lines
}

// TreeRenderer rebuilds the call tree from parent ids inside the window.
// Rows whose parent is null or outside the window are roots at depth 1;
// children follow their parent depth-first in ascending id order.
type TreeRenderer struct {
	Unit string
}

func (t TreeRenderer) Render(rows []WindowRow) []Line {
	unit := t.Unit
	if unit == "" {
		unit = DefaultIndent
	}
	inWindow := make(map[int64]bool, len(rows))
	for _, r := range rows {
		inWindow[r.TraceID] = true
	}
	// rows are ascending by id, so each children slice is too.
	children := make(map[int64][]int)
	var roots []int
	for i, r := range rows {
		if r.ParentID.Valid && inWindow[r.ParentID.ID] && r.ParentID.ID != r.TraceID {
			children[r.ParentID.ID] = append(children[r.ParentID.ID], i)
			continue
		}
		roots = append(roots, i)
	}

	lines := make([]Line, 0, len(rows))
	visited := make([]bool, len(rows))
	var walk func(i, depth int)
	walk = func(i, depth int) {
		if visited[i] {
			return
		}
		visited[i] = true
		r := rows[i]
		lines = append(lines, Line{Depth: depth, Indent: strings.Repeat(unit, depth), Row: r})
		for _, c := range children[r.TraceID] {
			walk(c, depth+1)
		}
	}
	for _, i := range roots {
		walk(i, 1)
	}
	// Parent cycles cannot reach a root; emit them flat so no row is lost.
	for i := range rows {
		if !visited[i] {
			walk(i, 1)
		}
	}
	return lines
}
