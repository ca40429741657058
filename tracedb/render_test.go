package tracedb

import (
	"reflect"
	"strings"
	"testing"
)

func row(id int64, parent ParentID, method string) WindowRow {
	return WindowRow{TraceID: id, ClassName: "LC;", MethodName: method, ParentID: parent}
}

func depths(lines []Line) []int {
	out := make([]int, len(lines))
	for i, l := range lines {
		out[i] = l.Depth
	}
	return out
}

func texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.String()
	}
	return out
}

func TestHeuristicRenderer_ResetOnSeenParent(t *testing.T) {
	rows := []WindowRow{
		row(1, NoParent, "a"),
		row(2, Parent(5), "b"),
		row(3, NoParent, "c"),
	}
	lines := HeuristicRenderer{Unit: " "}.Render(rows)
	if got := depths(lines); !reflect.DeepEqual(got, []int{1, 2, 1}) {
		t.Fatalf("depths = %v, want [1 2 1]", got)
	}
	for i, want := range []int{1, 2, 1} {
		if len(lines[i].Indent) != want {
			t.Errorf("lines[%d].Indent length = %d, want %d", i, len(lines[i].Indent), want)
		}
	}
	if lines[1].String() != "  LC; b" {
		t.Errorf("lines[1] = %q", lines[1].String())
	}
}

func TestHeuristicRenderer_NeverNestsBack(t *testing.T) {
	// A true tree would put 4 under 2; the heuristic keys on first sight only.
	rows := []WindowRow{
		row(1, NoParent, "root"),
		row(2, Parent(1), "child"),
		row(3, Parent(2), "grandchild"),
		row(4, Parent(1), "child2"),
		row(5, Parent(9), "unrelated"),
	}
	got := depths(HeuristicRenderer{}.Render(rows))
	if want := []int{1, 2, 3, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("depths = %v, want %v", got, want)
	}
}

func TestTreeRenderer(t *testing.T) {
	rows := []WindowRow{
		row(1, NoParent, "root"),
		row(2, Parent(1), "child"),
		row(3, Parent(2), "grandchild"),
		row(4, Parent(1), "child2"),
		row(5, Parent(100), "orphan"),
		row(6, Parent(5), "orphanChild"),
	}
	lines := TreeRenderer{Unit: "."}.Render(rows)
	got := texts(lines)
	want := []string{
		".LC; root",
		"..LC; child",
		"...LC; grandchild",
		"..LC; child2",
		".LC; orphan",
		"..LC; orphanChild",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tree lines:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
	if len(lines) != len(rows) {
		t.Errorf("rendered %d lines for %d rows", len(lines), len(rows))
	}
}

func TestTreeRenderer_DepthFirstOrder(t *testing.T) {
	// Children are emitted under their parent, not in id order.
	rows := []WindowRow{
		row(1, NoParent, "a"),
		row(2, NoParent, "b"),
		row(3, Parent(1), "a1"),
		row(4, Parent(2), "b1"),
	}
	var methods []string
	for _, l := range (TreeRenderer{}).Render(rows) {
		methods = append(methods, l.Row.MethodName)
	}
	if want := []string{"a", "a1", "b", "b1"}; !reflect.DeepEqual(methods, want) {
		t.Errorf("order = %v, want %v", methods, want)
	}
}

func TestTreeRenderer_SelfParent(t *testing.T) {
	rows := []WindowRow{row(7, Parent(7), "self")}
	lines := TreeRenderer{}.Render(rows)
	if len(lines) != 1 || lines[0].Depth != 1 {
		t.Errorf("self-parented row = %+v", lines)
	}
}

func TestRenderersAgreeOnSimpleWindow(t *testing.T) {
	rows := []WindowRow{
		row(18173484, NoParent, "getTarget"),
		row(18173500, Parent(18173484), "getValue"),
		row(18173572, NoParent, "getTarget"),
	}
	h := texts(HeuristicRenderer{}.Render(rows))
	tr := texts(TreeRenderer{}.Render(rows))
	if !reflect.DeepEqual(h, tr) {
		t.Errorf("heuristic %q != tree %q", h, tr)
	}
}

func TestRendererByName(t *testing.T) {
	for _, name := range []string{"", RendererHeuristic, RendererTree} {
		r, err := RendererByName(name, "")
		if err != nil {
			t.Errorf("RendererByName(%q): %v", name, err)
			continue
		}
		lines := r.Render([]WindowRow{row(1, NoParent, "m")})
		if lines[0].Indent != DefaultIndent {
			t.Errorf("RendererByName(%q) indent = %q, want default", name, lines[0].Indent)
		}
	}
	if _, err := RendererByName("graphviz", ""); err == nil {
		t.Error("RendererByName(graphviz): want error")
	}
}

func TestRender_Empty(t *testing.T) {
	if lines := (HeuristicRenderer{}).Render(nil); len(lines) != 0 {
		t.Errorf("heuristic on empty window: %v", lines)
	}
	if lines := (TreeRenderer{}).Render(nil); len(lines) != 0 {
		t.Errorf("tree on empty window: %v", lines)
	}
}
