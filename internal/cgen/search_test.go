package cgen

import (
	"strings"
	"testing"

	"veld/internal/pref"
)

// genErr lowers src expecting generation to fail.
func genErr(t *testing.T, src string) error {
	t.Helper()
	tab, files := compile(t, src)
	_, err := New(tab, pref.Default()).Generate(files)
	if err == nil {
		t.Fatal("generate should have failed")
	}
	return err
}

func TestContainsLowersToHelper(t *testing.T) {
	out := gen(t, `module main
fn run(nums []int) bool {
	return nums.contains(2)
}
`)
	wantContains(t, out,
		"static bool Array_int__contains(array xs, int v) {",
		"if (((int*)xs.data)[i] == v) return true;",
		"return Array_int__contains(nums, 2);")
}

func TestIndexLowersToHelper(t *testing.T) {
	out := gen(t, `module main
fn run(nums []int) int {
	return nums.index(3)
}
`)
	wantContains(t, out,
		"static int Array_int__index(array xs, int v) {",
		"if (((int*)xs.data)[i] == v) return i;",
		"return -1;",
		"return Array_int__index(nums, 3);")
}

func TestContainsStructUsesEquality(t *testing.T) {
	out := gen(t, `module main
struct Point {
	x int
	y int
}
fn run(points []Point, p Point) bool {
	return points.contains(p)
}
`)
	wantContains(t, out,
		"static bool Array_Point__contains(array xs, Point v) {",
		"Point__eq(((Point*)xs.data)[i], v)",
		"static bool Point__eq(Point a, Point b) {")
}

func TestSearchHelpersMemoized(t *testing.T) {
	out := gen(t, `module main
fn run(a []int, b []int) bool {
	return a.contains(1) && b.contains(2)
}
`)
	if n := strings.Count(out, "static bool Array_int__contains"); n != 1 {
		t.Fatalf("helper emitted %d times, want 1\n%s", n, out)
	}
}

func TestUnknownArrayMethodFails(t *testing.T) {
	err := genErr(t, `module main
fn run(nums []int) {
	nums.scramble(1)
}
`)
	if !strings.Contains(err.Error(), "unknown") {
		t.Fatalf("error should name the unresolvable method: %v", err)
	}
}
