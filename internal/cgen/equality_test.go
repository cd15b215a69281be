package cgen

import (
	"strings"
	"testing"

	"veld/internal/pref"
	"veld/internal/symbols"
)

func TestStructEqualityGenerated(t *testing.T) {
	out := gen(t, `module main
struct Point {
	x int
	y int
}
fn same(a Point, b Point) bool {
	return a == b
}
`)
	wantContains(t, out,
		"static bool Point__eq(Point a, Point b) {",
		"if (!(a.x == b.x)) return false;",
		"if (!(a.y == b.y)) return false;",
		"return Point__eq(a, b);")
}

func TestStructEqualityStringField(t *testing.T) {
	out := gen(t, `module main
struct User {
	name string
	age int
}
fn same(a User, b User) bool {
	return a == b
}
`)
	wantContains(t, out,
		"if (!(string_eq(a.name, b.name))) return false;",
		"if (!(a.age == b.age)) return false;")
}

func TestNestedStructEqualityRecurses(t *testing.T) {
	out := gen(t, `module main
struct Inner {
	v int
}
struct Outer {
	in Inner
}
fn same(a Outer, b Outer) bool {
	return a == b
}
`)
	wantContains(t, out,
		"static bool Inner__eq(Inner a, Inner b) {",
		"static bool Outer__eq(Outer a, Outer b) {",
		"if (!(Inner__eq(a.in, b.in))) return false;")
}

func TestEqualityMemoizedPerType(t *testing.T) {
	out := gen(t, `module main
struct Point {
	x int
}
fn f(a Point, b Point) bool {
	return a == b
}
fn g(a Point, b Point) bool {
	return a != b
}
`)
	if n := strings.Count(out, "static bool Point__eq"); n != 1 {
		t.Fatalf("equality generated %d times, want exactly 1", n)
	}
	wantContains(t, out, "return !Point__eq(a, b);")
}

func TestArrayEqualityComparesElements(t *testing.T) {
	out := gen(t, `module main
fn same(a []int, b []int) bool {
	return a == b
}
`)
	wantContains(t, out,
		"static bool Array_int__eq(array a, array b) {",
		"if (a.len != b.len) return false;",
		"if (!(av == bv)) return false;")
}

func TestArrayOfStructsEquality(t *testing.T) {
	out := gen(t, `module main
struct Point {
	x int
}
fn same(a []Point, b []Point) bool {
	return a == b
}
`)
	wantContains(t, out,
		"static bool Array_Point__eq(array a, array b) {",
		"if (!(Point__eq(av, bv))) return false;")
}

func TestMapEqualityComparesByKey(t *testing.T) {
	out := gen(t, `module main
fn same(a map[string]int, b map[string]int) bool {
	return a == b
}
`)
	wantContains(t, out,
		"if (a.len != b.len) return false;",
		"array keys = map_keys(&a);",
		"if (!map_exists(&b, k)) return false;",
		"if (!(av == bv)) return false;")
}

func TestSumTypeEqualityComparesTag(t *testing.T) {
	out := gen(t, `module main
struct Circle {
	r int
}
struct Square {
	s int
}
type Shape = Circle | Square
fn same(a Shape, b Shape) bool {
	return a == b
}
`)
	wantContains(t, out,
		"if (a._tag != b._tag) return false;",
		"case 0: {",
		"return Circle__eq(av, bv);",
		"return Square__eq(av, bv);")
}

func TestAliasEqualityDelegatesToParent(t *testing.T) {
	out := gen(t, `module main
struct Point {
	x int
}
type Origin = Point
fn same(a Origin, b Origin) bool {
	return a == b
}
`)
	// the alias reuses the parent's generated function
	wantContains(t, out, "Point__eq(a, b)")
	wantNotContains(t, out, "Origin__eq")
}

func TestEqOverrideDelegates(t *testing.T) {
	tab, files := compile(t, `module main
struct Version {
	major int
	minor int
}
fn (v Version) eq(o Version) bool {
	return v.major == o.major
}
fn same(a Version, b Version) bool {
	return a == b
}
`)
	typ, ok := tab.Find("Version")
	if !ok {
		t.Fatal("Version not registered")
	}
	tab.Get(typ).Info.(*symbols.StructInfo).HasEqOverride = true
	out, err := New(tab, pref.Default()).Generate(files)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	wantContains(t, out,
		"static bool Version__eq(Version a, Version b) {",
		"return Version_eq(a, b);")
	wantNotContains(t, out, "a.minor == b.minor")
}

func TestFixedArrayEqualityUnrollsLength(t *testing.T) {
	out := gen(t, `module main
fn same(a [4]int, b [4]int) bool {
	return a == b
}
`)
	wantContains(t, out,
		"for (int i = 0; i < 4; i++) {",
		"if (!(a[i] == b[i])) return false;")
}
