package cgen

import (
	"strings"
	"testing"
)

func TestMapWithNamedCallback(t *testing.T) {
	out := gen(t, `module main
fn double(x int) int {
	return x * 2
}
fn run(nums []int) []int {
	return nums.map(double)
}
`)
	wantContains(t, out,
		"array _src1 = nums;",
		"new_array_noscan(0, _src1.len, sizeof(int));",
		"int it = ((int*)_src1.data)[",
		"double(it)",
		"array_push(&")
}

func TestMapWithAnonCallback(t *testing.T) {
	out := gen(t, `module main
fn run(nums []int) []int {
	return nums.map(fn (x int) int {
		return x + 1
	})
}
`)
	wantContains(t, out,
		"static int _anon",
		"(it)")
}

func TestMapWithMethodValue(t *testing.T) {
	out := gen(t, `module main
struct Point {
	x int
}
fn (p Point) flat() int {
	return p.x
}
fn run(points []Point) []int {
	return points.map(Point.flat)
}
`)
	wantContains(t, out, "Point_flat(it)")
}

func TestMapWithInlineExpression(t *testing.T) {
	out := gen(t, `module main
fn run(nums []int) []int {
	return nums.map(it * it)
}
`)
	wantContains(t, out, "(it * it);")
}

func TestMapCallbackChangesElementType(t *testing.T) {
	out := gen(t, `module main
fn name_of(x int) string {
	return 'n'
}
fn run(nums []int) []string {
	return nums.map(name_of)
}
`)
	// result element is string, which carries pointers: no noscan variant
	wantContains(t, out, "new_array(0, _src1.len, sizeof(string));")
	wantNotContains(t, out, "new_array_noscan(0, _src1.len, sizeof(string))")
}

func TestFilterKeepsElementType(t *testing.T) {
	out := gen(t, `module main
fn run(nums []int) []int {
	return nums.filter(it > 0)
}
`)
	wantContains(t, out,
		"if ((it > 0)) {",
		"array_push(&",
		"&it);")
}

func TestAnyShortCircuits(t *testing.T) {
	out := gen(t, `module main
fn has_neg(nums []int) bool {
	return nums.any(it < 0)
}
`)
	wantContains(t, out,
		"bool _res3 = false;",
		"if ((it < 0)) { _res3 = true; break; }")
}

func TestAllShortCircuits(t *testing.T) {
	out := gen(t, `module main
fn all_pos(nums []int) bool {
	return nums.all(it > 0)
}
`)
	wantContains(t, out,
		"bool _res3 = true;",
		"if (!((it > 0))) { _res3 = false; break; }")
}

func TestSortAscendingByField(t *testing.T) {
	out := gen(t, `module main
struct User {
	age int
}
fn run(users []User) []User {
	return users.sort(a.age < b.age)
}
`)
	wantContains(t, out,
		"static int _sort_cmp_User_age_asc(const void* pa, const void* pb) {",
		"if (a.age < b.age) return -1;",
		"if (b.age < a.age) return 1;",
		"array_clone(users);",
		"array_sort(&")
}

func TestSortDescendingByLeftParameter(t *testing.T) {
	// b on the left of < means descending order
	out := gen(t, `module main
struct User {
	age int
}
fn run(users []User) []User {
	return users.sort(b.age < a.age)
}
`)
	wantContains(t, out,
		"_sort_cmp_User_age_desc",
		"if (b.age < a.age) return -1;")
}

func TestSortGreaterFlipsDirection(t *testing.T) {
	// a.age > b.age is the same ordering as b.age < a.age
	out := gen(t, `module main
struct User {
	age int
}
fn run(users []User) []User {
	return users.sort(a.age > b.age)
}
`)
	wantContains(t, out, "_sort_cmp_User_age_desc")
}

func TestSortComparatorMemoized(t *testing.T) {
	out := gen(t, `module main
struct User {
	age int
}
fn run(users []User, more []User) {
	x := users.sort(a.age < b.age)
	y := more.sort(a.age < b.age)
}
`)
	if n := strings.Count(out, "static int _sort_cmp_User_age_asc"); n != 1 {
		t.Fatalf("comparator defined %d times, want exactly 1", n)
	}
	if n := strings.Count(out, "array_sort("); n != 2 {
		t.Fatalf("array_sort called %d times, want 2", n)
	}
}

func TestSortDefaultComparesValues(t *testing.T) {
	out := gen(t, `module main
fn run(nums []int) []int {
	return nums.sort()
}
`)
	wantContains(t, out,
		"_sort_cmp_int_asc",
		"if (a < b) return -1;")
}

func TestSortByStringFieldUsesStringCmp(t *testing.T) {
	out := gen(t, `module main
struct User {
	name string
}
fn run(users []User) []User {
	return users.sort(a.name < b.name)
}
`)
	wantContains(t, out, "return string_cmp(a.name, b.name);")
}

func TestSortNestedFieldPath(t *testing.T) {
	out := gen(t, `module main
struct Pos {
	x int
}
struct Unit {
	pos Pos
}
fn run(units []Unit) []Unit {
	return units.sort(a.pos.x < b.pos.x)
}
`)
	wantContains(t, out,
		"_sort_cmp_Unit_pos_x_asc",
		"if (a.pos.x < b.pos.x) return -1;")
}
