package cgen

import (
	"testing"
)

func TestInlineArrayLiteral(t *testing.T) {
	out := gen(t, `module main
fn run() {
	nums := [1, 2, 3]
}
`)
	wantContains(t, out,
		"new_array_from_c_array_noscan(3, 3, sizeof(int), _MOV((int[3]){1, 2, 3}))")
}

func TestInlineArrayOfStringsScans(t *testing.T) {
	// string elements carry pointers: the scanning allocator must be used
	out := gen(t, `module main
fn run() {
	names := ['ann', 'bob']
}
`)
	wantContains(t, out, "new_array_from_c_array(2, 2, sizeof(string)")
	wantNotContains(t, out, "new_array_from_c_array_noscan")
}

func TestSizedArrayWithDefault(t *testing.T) {
	out := gen(t, `module main
fn run() {
	zeros := []int{len: 5, init: 7}
}
`)
	wantContains(t, out,
		"new_array_with_default_noscan(5, 5, sizeof(int), &(int[]){7})")
}

func TestSizedArrayWithCap(t *testing.T) {
	out := gen(t, `module main
fn run() {
	buf := []int{len: 2, cap: 16}
}
`)
	wantContains(t, out, "new_array_noscan(2, 16, sizeof(int))")
}

func TestEmptyTypedArray(t *testing.T) {
	out := gen(t, `module main
fn run() {
	empty := []string{}
}
`)
	wantContains(t, out, "new_array(0, 0, sizeof(string))")
}

func TestFixedArrayLowersToAggregate(t *testing.T) {
	out := gen(t, `module main
fn run() {
	three := [3]int{}
}
`)
	wantContains(t, out, "((int[3]){0})")
	wantNotContains(t, out, "new_array")
}

func TestRefArrayHeapifies(t *testing.T) {
	out := gen(t, `module main
fn run() {
	heap := &[1, 2]
}
`)
	wantContains(t, out,
		"memdup(",
		"new_array_from_c_array_noscan(2, 2, sizeof(int)")
}

func TestSharedArrayWrapped(t *testing.T) {
	out := gen(t, `module main
fn run() {
	s := shared [1, 2]
}
`)
	wantContains(t, out, "new_shared_array(new_array_from_c_array_noscan(2, 2, sizeof(int)")
}

func TestNoscanFollowsStructFields(t *testing.T) {
	// a struct of plain ints is pointer-free, one holding a string is not
	out := gen(t, `module main
struct Flat {
	a int
	b f64
}
struct Boxed {
	name string
}
fn run() {
	flats := []Flat{len: 2}
	boxed := []Boxed{len: 2}
}
`)
	wantContains(t, out,
		"new_array_noscan(2, 2, sizeof(Flat))",
		"new_array(2, 2, sizeof(Boxed))")
}
