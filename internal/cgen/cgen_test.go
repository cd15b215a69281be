package cgen

import (
	"strings"
	"testing"

	"veld/internal/ast"
	"veld/internal/diag"
	"veld/internal/parser"
	"veld/internal/pref"
	"veld/internal/source"
	"veld/internal/symbols"
)

func compile(t *testing.T, src string) (*symbols.Table, []*ast.File) {
	t.Helper()
	fset := source.NewFileSet()
	tab := symbols.NewTable()
	bag := diag.NewBag(100)
	f, err := parser.ParseText(fset, "main.vd", []byte(src), parser.Options{
		Prefs:    pref.CheckOnly(),
		Table:    tab,
		Reporter: diag.BagReporter{Bag: bag},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if bag.HasErrors() {
		t.Fatalf("parse errors: %+v", bag.Items())
	}
	return tab, []*ast.File{f}
}

// gen lowers src and returns the C output. The used-set is left empty so
// every declaration is emitted.
func gen(t *testing.T, src string) string {
	t.Helper()
	tab, files := compile(t, src)
	out, err := New(tab, pref.Default()).Generate(files)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return out
}

func wantContains(t *testing.T, out string, subs ...string) {
	t.Helper()
	for _, sub := range subs {
		if !strings.Contains(out, sub) {
			t.Errorf("output missing %q\n%s", sub, out)
		}
	}
}

func wantNotContains(t *testing.T, out string, subs ...string) {
	t.Helper()
	for _, sub := range subs {
		if strings.Contains(out, sub) {
			t.Errorf("output unexpectedly contains %q", sub)
		}
	}
}

func TestFnSignature(t *testing.T) {
	out := gen(t, `module main
fn add(a int, b int) int {
	return a + b
}
`)
	wantContains(t, out,
		"int add(int a, int b) {",
		"return (a + b);")
}

func TestMainReturnsInt(t *testing.T) {
	out := gen(t, `module main
fn main() {
	println('hi')
}
`)
	wantContains(t, out,
		"int main(int argc, char** argv) {",
		`println(_SLIT("hi"))`,
		"return 0;")
}

func TestModuleMangling(t *testing.T) {
	out := gen(t, `module math
fn square(x int) int {
	return x * x
}
`)
	wantContains(t, out, "int math__square(int x) {")
}

func TestUsedSetFiltersFunctions(t *testing.T) {
	tab, files := compile(t, `module main
fn main() {
	alive()
}
fn alive() {
}
fn dead() {
}
`)
	tab.UsedFns["main.main"] = true
	tab.UsedFns["main.alive"] = true
	out, err := New(tab, pref.Default()).Generate(files)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	wantContains(t, out, "void alive(void)")
	wantNotContains(t, out, "void dead(void)")
}

func TestMethodLowering(t *testing.T) {
	out := gen(t, `module main
struct Point {
	x int
	y int
}
fn (p Point) norm() int {
	return p.x * p.x + p.y * p.y
}
`)
	wantContains(t, out,
		"typedef struct Point Point;",
		"int Point_norm(Point p) {",
		"p.x")
}

func TestStructLiteralZeroFill(t *testing.T) {
	out := gen(t, `module main
struct Point {
	x int
	y int
}
fn origin() Point {
	return Point{x: 1}
}
`)
	wantContains(t, out, ".x = 1", ".y = 0")
}

func TestRefStructLiteralHeapifies(t *testing.T) {
	out := gen(t, `module main
struct Node {
	value int
}
fn make() {
	n := &Node{value: 3}
	println('${n.value}')
}
`)
	wantContains(t, out,
		"memdup(",
		"Node* n = ",
		"n->value")
}

func TestEnumLowering(t *testing.T) {
	out := gen(t, `module main
enum Color {
	red
	green
}
fn pick() Color {
	return Color.green
}
`)
	wantContains(t, out, "Color__red,", "return Color__green;")
}

func TestStringOps(t *testing.T) {
	out := gen(t, `module main
fn greet(name string) bool {
	full := 'hello ' + name
	return full == 'hello world'
}
`)
	wantContains(t, out,
		`string_concat(_SLIT("hello "), name)`,
		`string_eq(full, _SLIT("hello world"))`)
}

func TestInterpolationLowering(t *testing.T) {
	out := gen(t, `module main
fn show(n int, s string) {
	println('n=${n} s=${s}!')
}
`)
	wantContains(t, out,
		"str_intp(",
		`_SLIT("n=")`,
		"int_str((int64_t)(n))",
		`_SLIT(" s=")`,
		`_SLIT("!")`)
}

func TestForInRange(t *testing.T) {
	out := gen(t, `module main
fn count() {
	for i in 0..10 {
		println('${i}')
	}
}
`)
	wantContains(t, out, "for (int i = 0; i < 10; i++) {")
}

func TestForInArray(t *testing.T) {
	out := gen(t, `module main
fn sum(nums []int) int {
	total := 0
	for n in nums {
		total += n
	}
	return total
}
`)
	wantContains(t, out,
		"for (int",
		"< nums.len;",
		"int n = ((int*)nums.data)[")
}

func TestLabeledLoopBranches(t *testing.T) {
	out := gen(t, `module main
fn scan() {
	outer: for i in 0..3 {
		for j in 0..3 {
			if j == 2 {
				continue outer
			}
			if i == 2 {
				break outer
			}
		}
	}
}
`)
	wantContains(t, out,
		"goto outer__continue;",
		"goto outer__break;",
		"outer__continue: {}",
		"outer__break: {}")
}

func TestMapIndexing(t *testing.T) {
	out := gen(t, `module main
fn lookup(ages map[string]int, key string) int {
	return ages[key]
}
`)
	wantContains(t, out, "(*(int*)map_get(&ages, key))")
}

func TestMapAssignUsesMapSet(t *testing.T) {
	out := gen(t, `module main
fn store(mut ages map[string]int) {
	ages['bob'] = 7
}
`)
	wantContains(t, out, `map_set(&ages, _SLIT("bob"), &(int[]){7});`)
}

func TestMapLiteral(t *testing.T) {
	out := gen(t, `module main
fn build() {
	m := {'a': 1, 'b': 2}
	println('${m['a']}')
}
`)
	wantContains(t, out,
		"new_map(sizeof(string), sizeof(int));",
		`map_set(&_m1, _SLIT("a"), &(int[]){1});`)
}

func TestMatchValueLowering(t *testing.T) {
	out := gen(t, `module main
fn describe(n int) string {
	return match n {
		0 { 'zero' }
		1, 2 { 'small' }
		else { 'big' }
	}
}
`)
	wantContains(t, out,
		"int _mc1 = n;",
		"if (_mc1 == 0) {",
		"_mc1 == 1 || _mc1 == 2",
		"else {")
}

func TestDeferRunsBeforeReturn(t *testing.T) {
	out := gen(t, `module main
fn work() int {
	defer {
		cleanup()
	}
	return 1
}
fn cleanup() {
}
`)
	idx := strings.Index(out, "cleanup();")
	ret := strings.Index(out, "return 1;")
	if idx < 0 || ret < 0 || idx > ret {
		t.Fatalf("defer body must be emitted before the return:\n%s", out)
	}
}

func TestAssertLowering(t *testing.T) {
	out := gen(t, `module main
fn check(n int) {
	assert n > 0
}
`)
	wantContains(t, out, "if (!((n > 0))) {", "assert_fail(")
}

func TestAsmOperandSections(t *testing.T) {
	out := gen(t, `module main
fn mix(a int, b int) int {
	x := 0
	asm amd64 {
		add eax, ebx
		; =r (x) as o
		; r (a) as ia
		  r (b) as ib
		; ecx
	}
	return x
}
`)
	wantContains(t, out,
		"__asm__ volatile (",
		`"add eax, ebx\n"`,
		`: [o] "=r" (x)`,
		`: [ia] "r" (a), [ib] "r" (b)`,
		`: "ecx"`)
}

func TestAsmClobberOnlyKeepsEmptySections(t *testing.T) {
	out := gen(t, `module main
fn pause() {
	asm amd64 {
		nop
		; ; ; ecx
	}
}
`)
	wantContains(t, out,
		`"nop\n"`,
		`: "ecx"`)
}

func TestScriptModeWrapsMain(t *testing.T) {
	out := gen(t, `module main
println('hi')
`)
	wantContains(t, out, "int main(int argc, char** argv) {", `println(_SLIT("hi"))`)
}

func TestCastLowering(t *testing.T) {
	out := gen(t, `module main
fn narrow(n int) u8 {
	return u8(n)
}
`)
	wantContains(t, out, "((uint8_t)(n))")
}

func TestConstEmission(t *testing.T) {
	out := gen(t, `module main
const (
	max_retries = 3
)
fn main() {
	println('${max_retries}')
}
`)
	wantContains(t, out, "static const int _const_max_retries = 3;")
}

func TestAnonFnIsLifted(t *testing.T) {
	out := gen(t, `module main
fn main() {
	f := fn (x int) int {
		return x + 1
	}
}
`)
	wantContains(t, out, "static int _anon1(int x) {", "return (x + 1);")
}
