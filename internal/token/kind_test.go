package token

import "testing"

func TestKindStrings(t *testing.T) {
	for k := Invalid; k < kindCount; k++ {
		if k.String() == "unknown" {
			t.Errorf("kind %d has no name", k)
		}
	}
}

func TestLookupKeyword(t *testing.T) {
	if k, ok := LookupKeyword("fn"); !ok || k != KwFn {
		t.Errorf("fn -> %v %v", k, ok)
	}
	if _, ok := LookupKeyword("Fn"); ok {
		t.Error("keywords must be case-sensitive")
	}
	if _, ok := LookupKeyword("volatile"); ok {
		t.Error("volatile is not a keyword (asm modifier is matched by text)")
	}
}

func TestIsAssign(t *testing.T) {
	for _, k := range []Kind{Assign, ColonAssign, PlusAssign, ShrAssign} {
		if !k.IsAssign() {
			t.Errorf("%v not recognized as assignment", k)
		}
	}
	if EqEq.IsAssign() {
		t.Error("== is not an assignment")
	}
}
