package source

import (
	"testing"
)

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.vd", []byte("fn main() {\n\tx := 1\n}\n"))

	tests := []struct {
		off  uint32
		line uint32
		col  uint32
	}{
		{0, 1, 1},
		{3, 1, 4},
		{12, 2, 1},
		{13, 2, 2},
		{20, 3, 1},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start.Line != tt.line || start.Col != tt.col {
			t.Errorf("offset %d: got %d:%d, want %d:%d", tt.off, start.Line, start.Col, tt.line, tt.col)
		}
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.vd", []byte("one\ntwo\nthree"))
	f := fs.Get(id)

	if got := f.GetLine(2); got != "two" {
		t.Errorf("line 2 = %q, want %q", got, "two")
	}
	if got := f.GetLine(3); got != "three" {
		t.Errorf("line 3 = %q, want %q", got, "three")
	}
	if got := f.GetLine(4); got != "" {
		t.Errorf("line 4 = %q, want empty", got)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	c := a.Cover(b)
	if c.Start != 2 || c.End != 8 {
		t.Errorf("cover = %v", c)
	}
	// Different file: unchanged.
	d := a.Cover(Span{File: 2, Start: 0, End: 100})
	if d != a {
		t.Errorf("cross-file cover changed span: %v", d)
	}
}

func TestInternerStableIDs(t *testing.T) {
	in := NewInterner()
	a := in.Intern("main")
	b := in.Intern("exit")
	if a == b {
		t.Fatal("distinct strings share an ID")
	}
	if in.Intern("main") != a {
		t.Error("re-interning changed the ID")
	}
	if in.MustLookup(a) != "main" {
		t.Error("lookup mismatch")
	}
}

func TestNormalizeCRLF(t *testing.T) {
	fs := NewFileSet()
	id := fs.Add("crlf.vd", []byte("a\nb"), 0)
	_ = id
	got, changed := normalizeCRLF([]byte("a\r\nb\rc"))
	if !changed || string(got) != "a\nb\rc" {
		t.Errorf("normalizeCRLF = %q changed=%v", got, changed)
	}
}
