package diag

import (
	"testing"

	"veld/internal/source"
)

func TestBagLimit(t *testing.T) {
	b := NewBag(3)
	for i := 0; i < 5; i++ {
		added := b.Add(Diagnostic{Severity: SevError, Code: SynUnexpectedToken})
		if i < 3 && !added {
			t.Fatalf("add %d refused below the limit", i)
		}
		if i >= 3 && added {
			t.Fatalf("add %d accepted above the limit", i)
		}
	}
	if b.Len() != 3 {
		t.Errorf("len = %d, want 3", b.Len())
	}
	if !b.Full() {
		t.Error("bag should report full")
	}
}

func TestBagSortStable(t *testing.T) {
	b := NewBag(10)
	b.Add(Diagnostic{Primary: source.Span{File: 1, Start: 20}, Severity: SevWarning, Code: SynExpectSemicolon})
	b.Add(Diagnostic{Primary: source.Span{File: 0, Start: 5}, Severity: SevError, Code: SynUnexpectedToken})
	b.Add(Diagnostic{Primary: source.Span{File: 0, Start: 5}, Severity: SevWarning, Code: StyleConstUpper})
	b.Sort()

	items := b.Items()
	if items[0].Code != SynUnexpectedToken {
		t.Errorf("first after sort = %v", items[0].Code)
	}
	if items[2].Primary.File != 1 {
		t.Errorf("last after sort should be file 1, got %v", items[2].Primary)
	}
}

func TestCodeIDs(t *testing.T) {
	tests := []struct {
		code Code
		id   string
	}{
		{LexUnknownChar, "LEX1001"},
		{SynUnexpectedToken, "SYN2001"},
		{RegTypeCollision, "REG3002"},
		{GenUnsupported, "GEN5001"},
		{IntRunawayLoop, "INT6001"},
	}
	for _, tt := range tests {
		if got := tt.code.ID(); got != tt.id {
			t.Errorf("%v.ID() = %q, want %q", tt.code, got, tt.id)
		}
	}
	if !IntUnreachable.IsInternal() || GenUnsupported.IsInternal() {
		t.Error("internal code classification wrong")
	}
}
