package main

import (
	"testing"

	"veld/internal/pref"
)

func TestParseBackend(t *testing.T) {
	cases := []struct {
		in   string
		want pref.Backend
		ok   bool
	}{
		{"c", pref.BackendC, true},
		{"JS", pref.BackendJS, true},
		{"native", pref.BackendNative, true},
		{"llvm", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := parseBackend(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("parseBackend(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Errorf("parseBackend(%q) should fail", tc.in)
		}
	}
}

func TestDefaultOutputName(t *testing.T) {
	if got := defaultOutputName("src/main.vd", pref.BackendC); got != "main.c" {
		t.Errorf("c output = %q", got)
	}
	if got := defaultOutputName("main.vd", pref.BackendJS); got != "main.js" {
		t.Errorf("js output = %q", got)
	}
	if got := defaultOutputName("main.vd", pref.BackendNative); got != "main.bin" {
		t.Errorf("native output = %q", got)
	}
}
