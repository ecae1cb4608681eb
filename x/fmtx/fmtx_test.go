package fmtx

import (
	"bytes"
	"errors"
	"testing"
)

func TestSprintfVerbs(t *testing.T) {
	type C struct {
		fmt  string
		args []any
		want string
	}
	for _, c := range []C{
		{"hello %s", []any{"world"}, "hello world"},
		{"n=%d", []any{255}, "n=255"},
		{"bool %t %t", []any{true, false}, "bool true false"},
		{"literal %%", nil, "literal %"},
		{"q=%q", []any{"a\"b\\c"}, `q="a\"b\\c"`},
		{"v=%v", []any{123}, "v=123"},
		{"trim: %.3s", []any{"abcdef"}, "trim: abc"},
		{"t=%.2f", []any{21.456}, "t=21.46"},
	} {
		got := Sprintf(c.fmt, c.args...)
		if got != c.want {
			t.Fatalf("Sprintf(%q, ...) = %q, want %q", c.fmt, got, c.want)
		}
	}
}

func TestPrintfUsesDefaultOutput(t *testing.T) {
	var buf bytes.Buffer
	old := DefaultOutput
	DefaultOutput = &buf
	t.Cleanup(func() { DefaultOutput = old })

	if _, err := Printf("v=%d", 7); err != nil {
		t.Fatalf("Printf error: %v", err)
	}
	if got, want := buf.String(), "v=7"; got != want {
		t.Fatalf("Printf wrote %q, want %q", got, want)
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	old := DefaultOutput
	DefaultOutput = &buf
	t.Cleanup(func() { DefaultOutput = old })

	l := Logger{Prefix: "sdlog"}
	l.Debugf("hidden %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("debug line written while not verbose: %q", buf.String())
	}
	l.Infof("flushed %d rows", 12)
	if got, want := buf.String(), "Info: sdlog: flushed 12 rows\n"; got != want {
		t.Fatalf("Infof wrote %q, want %q", got, want)
	}

	buf.Reset()
	l.Verbose = true
	l.Debugf("mounted")
	if got, want := buf.String(), "Debug: sdlog: mounted\n"; got != want {
		t.Fatalf("Debugf wrote %q, want %q", got, want)
	}
}

func TestErrorf(t *testing.T) {
	err := Errorf("bad %s: %d", "thing", 3)
	if err == nil {
		t.Fatalf("Errorf returned nil")
	}
	if err.Error() != "bad thing: 3" {
		t.Fatalf("Errorf string = %q, want %q", err.Error(), "bad thing: 3")
	}
	if !errors.Is(err, err) {
		t.Fatalf("errors.Is should be true on itself")
	}
}
