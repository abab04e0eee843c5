package pathcache

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeExecutable(t *testing.T, dir, name string) {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestBuildFirstOccurrenceWins(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("exec-bit semantics are POSIX-specific")
	}
	d1, d2 := t.TempDir(), t.TempDir()
	writeExecutable(t, d1, "tool")
	writeExecutable(t, d2, "tool")

	c := Build(d1 + ":" + d2)
	got, ok := c.Lookup("tool")
	if !ok {
		t.Fatal("expected tool to be found")
	}
	if want := filepath.Join(d1, "tool"); got != want {
		t.Errorf("got %q, want %q (first directory should win)", got, want)
	}
}

func TestBuildSkipsNonExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("exec-bit semantics are POSIX-specific")
	}
	dir := t.TempDir()
	p := filepath.Join(dir, "data.txt")
	if err := os.WriteFile(p, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := Build(dir)
	if _, ok := c.Lookup("data.txt"); ok {
		t.Error("non-executable file should not be in cache")
	}
}

func TestBuildSkipsMissingDirs(t *testing.T) {
	c := Build("/nonexistent/one:/nonexistent/two")
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
}

func TestBuildEmptyPath(t *testing.T) {
	c := Build("")
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
}
