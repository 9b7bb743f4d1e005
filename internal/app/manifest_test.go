package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSHA256Hex(t *testing.T) {
	p := filepath.Join(t.TempDir(), "xx.strings")
	if err := os.WriteFile(p, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := fileSHA256Hex(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("sha256 mismatch: got %s want %s", got, want)
	}
	if _, err := fileSHA256Hex(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
