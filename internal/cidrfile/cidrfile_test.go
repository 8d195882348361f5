package cidrfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSkipsMalformedAndBlankLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cidrs.txt")
	content := "1.0.0.0/8\n\n  \nnot-a-cidr\n10.0.0.0/24\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"1.0.0.0/8", "10.0.0.0/24"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
