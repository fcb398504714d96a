package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "cats/grumpy.jpg", want: "cats/grumpy.jpg"},
		{key: "/cats/../dogs/a.png", want: "dogs/a.png"},
		{key: `cats\grumpy.jpg`, want: "cats/grumpy.jpg"},
		{key: "./a.png", want: "a.png"},
		{key: "../secret", wantErr: true},
		{key: "..", wantErr: true},
		{key: "  ", wantErr: true},
	}
	for _, tt := range tests {
		got, err := sanitizeKey(tt.key)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("sanitizeKey(%q) = %q, want error", tt.key, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("sanitizeKey(%q) returned error: %v", tt.key, err)
		}
		if got != tt.want {
			t.Fatalf("sanitizeKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestFileStoreReadAndList(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "cats"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cats", "grumpy.jpg"), []byte{0xFF, 0xD8, 0xFF}, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := NewFileStore(dir, 0)
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}

	data, err := store.Read(context.Background(), "cats/grumpy.jpg")
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if len(data) != 3 {
		t.Fatalf("len(data) = %d, want 3", len(data))
	}

	entries, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].Key != "cats/grumpy.jpg" {
		t.Fatalf("entries = %#v", entries)
	}

	if _, err := store.Read(context.Background(), "missing.png"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFileStoreReadEnforcesLimit(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "big.png"), make([]byte, 64), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := NewFileStore(dir, 16)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Read(context.Background(), "big.png"); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
}
