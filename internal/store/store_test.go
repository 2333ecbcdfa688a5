package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenFile_MissingFileYieldsEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "documents.json")
	s, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	if _, ok := s.Get("session_1"); ok {
		t.Fatalf("expected empty store")
	}
}

func TestFileStore_SetPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.json")

	s, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	if err := s.Set("session_1", "doc_a"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set("session_2", "doc_b"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	reopened, err := OpenFile(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if got, ok := reopened.Get("session_1"); !ok || got != "doc_a" {
		t.Fatalf("session_1 = %q ok=%v, want doc_a", got, ok)
	}
	if got, ok := reopened.Get("session_2"); !ok || got != "doc_b" {
		t.Fatalf("session_2 = %q ok=%v, want doc_b", got, ok)
	}
}

func TestFileStore_SetOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.json")
	s, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	if err := s.Set("session_1", "doc_old"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set("session_1", "doc_new"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got, _ := s.Get("session_1"); got != "doc_new" {
		t.Fatalf("expected overwrite, got %q", got)
	}
}

func TestOpenFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := OpenFile(path); err == nil {
		t.Fatalf("expected an error for a corrupt store file")
	}
}
