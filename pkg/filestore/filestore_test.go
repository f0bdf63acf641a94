package filestore

import (
	"testing"
)

func TestAppendListPull(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	const path = "1234567890"

	if err := s.Append(path, "./hello.txt", []byte("Hi!")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := s.List(path)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "./hello.txt" {
		t.Fatalf("entries = %+v", entries)
	}

	content, err := s.Pull(path, "hello")
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if string(content) != "Hi!" {
		t.Fatalf("content = %q, want %q", content, "Hi!")
	}
}

func TestPullMissReturnsNotFound(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	const path = "1234567890"

	if err := s.Append(path, "./hello.txt", []byte("Hi!")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if _, err := s.Pull(path, "zzz"); err != ErrNotFound {
		t.Fatalf("Pull miss = %v, want ErrNotFound", err)
	}
}

func TestListOnMissingFileFails(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	if _, err := s.List("does-not-exist"); err == nil {
		t.Fatal("expected error listing a missing store")
	}
}

func TestPullFirstMatchWins(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	const path = "1234567890"

	s.Append(path, "notes-a.txt", []byte("first"))
	s.Append(path, "notes-b.txt", []byte("second"))

	content, err := s.Pull(path, "notes")
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if string(content) != "first" {
		t.Fatalf("content = %q, want %q (first appended match)", content, "first")
	}
}

func TestAppendOnlyNeverRewrites(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	const path = "1234567890"

	s.Append(path, "a.txt", []byte("1"))
	s.Append(path, "b.txt", []byte("22"))

	entries, err := s.List(path)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %+v, want 2 records", entries)
	}
}
