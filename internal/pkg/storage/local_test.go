package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStoragePutExists(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "http://localhost:8080/files/")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := context.Background()
	key := "reports/partner-1/sales.csv"
	body := "id,amount\n1,10.00\n"

	if err := s.Put(ctx, key, strings.NewReader(body), int64(len(body)), "text/csv"); err != nil {
		t.Fatalf("put: %v", err)
	}

	ok, err := s.Exists(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected object to exist: ok=%v err=%v", ok, err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "reports", "partner-1", "sales.csv"))
	if string(data) != body {
		t.Fatalf("unexpected content %q", data)
	}

	if got := s.URL(key); got != "http://localhost:8080/files/reports/partner-1/sales.csv" {
		t.Fatalf("unexpected url %s", got)
	}
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	s, _ := NewLocalStorage(t.TempDir(), "")
	if err := s.Put(context.Background(), "../escape.csv", strings.NewReader("x"), 1, "text/csv"); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
}

func TestLocalStorageMissing(t *testing.T) {
	s, _ := NewLocalStorage(t.TempDir(), "")
	ok, err := s.Exists(context.Background(), "nope.csv")
	if err != nil || ok {
		t.Fatalf("expected missing object, ok=%v err=%v", ok, err)
	}
}
