package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNormalizeSource(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://example.com/products/123?query=test#section", "https://example.com/products/123"},
		{"http://localhost:3000/app/", "http://localhost:3000/app"},
		{"https://example.com", "https://example.com/"},
		{"https://example.com/", "https://example.com/"},
		{"/srv/site/index.html", "/srv/site/index.html"},
		{"/srv/site/../site/index.html", "/srv/site/index.html"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeSource(tt.input); got != tt.expected {
				t.Errorf("NormalizeSource(%q) = %q; want %q", tt.input, got, tt.expected)
			}
		})
	}

	// Relative paths resolve against the working directory.
	cwd, _ := os.Getwd()
	if got := NormalizeSource("page.html"); got != filepath.Join(cwd, "page.html") {
		t.Errorf("relative path = %q", got)
	}
}

func TestHashKey(t *testing.T) {
	a := HashKey("https://example.com/")
	if a != HashKey("https://example.com/") {
		t.Error("HashKey not consistent")
	}
	if a == HashKey("https://example.com/other") {
		t.Error("HashKey collision")
	}
	if len(a) != 16 {
		t.Errorf("HashKey length = %d; want 16", len(a))
	}
}

func TestStore_PutAndGet(t *testing.T) {
	s := New(t.TempDir())

	err := s.Put(View{
		Source: "https://example.com/page?x=1",
		Matrix: [6]float64{2, 0, 0, 2, 10, -10},
	})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Same page, different query.
	v, err := s.Get("https://example.com/page#top")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v.Matrix != [6]float64{2, 0, 0, 2, 10, -10} {
		t.Errorf("Matrix = %v", v.Matrix)
	}
	if v.Source != "https://example.com/page" || v.Version != 1 {
		t.Errorf("view = %+v", v)
	}
}

func TestStore_PutKeepsCreatedAt(t *testing.T) {
	s := New(t.TempDir())

	if err := s.Put(View{Source: "/tmp/a.html", Matrix: [6]float64{1, 0, 0, 1, 0, 0}}); err != nil {
		t.Fatal(err)
	}
	first, _ := s.Get("/tmp/a.html")

	time.Sleep(10 * time.Millisecond)
	if err := s.Put(View{Source: "/tmp/a.html", Matrix: [6]float64{3, 0, 0, 3, 0, 0}}); err != nil {
		t.Fatal(err)
	}
	second, _ := s.Get("/tmp/a.html")

	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Error("UpdatedAt not advanced")
	}
	if second.Matrix[0] != 3 {
		t.Errorf("second = %+v", second)
	}
}

func TestStore_DeleteAndList(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	if _, err := s.Get("/tmp/missing.html"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing: %v; want ErrNotFound", err)
	}
	if got, err := s.List(); err != nil || len(got) != 0 {
		t.Errorf("List on empty store = %v, %v", got, err)
	}

	for _, src := range []string{"/tmp/b.html", "/tmp/a.html"} {
		if err := s.Put(View{Source: src}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.List()
	if err != nil || len(got) != 2 || got[0] != "/tmp/a.html" {
		t.Errorf("List = %v, %v", got, err)
	}

	if err := s.Delete("/tmp/a.html"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete("/tmp/a.html"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: %v; want ErrNotFound", err)
	}

	// Stray files in the directory are ignored.
	os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0644)
	if got, _ := s.List(); len(got) != 1 {
		t.Errorf("List after delete = %v", got)
	}
}

func TestStore_PutRequiresSource(t *testing.T) {
	if err := New(t.TempDir()).Put(View{}); err == nil {
		t.Error("Put without source should fail")
	}
}

func TestStore_CorruptFile(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Put(View{Source: "/tmp/c.html"}); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(s.path("/tmp/c.html"), []byte("{"), 0644)
	if _, err := s.Get("/tmp/c.html"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("corrupt file err = %v", err)
	}
}
