package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDownloadWritesFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("col1,col2\n1,2\n"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "data", "train.csv")
	f := New(5 * time.Second)

	cached, err := f.Download(context.Background(), server.URL, dest)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if cached {
		t.Error("first download must not report cached")
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "col1,col2\n1,2\n" {
		t.Errorf("unexpected file content: %q", data)
	}
}

func TestDownloadSkipsExistingFile(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("fresh"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "train.csv")
	if err := os.WriteFile(dest, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := New(5 * time.Second)
	cached, err := f.Download(context.Background(), server.URL, dest)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if !cached {
		t.Error("existing file must report cached")
	}
	if hits != 0 {
		t.Errorf("server should not be contacted, got %d hits", hits)
	}

	data, _ := os.ReadFile(dest)
	if string(data) != "existing" {
		t.Error("existing file was overwritten")
	}
}

func TestDownloadNon200RemovesFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "train.csv")
	f := New(5 * time.Second)

	if _, err := f.Download(context.Background(), server.URL, dest); err == nil {
		t.Fatal("expected error for 404 response")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("partial file should be removed after a failed download")
	}
}

func TestDownloadRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := New(5 * time.Second)
	if _, err := f.Download(ctx, server.URL, filepath.Join(t.TempDir(), "x.csv")); err == nil {
		t.Error("expected error when context deadline expires")
	}
}
