package storage_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nvalera/contourcad/internal/adapters/storage"
)

func TestUpload(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(200)
	}))
	defer srv.Close()

	sink := storage.NewSupabaseSink(srv.URL, "secret-key", "dxf-files")
	path, err := sink.Upload(context.Background(), "site.dxf", []byte("0\nSECTION\n"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if path != "dxf-files/site.dxf" {
		t.Errorf("path = %q, want dxf-files/site.dxf", path)
	}
	if gotPath != "/storage/v1/object/dxf-files/site.dxf" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if string(gotBody) != "0\nSECTION\n" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestUploadRejectsEmptyDocument(t *testing.T) {
	sink := storage.NewSupabaseSink("http://unused", "k", "b")
	if _, err := sink.Upload(context.Background(), "empty.dxf", nil); err == nil {
		t.Fatal("empty document accepted")
	}
}

func TestUploadFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bucket not found", 404)
	}))
	defer srv.Close()

	sink := storage.NewSupabaseSink(srv.URL, "k", "missing")
	if _, err := sink.Upload(context.Background(), "x.dxf", []byte("data")); err == nil {
		t.Fatal("non-2xx status accepted")
	}
}
