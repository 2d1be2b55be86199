package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"sales-deck-generator/internal/model"
)

type recordingStorage struct {
	uploaded   string
	bucket     string
	objectName string
	uploadErr  error
}

func (r *recordingStorage) UploadFile(filePath, bucketName, fileName string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	r.uploaded = string(data)
	r.bucket = bucketName
	r.objectName = fileName
	if r.uploadErr != nil {
		return "", r.uploadErr
	}
	return publicURL("https://proj.supabase.co", bucketName, fileName), nil
}

func (r *recordingStorage) DownloadFile(ctx context.Context, url string, destPath string) error {
	return downloadFile(ctx, http.DefaultClient, url, destPath)
}

func TestArchiveCopiesDeck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/download/abc123" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("PK deck bytes"))
	}))
	defer srv.Close()

	rs := &recordingStorage{}
	a := NewArchiver(rs, "sales-decks")
	result := &model.GenerationResult{FileID: "abc123", Filename: "sales_deck_Acme_abc123.pptx"}

	url, err := a.Archive(context.Background(), result, srv.URL+"/download/abc123")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if rs.uploaded != "PK deck bytes" {
		t.Fatalf("uploaded %q", rs.uploaded)
	}
	if rs.bucket != "sales-decks" || rs.objectName != "decks/abc123/sales_deck_Acme_abc123.pptx" {
		t.Fatalf("stored as %s/%s", rs.bucket, rs.objectName)
	}
	want := "https://proj.supabase.co/storage/v1/object/public/sales-decks/decks/abc123/sales_deck_Acme_abc123.pptx"
	if url != want {
		t.Fatalf("url = %q", url)
	}
}

func TestArchiveExpiredDeck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	a := NewArchiver(&recordingStorage{}, "sales-decks")
	_, err := a.Archive(context.Background(), &model.GenerationResult{FileID: "old"}, srv.URL+"/download/old")
	if err == nil || !strings.Contains(err.Error(), "status: 410") {
		t.Fatalf("got %v", err)
	}
}

func TestArchiveWithoutResult(t *testing.T) {
	a := NewArchiver(&recordingStorage{}, "sales-decks")
	if _, err := a.Archive(context.Background(), nil, ""); err == nil {
		t.Fatal("expected error")
	}
}

func TestDetectContentType(t *testing.T) {
	if got := detectContentType("deck.PPTX"); got != pptxContentType {
		t.Fatalf("pptx: %q", got)
	}
	if got := detectContentType("noext"); got != "application/octet-stream" {
		t.Fatalf("noext: %q", got)
	}
}

func TestNewSupabaseStorageRequiresCredentials(t *testing.T) {
	if _, err := NewSupabaseStorage("", "key"); err == nil {
		t.Fatal("expected error without URL")
	}
	if _, err := NewSupabaseStorage("https://proj.supabase.co", "key"); err != nil {
		t.Fatal(err)
	}
}
