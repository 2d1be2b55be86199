package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"

	"sales-deck-generator/internal/model"
)

// Archiver copies finished decks out of the generation service, which only
// keeps them for an hour, into a storage bucket.
type Archiver struct {
	storage model.StorageService
	bucket  string
}

func NewArchiver(storage model.StorageService, bucket string) *Archiver {
	return &Archiver{storage: storage, bucket: bucket}
}

// Archive downloads the deck at downloadURL and uploads it under
// decks/<file id>/<filename>, returning the stored file's public URL.
func (a *Archiver) Archive(ctx context.Context, result *model.GenerationResult, downloadURL string) (string, error) {
	if result == nil || result.FileID == "" {
		return "", fmt.Errorf("no generated deck to archive")
	}

	tmpDir, err := os.MkdirTemp("", "deck-archive-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	name := filepath.Base(result.Filename)
	if name == "." || name == "/" || name == "" {
		name = result.FileID + ".pptx"
	}
	localPath := filepath.Join(tmpDir, name)

	if err := a.storage.DownloadFile(ctx, downloadURL, localPath); err != nil {
		return "", fmt.Errorf("failed to fetch deck %s: %w", result.FileID, err)
	}

	objectName := path.Join("decks", result.FileID, name)
	url, err := a.storage.UploadFile(localPath, a.bucket, objectName)
	if err != nil {
		return "", fmt.Errorf("failed to archive deck %s: %w", result.FileID, err)
	}

	log.Printf("Archived deck %s to %s", result.FileID, url)
	return url, nil
}
