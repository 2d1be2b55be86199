package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

const pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

type SupabaseStorage struct {
	client     *storage.Client
	baseURL    string
	httpClient *http.Client
}

func NewSupabaseStorage(supabaseURL, supabaseKey string) (*SupabaseStorage, error) {
	if supabaseURL == "" || supabaseKey == "" {
		return nil, fmt.Errorf("supabase credentials not set")
	}

	client := storage.NewClient(strings.TrimSuffix(supabaseURL, "/")+"/storage/v1", supabaseKey, nil)

	return &SupabaseStorage{
		client:     client,
		baseURL:    supabaseURL,
		httpClient: &http.Client{},
	}, nil
}

func (s *SupabaseStorage) UploadFile(filePath, bucketName, fileName string) (string, error) {
	fileContent, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	log.Println("upload our file:", bucketName, fileName)

	contentType := detectContentType(fileName)

	_, err = s.client.UploadFile(
		bucketName,
		fileName,
		bytes.NewReader(fileContent),
		storage.FileOptions{ContentType: &contentType},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return publicURL(s.baseURL, bucketName, fileName), nil
}

func (s *SupabaseStorage) DownloadFile(ctx context.Context, url string, destPath string) error {
	return downloadFile(ctx, s.httpClient, url, destPath)
}

func downloadFile(ctx context.Context, client *http.Client, url string, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download file, status: %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	if _, err = io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}

	return nil
}

func publicURL(baseURL, bucketName, fileName string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		strings.TrimSuffix(baseURL, "/"),
		bucketName,
		strings.TrimPrefix(fileName, "/"))
}

func detectContentType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == ".pptx" {
		return pptxContentType
	}
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}
