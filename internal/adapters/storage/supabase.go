// Package storage implements the object-storage upload sink against the
// Supabase Storage REST API.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SupabaseSink uploads documents to a Supabase Storage bucket. It implements
// ports.StorageSink; bucket lifecycle is out of scope.
type SupabaseSink struct {
	baseURL string
	apiKey  string
	bucket  string
	client  *http.Client
}

// NewSupabaseSink creates a sink for the given project URL, service key, and
// bucket name.
func NewSupabaseSink(baseURL, apiKey, bucket string) *SupabaseSink {
	return &SupabaseSink{
		baseURL: baseURL,
		apiKey:  apiKey,
		bucket:  bucket,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload stores data under the given object name and returns the stored
// path. Empty payloads are rejected: an empty file reaching storage would
// look like a successful export to downstream consumers.
func (s *SupabaseSink) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("refusing to upload empty document %q", name)
	}

	u := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload failed: status %d: %s", resp.StatusCode, string(body))
	}

	return s.bucket + "/" + name, nil
}
