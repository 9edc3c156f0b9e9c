package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/councilworks/finance-portal/internal/application/port"
)

// RemoteFileStore implements port.FileStore against the external
// file-store service. Upload posts multipart content and returns the
// public URL the service assigns.
type RemoteFileStore struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewRemoteFileStore creates a new remote file store client.
func NewRemoteFileStore(baseURL string, timeout time.Duration, logger *zap.Logger) port.FileStore {
	return &RemoteFileStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload stores a file and returns its public URL.
func (s *RemoteFileStore) Upload(ctx context.Context, filename string, content []byte, mimeType string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("failed to write file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/files", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("File upload request failed",
			zap.String("filename", filename),
			zap.Error(err))
		return "", fmt.Errorf("file store upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Error("File store rejected upload",
			zap.String("filename", filename),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", payload))
		return "", fmt.Errorf("file store returned status %d", resp.StatusCode)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if parsed.URL == "" {
		return "", fmt.Errorf("file store returned empty url")
	}

	s.logger.Debug("File uploaded",
		zap.String("filename", filename),
		zap.String("url", parsed.URL),
		zap.Int("size", len(content)))

	return parsed.URL, nil
}

// Delete removes a stored file by its public URL. A missing file is
// treated as already deleted.
func (s *RemoteFileStore) Delete(ctx context.Context, publicURL string) error {
	if _, err := url.Parse(publicURL); err != nil {
		return fmt.Errorf("invalid file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, publicURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("File delete request failed",
			zap.String("url", publicURL),
			zap.Error(err))
		return fmt.Errorf("file store delete failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("file store returned status %d", resp.StatusCode)
	}
	return nil
}

// Verify interface compliance
var _ port.FileStore = (*RemoteFileStore)(nil)
