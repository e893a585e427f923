package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/avunu/commchat/internal/domain"
)

// uploadedFile is the host's file descriptor returned by upload_file.
type uploadedFile struct {
	Name     string `json:"name"`
	FileName string `json:"file_name"`
	FileURL  string `json:"file_url"`
	FileSize int64  `json:"file_size"`
	FileType string `json:"file_type"`
}

// UploadFile pushes an attachment through the host's multipart upload
// endpoint. This is a side channel, not a named procedure: files go to the
// host's document storage and only their descriptor travels with messages.
// Uploads are always private; docType/docName optionally attach the file to
// a host document.
func (c *Client) UploadFile(ctx context.Context, fileName string, content io.Reader, docType, docName string) (*domain.MessageFile, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("upload_file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("upload_file: read content: %w", err)
	}
	w.WriteField("is_private", "1")
	if docType != "" {
		w.WriteField("doctype", docType)
	}
	if docName != "" {
		w.WriteField("docname", docName)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("upload_file: %w", err)
	}

	endpoint := c.baseURL + "/api/method/upload_file"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("upload_file: build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload_file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("upload_file: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("upload_file: server error: %s", resp.Status)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ShapeError{Procedure: "upload_file", Reason: "response is not a JSON envelope"}
	}
	file, err := decode[uploadedFile]("upload_file", env.Message)
	if err != nil {
		return nil, err
	}
	if file.FileURL == "" {
		return nil, &ShapeError{Procedure: "upload_file", Reason: "missing file_url"}
	}

	name := file.FileName
	if name == "" {
		name = fileName
	}
	return &domain.MessageFile{
		Name:      name,
		Type:      file.FileType,
		Extension: strings.TrimPrefix(filepath.Ext(name), "."),
		URL:       c.baseURL + file.FileURL,
		Size:      file.FileSize,
	}, nil
}
