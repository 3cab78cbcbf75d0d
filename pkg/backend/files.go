package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// File is one attachment queued for upload alongside a submission.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// FileRef is the stored location of an uploaded file, merged back into the
// record payload.
type FileRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ProgressFunc receives upload progress per file.
type ProgressFunc func(name string, sent, total int64)

// Uploader stores attachments and returns where they landed.
type Uploader interface {
	Upload(ctx context.Context, bucket string, file File, progress ProgressFunc) (FileRef, error)
}

// RESTUploader uploads files to the hosted platform's storage routes as
// multipart bodies.
type RESTUploader struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewRESTUploader builds an uploader against the storage API at baseURL.
func NewRESTUploader(baseURL, apiKey string, client *http.Client) *RESTUploader {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &RESTUploader{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    client,
	}
}

// progressReader reports bytes consumed from the wrapped reader.
type progressReader struct {
	inner    io.Reader
	name     string
	total    int64
	sent     int64
	progress ProgressFunc
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.inner.Read(p)
	if n > 0 {
		r.sent += int64(n)
		if r.progress != nil {
			r.progress(r.name, r.sent, r.total)
		}
	}
	return n, err
}

func (u *RESTUploader) Upload(ctx context.Context, bucket string, file File, progress ProgressFunc) (FileRef, error) {
	if file.Name == "" {
		return FileRef{}, fmt.Errorf("backend: upload: file has no name")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", file.Name)
	if err != nil {
		return FileRef{}, fmt.Errorf("backend: upload %s: %w", file.Name, err)
	}
	reader := &progressReader{inner: file.Content, name: file.Name, total: file.Size, progress: progress}
	if _, err := io.Copy(part, reader); err != nil {
		return FileRef{}, fmt.Errorf("backend: upload %s: %w", file.Name, err)
	}
	if err := writer.Close(); err != nil {
		return FileRef{}, fmt.Errorf("backend: upload %s: %w", file.Name, err)
	}

	target := u.baseURL + "/" + url.PathEscape(bucket) + "/" + url.PathEscape(file.Name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &body)
	if err != nil {
		return FileRef{}, fmt.Errorf("backend: upload %s: %w", file.Name, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if u.apiKey != "" {
		req.Header.Set("apikey", u.apiKey)
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.http.Do(req)
	if err != nil {
		return FileRef{}, fmt.Errorf("backend: upload %s: %w", file.Name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return FileRef{}, fmt.Errorf("backend: upload %s: read response: %w", file.Name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return FileRef{}, &APIError{Status: resp.StatusCode, Message: apiMessage(data)}
	}

	ref := FileRef{Name: file.Name, URL: target}
	var payload struct {
		URL string `json:"url"`
		Key string `json:"Key"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.URL != "" {
			ref.URL = payload.URL
		} else if payload.Key != "" {
			ref.URL = u.baseURL + "/" + payload.Key
		}
	}
	return ref, nil
}
