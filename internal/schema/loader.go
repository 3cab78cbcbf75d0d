// Package schema loads the hosted backend's OpenAPI description and distills
// it into the operation/constraint shape the form definition builder
// consumes. Nothing outside internal ever sees kin-openapi types.
package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"
)

// LoaderOptions configures document fetching.
type LoaderOptions struct {
	// FileSystem backs fs sources. Required when loading SourceKindFS.
	FileSystem fs.FS
	// HTTPClient overrides the client used for URL sources.
	HTTPClient *http.Client
	// RequestTimeout bounds URL fetches when no client is supplied.
	RequestTimeout time.Duration
}

// Loader fetches raw schema documents from file, fs.FS, or HTTP sources.
type Loader struct {
	fs      fs.FS
	http    *http.Client
	timeout time.Duration
}

// NewLoader constructs a Loader from pre-resolved options.
func NewLoader(options LoaderOptions) *Loader {
	timeout := options.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := options.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}

	return &Loader{fs: options.FileSystem, http: client, timeout: timeout}
}

// Load fetches the document behind the source.
func (l *Loader) Load(ctx context.Context, src Source) ([]byte, error) {
	if src == nil {
		return nil, errors.New("schema loader: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch src.Kind() {
	case SourceKindFile:
		data, err := os.ReadFile(src.Location())
		if err != nil {
			return nil, fmt.Errorf("schema loader: read file: %w", err)
		}
		return data, nil
	case SourceKindFS:
		if l.fs == nil {
			return nil, errors.New("schema loader: fs source without a filesystem")
		}
		data, err := fs.ReadFile(l.fs, src.Location())
		if err != nil {
			return nil, fmt.Errorf("schema loader: read fs entry: %w", err)
		}
		return data, nil
	case SourceKindURL:
		return l.loadHTTP(ctx, src.Location())
	default:
		return nil, fmt.Errorf("schema loader: unsupported source kind %q", src.Kind())
	}
}

func (l *Loader) loadHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("schema loader: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml")

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("schema loader: fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("schema loader: fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("schema loader: read response: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("schema loader: empty document")
	}
	return data, nil
}
