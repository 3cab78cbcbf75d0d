package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// REST is a Client over a PostgREST-style HTTP API: one route per resource,
// eq filters in the query string, JSON bodies in and out.
type REST struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// RESTOption configures a REST client.
type RESTOption func(*REST)

// WithHTTPClient overrides the transport, mainly for tests.
func WithHTTPClient(client *http.Client) RESTOption {
	return func(r *REST) {
		if client != nil {
			r.http = client
		}
	}
}

// WithRESTLogger overrides the request logger.
func WithRESTLogger(logger *slog.Logger) RESTOption {
	return func(r *REST) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewREST builds a client for the API rooted at baseURL. The key is sent
// both as the platform's apikey header and as a bearer token.
func NewREST(baseURL, apiKey string, opts ...RESTOption) *REST {
	r := &REST{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *REST) endpoint(resource string, filters []Filter) string {
	u := r.baseURL + "/" + url.PathEscape(resource)
	if len(filters) == 0 {
		return u
	}
	query := make(url.Values, len(filters))
	for _, f := range filters {
		query.Set(f.Column, "eq."+f.Value)
	}
	return u + "?" + query.Encode()
}

func (r *REST) do(ctx context.Context, method, target string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("backend: encode body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.apiKey != "" {
		req.Header.Set("apikey", r.apiKey)
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}
	if method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set("Prefer", "return=representation")
	}

	start := time.Now()
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend: read response: %w", err)
	}

	r.logger.Debug("backend request",
		slog.String("method", method),
		slog.String("url", target),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Message: apiMessage(data)}
	}
	return data, nil
}

// apiMessage pulls the human-readable part out of an error payload, falling
// back to the raw body.
func apiMessage(data []byte) string {
	var payload struct {
		Message string `json:"message"`
		Details string `json:"details"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		switch {
		case payload.Message != "":
			return payload.Message
		case payload.Error != "":
			return payload.Error
		case payload.Details != "":
			return payload.Details
		}
	}
	return strings.TrimSpace(string(data))
}

func (r *REST) Select(ctx context.Context, resource string, filters ...Filter) ([]Record, error) {
	data, err := r.do(ctx, http.MethodGet, r.endpoint(resource, filters), nil)
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("backend: decode %s rows: %w", resource, err)
	}
	return records, nil
}

func (r *REST) Insert(ctx context.Context, resource string, record Record) (Record, error) {
	data, err := r.do(ctx, http.MethodPost, r.endpoint(resource, nil), record)
	if err != nil {
		return nil, err
	}
	return firstRecord(resource, data)
}

func (r *REST) Update(ctx context.Context, resource string, filters []Filter, record Record) ([]Record, error) {
	data, err := r.do(ctx, http.MethodPatch, r.endpoint(resource, filters), record)
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("backend: decode %s rows: %w", resource, err)
	}
	return records, nil
}

func (r *REST) Delete(ctx context.Context, resource string, filters ...Filter) error {
	_, err := r.do(ctx, http.MethodDelete, r.endpoint(resource, filters), nil)
	return err
}

// firstRecord unwraps representation payloads, which arrive either as a
// single object or a one-element array depending on the server.
func firstRecord(resource string, data []byte) (Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Record{}, nil
	}
	if trimmed[0] == '[' {
		var records []Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("backend: decode %s row: %w", resource, err)
		}
		if len(records) == 0 {
			return Record{}, nil
		}
		return records[0], nil
	}
	var record Record
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return nil, fmt.Errorf("backend: decode %s row: %w", resource, err)
	}
	return record, nil
}
