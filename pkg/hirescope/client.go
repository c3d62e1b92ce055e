// Package hirescope is a Go client for the HireScope HTTP API.
package hirescope

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// MaxFilesPerUpload is the server's per-request file limit.
const MaxFilesPerUpload = 15

// ErrTooManyFiles is returned by UploadResumes for batches above MaxFilesPerUpload.
var ErrTooManyFiles = fmt.Errorf("at most %d files per upload", MaxFilesPerUpload)

// ClientOptions configures the HireScope API client
type ClientOptions struct {
	// BaseURL is the API root, e.g. "http://localhost:8080" (default).
	BaseURL string
	// APIKey is sent as a Bearer token.
	APIKey string
	// RetryMax is the maximum number of retries (default: 3)
	RetryMax int
	// Timeout is the HTTP client timeout (default: 10 minutes; uploads summarize synchronously)
	Timeout time.Duration
}

// Client is the HireScope API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *retryablehttp.Client
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Problem    Problem
	Body       string
}

func (e *APIError) Error() string {
	if e.Problem.Detail != "" {
		return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Problem.Detail)
	}

	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// NewClient creates a new HireScope API client
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:8080"
	}

	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Minute
	}

	if opts.RetryMax == 0 {
		opts.RetryMax = 3
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.HTTPClient.Timeout = opts.Timeout
	retryClient.Logger = nil // Disable logging by default
	retryClient.CheckRetry = checkRetry

	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		httpClient: retryClient,
	}
}

// checkRetry retries connection errors, 429 and 503 only. A 502 carries a per-request
// result (e.g. a failed LLM call) and is returned to the caller.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && resp.StatusCode == http.StatusBadGateway {
		return false, nil
	}

	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// UploadResumes posts one batch of résumés.
func (c *Client) UploadResumes(ctx context.Context, req UploadRequest) (*IngestResponse, error) {
	if len(req.Files) > MaxFilesPerUpload {
		return nil, ErrTooManyFiles
	}

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)

	for _, f := range req.Files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}

		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("failed to write form file: %w", err)
		}
	}

	if err := mw.WriteField("uploaded_by", req.UploadedBy); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}

	for _, name := range req.Overwrite {
		if err := mw.WriteField("overwrite", name); err != nil {
			return nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}

	path := "/v1/resumes"
	if req.Async {
		path += "?async=true"
	}

	var out IngestResponse
	if err := c.do(ctx, http.MethodPost, path, mw.FormDataContentType(), body.Bytes(), &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// Query asks a stateless question.
func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	var out QueryResponse
	if err := c.do(ctx, http.MethodPost, "/v1/query", "application/json", payload, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// CountCandidates returns the number of stored résumés.
func (c *Client) CountCandidates(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}

	if err := c.do(ctx, http.MethodGet, "/v1/candidates/count", "", nil, &out); err != nil {
		return 0, err
	}

	return out.Count, nil
}

// GetIngestJob returns the state of a queued upload.
func (c *Client) GetIngestJob(ctx context.Context, id int64) (*IngestJob, error) {
	var out IngestJob
	if err := c.do(ctx, http.MethodGet, "/v1/ingest-jobs/"+url.PathEscape(strconv.FormatInt(id, 10)), "", nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, out any) error {
	var reqBody any
	if body != nil {
		reqBody = body
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Failed to close response body", "error", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
		_ = json.Unmarshal(respBody, &apiErr.Problem)

		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError

	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
