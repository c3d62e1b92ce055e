package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/hirescope/hirescope/internal/api/response"
)

// RequestBodyTooLargeRecorder records requests rejected for exceeding the body limit.
// Pass nil when metrics are disabled.
type RequestBodyTooLargeRecorder interface {
	RecordRequestBodyTooLarge(ctx context.Context)
}

// MaxBody limits request bodies to maxBytes. When a handler hits the limit, whatever it wrote
// is discarded and a 413 problem is sent instead, so a handler that reports the failed read as
// 400 still yields 413. maxBytes <= 0 disables the limit.
//
// Only POST, PUT and PATCH responses are buffered; other methods are limited but stream through.
func MaxBody(maxBytes int64, recorder RequestBodyTooLargeRecorder) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := &limitedBody{ReadCloser: http.MaxBytesReader(w, r.Body, maxBytes)}
			r.Body = body

			if !mayHaveBody(r.Method) {
				next.ServeHTTP(w, r)

				return
			}

			buf := &responseBuffer{ResponseWriter: w}
			next.ServeHTTP(buf, r)

			if !body.exceeded {
				buf.flush()

				return
			}

			if recorder != nil {
				recorder.RecordRequestBodyTooLarge(r.Context())
			}

			response.RespondRequestEntityTooLarge(w, "request body exceeds maximum allowed size")
		})
	}
}

func mayHaveBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

// limitedBody notes whether a read failed on the size limit.
type limitedBody struct {
	io.ReadCloser

	exceeded bool
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		b.exceeded = true
	}

	return n, err //nolint:wrapcheck // io.EOF must reach callers unwrapped
}

// responseBuffer holds the handler's response until the limit check is done.
type responseBuffer struct {
	http.ResponseWriter

	status int
	buf    bytes.Buffer
}

func (b *responseBuffer) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *responseBuffer) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}

	return b.buf.Write(p) //nolint:wrapcheck // bytes.Buffer only fails by panicking
}

func (b *responseBuffer) flush() {
	if b.status != 0 {
		b.ResponseWriter.WriteHeader(b.status)
	}

	_, _ = b.buf.WriteTo(b.ResponseWriter)
}
