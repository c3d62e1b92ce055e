package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hirescope/hirescope/internal/api/response"
	"github.com/hirescope/hirescope/internal/models"
	"github.com/hirescope/hirescope/internal/service"
)

// multipartMemory is how much of an upload is held in memory before spilling to disk.
const multipartMemory = 32 << 20

// Multipart field names of the upload form.
const (
	formFieldFiles      = "files"
	formFieldUploadedBy = "uploaded_by"
	formFieldOverwrite  = "overwrite"
)

// ResumeIngester runs the upload pipeline.
type ResumeIngester interface {
	Ingest(ctx context.Context, batch service.IngestBatch) (*models.IngestResponse, error)
}

// ResumesHandler handles résumé uploads.
type ResumesHandler struct {
	ingester ResumeIngester
}

// NewResumesHandler creates a new résumés handler
func NewResumesHandler(ingester ResumeIngester) *ResumesHandler {
	return &ResumesHandler{ingester: ingester}
}

// Upload handles POST /v1/resumes
// @Summary Upload résumé PDFs
// @Description Summarizes and stores up to 15 PDFs. Per-file failures are reported in the results.
// @Description With async=true files are queued and the results carry job ids.
// @Tags Resumes
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "PDF files (1 to 15)"
// @Param uploaded_by formData string true "Uploader name"
// @Param overwrite formData []string false "Candidate names or filenames whose existing records may be replaced"
// @Param async query bool false "Queue the files instead of processing them in the request"
// @Success 200 {object} IngestResponse
// @Success 202 {object} IngestResponse "Files queued"
// @Failure 400 {object} ProblemDetails
// @Failure 413 {object} ProblemDetails "Too many files or body too large"
// @Security BearerAuth
// @Router /v1/resumes [post]
func (h *ResumesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	async := false

	if v := r.URL.Query().Get("async"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			response.RespondBadRequest(w, "Invalid async parameter")
			return
		}

		async = parsed
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.RespondRequestEntityTooLarge(w, "request body exceeds maximum allowed size")
			return
		}

		response.RespondBadRequest(w, "Expected a multipart/form-data body")

		return
	}

	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files, err := readUploadedFiles(r)
	if err != nil {
		response.RespondBadRequest(w, err.Error())
		return
	}

	batch := service.IngestBatch{
		UploadedBy: strings.TrimSpace(r.FormValue(formFieldUploadedBy)),
		Files:      files,
		Overwrite:  overwriteNames(r.MultipartForm.Value[formFieldOverwrite]),
		Async:      async,
	}

	resp, err := h.ingester.Ingest(r.Context(), batch)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if async {
		status = http.StatusAccepted
	}

	response.RespondJSON(w, status, resp)
}

func readUploadedFiles(r *http.Request) ([]service.UploadedFile, error) {
	headers := r.MultipartForm.File[formFieldFiles]
	files := make([]service.UploadedFile, 0, len(headers))

	// Past the limit the service rejects the batch; skip reading the extra files.
	if len(headers) > service.MaxFilesPerBatch {
		for _, fh := range headers {
			files = append(files, service.UploadedFile{Filename: fh.Filename})
		}

		return files, nil
	}

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}

		data, err := io.ReadAll(f)
		_ = f.Close()

		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}

		files = append(files, service.UploadedFile{Filename: fh.Filename, Data: data})
	}

	return files, nil
}

// overwriteNames accepts repeated fields and comma-separated lists.
func overwriteNames(values []string) []string {
	var names []string

	for _, v := range values {
		for name := range strings.SplitSeq(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}

	return names
}
