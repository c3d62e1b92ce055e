// Package main provides a CLI tool to upload a directory of résumé PDFs to a running API.
// Files are sent in batches of at most 15, the server's per-request limit.
//
// Usage:
//
//	go run ./cmd/ingest -dir ./resumes -uploaded-by alice
//
// Or after building:
//
//	./bin/ingest -dir ./resumes -uploaded-by alice -overwrite "Jane Doe,old.pdf" -async
//
// Environment variables:
//   - HIRESCOPE_API_URL: API base URL (default: http://localhost:8080)
//   - API_KEY: API key sent as a Bearer token (required unless -api-key is set)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/hirescope/hirescope/pkg/hirescope"
)

type options struct {
	dir        string
	apiURL     string
	apiKey     string
	uploadedBy string
	overwrite  string
	async      bool
	batchSize  int
	timeout    time.Duration
}

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	var opts options

	flag.StringVar(&opts.dir, "dir", ".", "directory to scan for .pdf files")
	flag.StringVar(&opts.apiURL, "api-url", envOr("HIRESCOPE_API_URL", "http://localhost:8080"), "API base URL")
	flag.StringVar(&opts.apiKey, "api-key", os.Getenv("API_KEY"), "API key")
	flag.StringVar(&opts.uploadedBy, "uploaded-by", "", "uploader recorded on every résumé (required)")
	flag.StringVar(&opts.overwrite, "overwrite", "", "comma-separated candidate names or filenames that may replace existing records")
	flag.BoolVar(&opts.async, "async", false, "queue summarization instead of waiting for it")
	flag.IntVar(&opts.batchSize, "batch", hirescope.MaxFilesPerUpload, "files per upload request")
	flag.DurationVar(&opts.timeout, "timeout", 10*time.Minute, "per-request timeout")
	flag.Parse()

	if strings.TrimSpace(opts.uploadedBy) == "" {
		color.Red("-uploaded-by is required")

		return 2
	}

	if opts.apiKey == "" {
		color.Red("an API key is required (-api-key or API_KEY)")

		return 2
	}

	if opts.batchSize <= 0 || opts.batchSize > hirescope.MaxFilesPerUpload {
		opts.batchSize = hirescope.MaxFilesPerUpload
	}

	paths, err := findPDFs(opts.dir)
	if err != nil {
		color.Red("Failed to scan %s: %v", opts.dir, err)

		return 1
	}

	if len(paths) == 0 {
		color.Yellow("No .pdf files found in %s", opts.dir)

		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := hirescope.NewClient(hirescope.ClientOptions{
		BaseURL: opts.apiURL,
		APIKey:  opts.apiKey,
		Timeout: opts.timeout,
	})

	color.Cyan("Uploading %d résumé(s) from %s in batches of %d", len(paths), opts.dir, opts.batchSize)

	var total hirescope.IngestStats

	failed := false

	for start := 0; start < len(paths); start += opts.batchSize {
		batch := paths[start:min(start+opts.batchSize, len(paths))]

		color.Yellow("\nBatch %d (%d file(s))", start/opts.batchSize+1, len(batch))

		files, err := readFiles(batch)
		if err != nil {
			color.Red("Failed: %v", err)

			return 1
		}

		resp, err := client.UploadResumes(ctx, hirescope.UploadRequest{
			UploadedBy: opts.uploadedBy,
			Files:      files,
			Overwrite:  splitList(opts.overwrite),
			Async:      opts.async,
		})
		if err != nil {
			color.Red("Failed: %v", err)

			if errors.Is(err, context.Canceled) {
				return 1
			}

			failed = true

			continue
		}

		for _, res := range resp.Results {
			printResult(res)
		}

		addStats(&total, resp.Stats)
	}

	fmt.Println()
	color.Cyan("Uploaded %d, processed %d, queued %d, duplicates %d, errors %d",
		total.TotalUploaded, total.Processed, total.Queued, total.Duplicates, total.Errors)

	if failed || total.Errors > 0 {
		return 1
	}

	return 0
}

func printResult(res hirescope.IngestFileResult) {
	switch res.Status {
	case "stored":
		color.Green("  ✓ %s → %s", res.Filename, res.CandidateID)
	case "queued":
		color.Green("  ⏳ %s queued as job %d", res.Filename, res.JobID)
	case "duplicate":
		color.Yellow("  = %s: %s already stored (%s)", res.Filename, res.Name, strings.Join(res.ExistingIDs, ", "))
	default:
		color.Red("  ✗ %s [%s] %s", res.Filename, res.ErrorKind, res.Error)
	}
}

func addStats(total *hirescope.IngestStats, s hirescope.IngestStats) {
	total.TotalUploaded += s.TotalUploaded
	total.Processed += s.Processed
	total.Duplicates += s.Duplicates
	total.Errors += s.Errors
	total.Queued += s.Queued
}

// findPDFs returns the .pdf files under dir, sorted.
func findPDFs(dir string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	slices.Sort(paths)

	return paths, nil
}

func readFiles(paths []string) ([]hirescope.File, error) {
	files := make([]hirescope.File, 0, len(paths))

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}

		files = append(files, hirescope.File{Name: filepath.Base(p), Data: data})
	}

	return files, nil
}

func splitList(s string) []string {
	var out []string

	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
