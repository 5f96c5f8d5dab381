// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package workbench

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"querydesk/cli/internal/backend"
)

// ArtifactSink delivers an export artifact to the user.
type ArtifactSink interface {
	Save(a *backend.Artifact) (string, error)
}

// FileSink writes artifacts to Dir as results_YYYY-MM-DD.<ext>, dated in UTC.
// An existing file with the same name is overwritten.
type FileSink struct {
	Dir string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Save writes a to disk and returns the file path.
func (s FileSink) Save(a *backend.Artifact) (string, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	path := filepath.Join(dir, FileName(now(), a))
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// FileName builds the download name for a on the UTC day of t.
func FileName(t time.Time, a *backend.Artifact) string {
	return fmt.Sprintf("results_%s.%s", t.UTC().Format("2006-01-02"), Extension(a))
}

var typeExtensions = map[string]string{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": "xlsx",
	"application/vnd.ms-excel": "xls",
	"text/csv":                 "csv",
	"application/json":         "json",
}

// Extension picks the file extension from the suggested filename, then the content type.
// It defaults to xlsx.
func Extension(a *backend.Artifact) string {
	if ext := strings.TrimPrefix(filepath.Ext(filepath.Base(a.Filename)), "."); ext != "" {
		return strings.ToLower(ext)
	}
	if ct, _, err := mime.ParseMediaType(a.ContentType); err == nil {
		if ext, ok := typeExtensions[ct]; ok {
			return ext
		}
	}
	return "xlsx"
}
