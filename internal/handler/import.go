package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"docvault/internal/domain"
	docsysSvc "docvault/internal/domain/services/docsystem"
	"docvault/internal/httputil"
)

// ImportHandler handles bulk import HTTP requests.
//
// Every import creates one new collection. Uploads are either zip archives,
// expanded with their directory structure, or individual files. Browsers only
// send base names as multipart filenames, so a parallel "paths" field may
// carry the relative path of each file in the same order.
type ImportHandler struct {
	importService docsysSvc.ImportService
	maxBytes      int64
	logger        *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(importService docsysSvc.ImportService, maxBytes int64, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		maxBytes:      maxBytes,
		logger:        logger,
	}
}

// ImportResponse represents the response for import operations
type ImportResponse struct {
	Success bool `json:"success"`
	*docsysSvc.ImportResult
}

// Import handles a multipart import.
// POST /api/collections/import
//
// Form fields:
//   - files: required, one or more uploads
//   - paths: optional, relative path per file (defaults to the filename)
//   - collectionName: optional
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", h.maxBytes))
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "No files provided")
		return
	}
	paths := r.MultipartForm.Value["paths"]
	if len(paths) > 0 && len(paths) != len(files) {
		httputil.RespondError(w, http.StatusBadRequest,
			fmt.Sprintf("got %d paths for %d files", len(paths), len(files)))
		return
	}
	collectionName := strings.TrimSpace(r.FormValue("collectionName"))

	h.logger.Info("starting import",
		"file_count", len(files),
		"collection_name", collectionName,
	)

	// defer file.Close() is safe here because all files are processed
	// before this function returns.
	uploadedFiles := make([]docsysSvc.UploadedFile, 0, len(files))
	for i, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			h.logger.Error("failed to open uploaded file",
				"file", fileHeader.Filename,
				"error", err,
			)
			httputil.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to open file %s", fileHeader.Filename))
			return
		}
		defer func() { _ = file.Close() }()

		name := fileHeader.Filename
		if len(paths) > 0 && strings.TrimSpace(paths[i]) != "" {
			name = paths[i]
		}
		uploadedFiles = append(uploadedFiles, docsysSvc.UploadedFile{
			Filename: name,
			Content:  file,
		})
	}

	result, err := h.importService.ProcessFiles(r.Context(), uploadedFiles, collectionName, nil)
	if err != nil {
		if !errors.Is(err, domain.ErrValidation) {
			h.logger.Error("failed to process files", "error", err)
		}
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, ImportResponse{
		Success:      result.Failed == 0,
		ImportResult: result,
	})
}
