package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"watchstore/internal/imaging"
)

// Image upload messages shown next to the file input.
const (
	msgNoStorage   = "Image uploads are disabled: object storage is not configured."
	msgTooLarge    = "The image is too large. Maximum size is 8 MB."
	msgUnsupported = "Upload a JPEG, PNG, GIF or WebP image."
	msgUploadFail  = "The image could not be stored. Please try again."
)

// parseAdminForm parses a back-office form, multipart or not, capping
// the request body so an upload cannot exhaust memory.
func parseAdminForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormMemory)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(maxUploadBytes)
	}
	return r.ParseForm()
}

// uploadImage stores the picture posted in field under prefix and
// returns its key. No file selected yields a nil key and no error
// message.
func (a *Admin) uploadImage(ctx context.Context, r *http.Request, field, prefix string) (*string, string) {
	if r.MultipartForm == nil {
		return nil, ""
	}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, ""
	}
	if err != nil {
		return nil, msgUploadFail
	}
	defer file.Close()

	if header.Size == 0 {
		return nil, ""
	}
	if a.images == nil {
		return nil, msgNoStorage
	}
	if header.Size > maxUploadBytes {
		return nil, msgTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, msgUploadFail
	}
	if len(data) > maxUploadBytes {
		return nil, msgTooLarge
	}

	key, err := a.images.Save(ctx, prefix, data)
	switch {
	case errors.Is(err, imaging.ErrUnsupported):
		return nil, msgUnsupported
	case err != nil:
		slog.Error("image upload failed", "error", err, "filename", header.Filename)
		return nil, msgUploadFail
	}
	return &key, ""
}

// discardImage removes an image that is no longer referenced.
func (a *Admin) discardImage(ctx context.Context, key *string) {
	if key == nil || a.images == nil {
		return
	}
	a.images.Delete(ctx, *key)
}

// writeJSON sends v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write json response failed", "error", err)
	}
}
