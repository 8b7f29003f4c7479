package web

import (
	"errors"
	"net/http"
	"strings"
)

// maxImageBytes caps an uploaded order photo at 10 MB.
const maxImageBytes = 10 << 20

// uploadImage handles POST /api/images. Accepts one multipart "file" part,
// image content only, and responds with the hosted URL.
func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "image exceeds the 10MB limit", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, r, "invalid multipart body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, "No image file provided", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, r, "Only image files are allowed", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	url, err := h.svc.Uploader.Upload(r.Context(), header.Filename, file)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"url": url})
}
