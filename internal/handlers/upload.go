package handlers

import (
	"log/slog"
	"net/http"

	"Hermes/internal/blobstore"
)

var uploadLogger = slog.With("component", "upload")

// maxUploadSize ограничивает размер загружаемого файла (32 MB).
const maxUploadSize = 32 << 20

// UploadHandler принимает файл и возвращает его публичный URL.
// Дальше клиент сам отправляет message с kind=file и этим URL.
type UploadHandler struct {
	Blobs *blobstore.Store
}

func NewUploadHandler(blobs *blobstore.Store) *UploadHandler {
	return &UploadHandler{Blobs: blobs}
}

// Upload обрабатывает POST /upload (multipart, поле file).
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "No file uploaded"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "No file uploaded"})
		return
	}
	defer file.Close()

	url, err := h.Blobs.Save(header.Filename, file)
	if err != nil {
		uploadLogger.Error("failed to store file", "error", err, "filename", header.Filename)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Failed to store file"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"fileUrl": url})
}
