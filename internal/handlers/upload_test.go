package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"Hermes/internal/blobstore"
)

func newUploadHandler(t *testing.T) *UploadHandler {
	t.Helper()
	blobs, err := blobstore.NewStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	return NewUploadHandler(blobs)
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadReturnsFileURL(t *testing.T) {
	h := newUploadHandler(t)
	body, contentType := multipartBody(t, "file", "report.pdf", "pdf-bytes")

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.True(t, strings.HasPrefix(resp["fileUrl"], "http://localhost:8080/uploads/"))
	require.True(t, strings.HasSuffix(resp["fileUrl"], ".pdf"))
}

func TestUploadWrongFieldName(t *testing.T) {
	h := newUploadHandler(t)
	body, contentType := multipartBody(t, "attachment", "a.txt", "text")

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadNotMultipart(t *testing.T) {
	h := newUploadHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("raw body"))
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
