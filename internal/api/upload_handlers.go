package api

import (
	"context"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/example/jewel-storefront/internal/infrastructure/objectstore"
	"github.com/example/jewel-storefront/internal/metrics"
)

const (
	// maxUploadBody leaves room for multipart framing around a full batch.
	maxUploadBody   = objectstore.MaxFiles*objectstore.MaxFileSize + 1<<20
	multipartMemory = 8 << 20
)

// ImageStore is the bucket side of uploads.
type ImageStore interface {
	Put(ctx context.Context, fileName, contentType string, size int64, body io.Reader) (objectstore.Object, error)
	PresignUpload(ctx context.Context, fileName string) (objectstore.PresignedUpload, error)
}

// ImageFetcher is the upstream side of the image proxy.
type ImageFetcher interface {
	Fetch(ctx context.Context, raw string) (*objectstore.Image, error)
}

type UploadHandlers struct {
	images  ImageStore
	proxy   ImageFetcher
	metrics *metrics.AppMetrics
}

// NewUploadHandlers accepts a nil images store when object storage is not
// configured; upload endpoints then answer 500.
func NewUploadHandlers(images ImageStore, proxy ImageFetcher, m *metrics.AppMetrics) *UploadHandlers {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &UploadHandlers{images: images, proxy: proxy, metrics: m}
}

type UploadResponse struct {
	URLs    []string `json:"urls"`
	Message string   `json:"message"`
}

type UploadURLRequest struct {
	FileName string `json:"fileName"`
}

// Upload stores every part of the multipart field "files" and returns their
// public URLs in order. The whole batch is validated before anything is stored.
func (h *UploadHandlers) Upload(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		respondJSONError(w, "Server not configured for image uploads", http.StatusInternalServerError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondJSONError(w, "Upload too large (max 5MB per image)", http.StatusRequestEntityTooLarge)
			return
		}
		respondJSONError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	files := make([]objectstore.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, objectstore.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		})
	}
	log.Printf("[Upload] Files received: %d", len(files))

	if err := objectstore.ValidateBatch(files); err != nil {
		log.Printf("[Upload] Rejected batch: %v", err)
		respondJSONError(w, capitalize(err.Error()), http.StatusBadRequest)
		return
	}

	urls := make([]string, 0, len(headers))
	for i, fh := range headers {
		obj, err := h.put(r.Context(), fh, files[i])
		if err != nil {
			log.Printf("[Upload] Failed to store %s: %v", fh.Filename, err)
			respondJSONError(w, "Failed to upload images", http.StatusInternalServerError)
			return
		}
		h.metrics.Inc(r.Context(), h.metrics.ImagesUploaded)
		urls = append(urls, obj.URL)
	}

	log.Printf("[Upload] Stored %d files", len(urls))
	respondJSON(w, http.StatusOK, UploadResponse{URLs: urls, Message: "Images uploaded successfully"})
}

func (h *UploadHandlers) put(ctx context.Context, fh *multipart.FileHeader, f objectstore.File) (objectstore.Object, error) {
	src, err := fh.Open()
	if err != nil {
		return objectstore.Object{}, err
	}
	defer src.Close()
	return h.images.Put(ctx, f.Name, f.ContentType, f.Size, src)
}

// UploadURL hands out a presigned PUT URL so the browser can upload directly.
func (h *UploadHandlers) UploadURL(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		respondJSONError(w, "Server not configured for image uploads", http.StatusInternalServerError)
		return
	}

	var req UploadURLRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.FileName) == "" {
		respondJSONError(w, "fileName is required", http.StatusBadRequest)
		return
	}

	up, err := h.images.PresignUpload(r.Context(), req.FileName)
	if err != nil {
		log.Printf("[Upload] Failed to presign %s: %v", req.FileName, err)
		respondJSONError(w, "Failed to generate upload URL", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, up)
}

// ImageProxy streams an allow-listed bucket image from the storefront origin.
func (h *UploadHandlers) ImageProxy(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")

	img, err := h.proxy.Fetch(r.Context(), raw)
	if err != nil {
		var upstream *objectstore.UpstreamError
		switch {
		case errors.Is(err, objectstore.ErrMissingURL):
			respondJSONError(w, "Image URL required", http.StatusBadRequest)
		case errors.Is(err, objectstore.ErrHostNotAllowed):
			respondJSONError(w, "Image host not allowed", http.StatusForbidden)
		case errors.As(err, &upstream):
			log.Printf("[ImageProxy] Upstream answered %d for %s", upstream.StatusCode, raw)
			respondJSONError(w, "Failed to fetch image", upstream.StatusCode)
		default:
			log.Printf("[ImageProxy] Error: %v", err)
			respondJSONError(w, "Failed to proxy image", http.StatusInternalServerError)
		}
		return
	}
	defer img.Body.Close()

	h.metrics.Inc(r.Context(), h.metrics.ImageProxyHits)
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", objectstore.ProxyCacheControl)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, img.Body); err != nil {
		log.Printf("[ImageProxy] Failed to stream %s: %v", raw, err)
	}
}
