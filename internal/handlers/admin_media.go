package handlers

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder

	"bimberek/internal/middleware"
	"bimberek/internal/models"
	"bimberek/internal/render"
	"bimberek/internal/session"
)

const (
	// maxUploadSize is the maximum allowed upload size (20 MB).
	maxUploadSize = 20 << 20

	// maxImagePixels caps decoded image size to prevent memory bombs.
	maxImagePixels = 100_000_000

	// maxStoredWidth is the width oversized uploads are scaled down to.
	maxStoredWidth = 2000

	// resizeQuality is the JPEG quality for downscaled uploads.
	resizeQuality = 85
)

// allowedMediaTypes are the raster formats accepted for upload.
var allowedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// MediaLibrary renders the media library page.
func (a *Admin) MediaLibrary(w http.ResponseWriter, r *http.Request) {
	if a.storageClient == nil {
		a.renderer.Page(w, r, "admin_media", &render.PageData{
			Title:   "Media",
			Section: "admin",
			Data: map[string]any{
				"Media":     nil,
				"ImageBase": "",
				"NoStorage": true,
				"Theme":     themeFor(r, a.themeStore),
			},
		})
		return
	}

	media, err := a.mediaStore.List()
	if err != nil {
		slog.Error("media list failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "admin_media", &render.PageData{
		Title:   "Media",
		Section: "admin",
		Data: map[string]any{
			"Media":     media,
			"ImageBase": a.imageBase(),
			"Theme":     themeFor(r, a.themeStore),
		},
	})
}

// MediaUpload accepts an image, validates it by sniffing the actual
// bytes, downscales oversized images and stores the file plus a media
// row with its dimensions.
func (a *Admin) MediaUpload(w http.ResponseWriter, r *http.Request) {
	if a.storageClient == nil {
		http.Error(w, "Storage not configured", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		session.AddFlash(w, r, "error", "Plik jest za duży (limit 20 MB).")
		http.Redirect(w, r, "/admin/media", http.StatusSeeOther)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		session.AddFlash(w, r, "error", "Wybierz plik do wysłania.")
		http.Redirect(w, r, "/admin/media", http.StatusSeeOther)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("upload read failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Trust the bytes, not the declared Content-Type.
	contentType := http.DetectContentType(data)
	if !allowedMediaTypes[contentType] {
		session.AddFlash(w, r, "error", "Dozwolone formaty: JPEG, PNG, GIF, WebP.")
		http.Redirect(w, r, "/admin/media", http.StatusSeeOther)
		return
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		session.AddFlash(w, r, "error", "Nie udało się odczytać obrazu.")
		http.Redirect(w, r, "/admin/media", http.StatusSeeOther)
		return
	}
	if cfg.Width*cfg.Height > maxImagePixels {
		session.AddFlash(w, r, "error", "Obraz ma zbyt dużą rozdzielczość.")
		http.Redirect(w, r, "/admin/media", http.StatusSeeOther)
		return
	}

	// Downscale very wide images. GIF is stored as-is to keep animation.
	width, height := cfg.Width, cfg.Height
	ext := extFor(contentType)
	if cfg.Width > maxStoredWidth && contentType != "image/gif" {
		resized, rw, rh, err := downscale(data, maxStoredWidth)
		if err != nil {
			slog.Warn("image downscale failed, storing original", "error", err)
		} else {
			data = resized
			width, height = rw, rh
			contentType = "image/jpeg"
			ext = "jpg"
		}
	}

	now := time.Now()
	key := fmt.Sprintf("media/%d/%02d/%s.%s", now.Year(), now.Month(), uuid.New(), ext)

	if err := a.storageClient.Upload(r.Context(), key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		slog.Error("media upload failed", "error", err, "key", key)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	if _, err := a.mediaStore.Create(&models.Media{
		OriginalName: header.Filename,
		StorageKey:   key,
		ContentType:  contentType,
		SizeBytes:    int64(len(data)),
		Width:        width,
		Height:       height,
		Title:        formStrPtr(r, "title"),
		AltText:      formStrPtr(r, "alt_text"),
		UploaderID:   sess.UserID,
	}); err != nil {
		slog.Error("media row create failed", "error", err, "key", key)
		// Remove the orphaned object.
		if derr := a.storageClient.Delete(r.Context(), key); derr != nil {
			slog.Warn("orphan object cleanup failed", "error", derr, "key", key)
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	session.AddFlash(w, r, "success", "Plik dodany.")
	http.Redirect(w, r, "/admin/media", http.StatusSeeOther)
}

// MediaUpdate saves title and alt text edits.
func (a *Admin) MediaUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := a.mediaStore.UpdateMeta(id, formStrPtr(r, "title"), formStrPtr(r, "alt_text")); err != nil {
		slog.Error("media update failed", "error", err, "media_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/admin/media", http.StatusSeeOther)
}

// MediaDelete removes the database row and the stored object.
func (a *Admin) MediaDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	media, err := a.mediaStore.FindByID(id)
	if err != nil {
		slog.Error("media lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if media == nil {
		http.NotFound(w, r)
		return
	}

	if err := a.mediaStore.Delete(id); err != nil {
		slog.Error("media delete failed", "error", err, "media_id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if a.storageClient != nil {
		if err := a.storageClient.Delete(r.Context(), media.StorageKey); err != nil {
			slog.Warn("object delete failed", "error", err, "key", media.StorageKey)
		}
	}

	session.AddFlash(w, r, "success", "Plik usunięty.")
	http.Redirect(w, r, "/admin/media", http.StatusSeeOther)
}

// downscale resizes an image to maxWidth and re-encodes it as JPEG.
func downscale(data []byte, maxWidth int) ([]byte, int, int, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	width := maxWidth
	height := bounds.Dy() * maxWidth / bounds.Dx()

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: resizeQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), width, height, nil
}

// extFor maps an image MIME type to a file extension.
func extFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "bin"
	}
}
