package handlers

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/essenza/backend/internal/models"
	"github.com/essenza/backend/internal/pkg/audio"
	"github.com/essenza/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxUploadBytes = 50 * 1024 * 1024

type MediaHandler struct {
	adminService   *services.AdminService
	assetService   *services.AssetService
	productService *services.ProductService
	storageService *services.StorageService
	s3Service      *services.S3Service
}

func NewMediaHandler(adminService *services.AdminService, assetService *services.AssetService, productService *services.ProductService, storageService *services.StorageService, s3Service *services.S3Service) *MediaHandler {
	return &MediaHandler{
		adminService:   adminService,
		assetService:   assetService,
		productService: productService,
		storageService: storageService,
		s3Service:      s3Service,
	}
}

// UploadProductImage stores a product photo and optionally attaches it.
// POST /admin/products/images
// Multipart form: file (required), product_id (optional)
func (h *MediaHandler) UploadProductImage(c *gin.Context) {
	asset, status, err := h.saveUpload(c, models.AssetKindImage, "image/")
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	response := gin.H{
		"message": "Image uploaded successfully",
		"asset": gin.H{
			"id":         asset.ID,
			"filename":   asset.Filename,
			"mime_type":  asset.MimeType,
			"size_bytes": asset.SizeBytes,
		},
	}
	// Product photos are public; expose the direct bucket URL for the CDN
	if bucketURL := h.s3Service.MediaURL(h.assetService.BucketFor(asset.Kind), asset.Key); bucketURL != "" {
		response["bucket_url"] = bucketURL
	}

	if productIDStr := c.PostForm("product_id"); productIDStr != "" {
		productID, err := uuid.Parse(productIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
			return
		}
		if err := h.productService.AttachImage(productID, asset.ID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		response["product_id"] = productID
	}

	c.JSON(http.StatusCreated, response)
}

// UploadTrackAudio stores a radio track's audio file. The returned asset ID
// is set on the track via the track endpoints.
// POST /admin/tracks/audio
// Multipart form: file (required)
func (h *MediaHandler) UploadTrackAudio(c *gin.Context) {
	asset, status, err := h.saveUpload(c, models.AssetKindAudio, "audio/")
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	assetInfo := gin.H{
		"id":         asset.ID,
		"filename":   asset.Filename,
		"mime_type":  asset.MimeType,
		"size_bytes": asset.SizeBytes,
	}

	// Pre-fill the track duration so admins don't have to type it in.
	// The value is advisory; the track endpoints accept an override.
	duration, err := audio.ProbeDuration(c.Request.Context(), h.assetService.GetAbsolutePath(asset))
	if err != nil {
		log.Printf("WARN: failed to probe duration for asset %s: %v", asset.ID, err)
	} else {
		assetInfo["duration_seconds"] = duration
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Audio uploaded successfully",
		"asset":   assetInfo,
	})
}

// saveUpload stages the file locally, mirrors it to the media bucket and
// records the asset row
func (h *MediaHandler) saveUpload(c *gin.Context, kind models.AssetKind, mimePrefix string) (*models.Asset, int, error) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("file is required")
	}
	defer file.Close()

	if header.Size > maxUploadBytes {
		return nil, http.StatusBadRequest, fmt.Errorf("file exceeds the %d MB limit", maxUploadBytes/(1024*1024))
	}

	ctype := header.Header.Get("Content-Type")
	if !strings.HasPrefix(ctype, mimePrefix) {
		return nil, http.StatusBadRequest, fmt.Errorf("unsupported content type %q", ctype)
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("failed to read file")
	}

	key := h.storageService.BuildObjectKey(string(kind), header.Filename)
	_, size, checksum, err := h.storageService.SaveStream(c.Request.Context(), key, bytes.NewReader(data))
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to store file")
	}

	bucket := h.assetService.BucketFor(kind)
	if err := h.s3Service.UploadMedia(c.Request.Context(), bucket, key, bytes.NewReader(data), ctype); err != nil {
		// Local copy stays usable; the bucket mirror can be retried later
		log.Printf("WARN: failed to mirror %s to bucket %s: %v", key, bucket, err)
	}

	asset, err := h.adminService.CreateAssetRecord(key, header.Filename, ctype, size, checksum, kind)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to record asset")
	}

	return asset, http.StatusCreated, nil
}

// ServeAsset streams an asset. Local files are served with range support;
// anything evicted locally is pulled back from the media bucket first.
func (h *MediaHandler) ServeAsset(c *gin.Context) {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID"})
		return
	}

	asset, err := h.assetService.GetByID(assetID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	absPath, err := h.storageService.LocalPath(asset.Key)
	if err != nil {
		bucket := h.assetService.BucketFor(asset.Kind)

		// Large audio files are cheaper to hand off to the bucket directly
		// than to pull back through the API
		if asset.Kind == models.AssetKindAudio {
			if presigned, err := h.s3Service.PresignMediaGet(c.Request.Context(), bucket, asset.Key, 15*time.Minute); err == nil {
				c.Redirect(http.StatusFound, presigned)
				return
			}
		}

		dest := h.assetService.GetAbsolutePath(asset)
		if err := h.s3Service.DownloadMediaToFile(c.Request.Context(), bucket, asset.Key, dest); err != nil {
			log.Printf("ERROR: failed to fetch asset %s from bucket %s: %v", asset.ID, bucket, err)
			c.JSON(http.StatusNotFound, gin.H{"error": "Asset unavailable"})
			return
		}
		absPath = dest
	}

	_ = h.storageService.ServeFileWithRange(c.Writer, c.Request, absPath, asset.Filename)
}

// ListAssets pages through stored assets for the admin media library
func (h *MediaHandler) ListAssets(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	kind := c.Query("kind")

	assets, total, err := h.assetService.List(kind, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list assets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assets": assets,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// DeleteAsset removes an unreferenced asset from the database, the local
// cache and the media bucket
func (h *MediaHandler) DeleteAsset(c *gin.Context) {
	assetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID"})
		return
	}

	asset, err := h.assetService.GetByID(assetID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	referencedBy, err := h.assetService.ReferencedBy(assetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check references"})
		return
	}
	if referencedBy != "" {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Asset is still attached to a %s", referencedBy)})
		return
	}

	if err := h.assetService.DeleteRecord(assetID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete asset"})
		return
	}
	if err := h.storageService.Remove(asset.Key); err != nil {
		log.Printf("WARN: failed to remove local copy of %s: %v", asset.Key, err)
	}
	bucket := h.assetService.BucketFor(asset.Kind)
	if err := h.s3Service.DeleteMedia(c.Request.Context(), bucket, asset.Key); err != nil {
		log.Printf("WARN: failed to remove %s from bucket %s: %v", asset.Key, bucket, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Asset deleted"})
}

// ListOrphanMedia reports bucket objects with no asset record, left behind
// by failed uploads or manual bucket writes
func (h *MediaHandler) ListOrphanMedia(c *gin.Context) {
	orphans := make(map[string][]string)
	for _, kind := range []models.AssetKind{models.AssetKindImage, models.AssetKindAudio} {
		known, err := h.assetService.KnownKeys(kind)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load asset records"})
			return
		}

		bucket := h.assetService.BucketFor(kind)
		keys, err := h.s3Service.ListMediaKeys(c.Request.Context(), bucket, string(kind)+"/", 1000)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("Failed to list bucket %s", bucket)})
			return
		}

		missing := []string{}
		for _, key := range keys {
			if !known[key] {
				missing = append(missing, key)
			}
		}
		orphans[string(kind)] = missing
	}

	c.JSON(http.StatusOK, gin.H{"orphans": orphans})
}
