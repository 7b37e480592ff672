package handlers

import (
	"net/http"

	"github.com/essenza/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PublicHandler struct {
	productService *services.ProductService
	radioService   *services.RadioService
}

func NewPublicHandler(productService *services.ProductService, radioService *services.RadioService) *PublicHandler {
	return &PublicHandler{
		productService: productService,
		radioService:   radioService,
	}
}

// GetProducts retrieves the public perfume catalog
func (h *PublicHandler) GetProducts(c *gin.Context) {
	products, err := h.productService.GetActiveProducts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve products"})
		return
	}

	productList := make([]gin.H, len(products))
	for i, product := range products {
		entry := gin.H{
			"id":          product.ID,
			"name":        product.Name,
			"brand":       product.Brand,
			"description": product.Description,
			"notes":       product.Notes,
			"volume_ml":   product.VolumeML,
			"price_cents": product.PriceCents,
			"in_stock":    product.StockCount > 0,
		}
		if product.ImageAsset != nil {
			entry["image_asset_id"] = product.ImageAsset.ID
		}
		productList[i] = entry
	}

	c.JSON(http.StatusOK, gin.H{"products": productList})
}

// GetProduct retrieves a single product
func (h *PublicHandler) GetProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, err := h.productService.GetProductByID(productID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if !product.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// GetRadioNow returns what the boutique radio is broadcasting right now.
// Clients use loop_start_epoch with the rotation to stay in sync locally
// between polls.
func (h *PublicHandler) GetRadioNow(c *gin.Context) {
	info, err := h.radioService.NowPlaying(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute radio state"})
		return
	}

	c.JSON(http.StatusOK, info)
}

// GetRadioTracks returns the active rotation in play order
func (h *PublicHandler) GetRadioTracks(c *gin.Context) {
	tracks, err := h.radioService.GetRotation()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rotation"})
		return
	}

	trackList := make([]gin.H, len(tracks))
	for i, track := range tracks {
		entry := gin.H{
			"id":               track.ID,
			"title":            track.Title,
			"artist":           track.Artist,
			"duration_seconds": track.DurationSeconds,
		}
		if track.VideoID != "" {
			entry["video_id"] = track.VideoID
		}
		if track.AudioAssetID != nil {
			entry["audio_asset_id"] = track.AudioAssetID
		}
		trackList[i] = entry
	}

	c.JSON(http.StatusOK, gin.H{"tracks": trackList})
}
