package handlers

import (
	"net/http"
	"strconv"

	"github.com/essenza/backend/internal/models"
	"github.com/essenza/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdminHandler struct {
	adminService   *services.AdminService
	productService *services.ProductService
	radioService   *services.RadioService
	userService    *services.UserService
	orderService   *services.OrderService
	auditService   *services.AuditService
	emailService   *services.EmailService
}

func NewAdminHandler(adminService *services.AdminService, productService *services.ProductService, radioService *services.RadioService, userService *services.UserService, orderService *services.OrderService, auditService *services.AuditService, emailService *services.EmailService) *AdminHandler {
	return &AdminHandler{
		adminService:   adminService,
		productService: productService,
		radioService:   radioService,
		userService:    userService,
		orderService:   orderService,
		auditService:   auditService,
		emailService:   emailService,
	}
}

func (h *AdminHandler) audit(c *gin.Context, action, targetType string, targetID uuid.UUID, details map[string]interface{}) {
	adminID, exists := c.Get("userID")
	if !exists {
		return
	}
	_ = h.auditService.LogAction(adminID.(uuid.UUID), action, targetType, targetID, details, c.ClientIP(), c.Request.UserAgent())
}

// --- Products ---

// GetAllProducts retrieves the full catalog including inactive products
func (h *AdminHandler) GetAllProducts(c *gin.Context) {
	products, err := h.productService.GetAllProducts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// CreateProduct creates a new product
func (h *AdminHandler) CreateProduct(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Brand       string `json:"brand"`
		Description string `json:"description"`
		Notes       string `json:"notes"`
		VolumeML    int    `json:"volume_ml"`
		PriceCents  int64  `json:"price_cents" binding:"required,min=1"`
		StockCount  int    `json:"stock_count"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product := &models.Product{
		Name:        req.Name,
		Brand:       req.Brand,
		Description: req.Description,
		Notes:       req.Notes,
		VolumeML:    req.VolumeML,
		PriceCents:  req.PriceCents,
		StockCount:  req.StockCount,
		IsActive:    true,
	}

	if err := h.productService.CreateProduct(product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.audit(c, "create_product", "product", product.ID, map[string]interface{}{"name": product.Name})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"product": product,
	})
}

// UpdateProduct updates an existing product
func (h *AdminHandler) UpdateProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var req struct {
		Name        string `json:"name"`
		Brand       string `json:"brand"`
		Description string `json:"description"`
		Notes       string `json:"notes"`
		VolumeML    int    `json:"volume_ml"`
		PriceCents  int64  `json:"price_cents"`
		StockCount  *int   `json:"stock_count"`
		IsActive    *bool  `json:"is_active"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Brand != "" {
		updates["brand"] = req.Brand
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Notes != "" {
		updates["notes"] = req.Notes
	}
	if req.VolumeML > 0 {
		updates["volume_ml"] = req.VolumeML
	}
	if req.PriceCents > 0 {
		updates["price_cents"] = req.PriceCents
	}
	if req.StockCount != nil {
		updates["stock_count"] = *req.StockCount
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	product, err := h.productService.UpdateProduct(productID, updates)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.audit(c, "update_product", "product", productID, updates)

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"product": product,
	})
}

// DeleteProduct deactivates a product
func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	if err := h.productService.DeleteProduct(productID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.audit(c, "delete_product", "product", productID, nil)

	c.JSON(http.StatusOK, gin.H{"message": "Product deactivated successfully"})
}

// --- Radio ---

// GetRadioConfig returns the current broadcast config
func (h *AdminHandler) GetRadioConfig(c *gin.Context) {
	rc, err := h.radioService.GetConfig(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve radio config"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"is_live":          rc.IsLive,
		"loop_start_epoch": rc.LoopStartEpoch,
		"updated_at":       rc.UpdatedAt,
	})
}

// SetRadioLive flips the broadcast flag. Going live restarts the rotation
// from track 0 for every listener.
func (h *AdminHandler) SetRadioLive(c *gin.Context) {
	var req struct {
		Live *bool `json:"live" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rc, err := h.radioService.SetLive(c.Request.Context(), *req.Live)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.audit(c, "radio_set_live", "radio", uuid.Nil, map[string]interface{}{
		"live":             rc.IsLive,
		"loop_start_epoch": rc.LoopStartEpoch,
	})

	c.JSON(http.StatusOK, gin.H{
		"message":          "Radio state updated",
		"is_live":          rc.IsLive,
		"loop_start_epoch": rc.LoopStartEpoch,
	})
}

// GetAllTracks retrieves the full track catalog including inactive entries
func (h *AdminHandler) GetAllTracks(c *gin.Context) {
	tracks, err := h.radioService.GetAllTracks()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tracks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tracks": tracks})
}

// CreateTrack adds a track to the rotation catalog
func (h *AdminHandler) CreateTrack(c *gin.Context) {
	var req struct {
		Title           string     `json:"title" binding:"required"`
		Artist          string     `json:"artist"`
		DurationSeconds int        `json:"duration_seconds" binding:"required,min=1"`
		YouTubeURL      string     `json:"youtube_url"`
		AudioAssetID    *uuid.UUID `json:"audio_asset_id"`
		IsActive        bool       `json:"is_active"`
		SortOrder       int        `json:"sort_order"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	track, err := h.radioService.CreateTrack(services.TrackInput{
		Title:           req.Title,
		Artist:          req.Artist,
		DurationSeconds: req.DurationSeconds,
		YouTubeURL:      req.YouTubeURL,
		AudioAssetID:    req.AudioAssetID,
		IsActive:        req.IsActive,
		SortOrder:       req.SortOrder,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.audit(c, "create_track", "track", track.ID, map[string]interface{}{"title": track.Title})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Track created successfully",
		"track":   track,
	})
}

// UpdateTrack updates an existing track
func (h *AdminHandler) UpdateTrack(c *gin.Context) {
	trackID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track ID"})
		return
	}

	var req struct {
		Title           string     `json:"title" binding:"required"`
		Artist          string     `json:"artist"`
		DurationSeconds int        `json:"duration_seconds" binding:"required,min=1"`
		YouTubeURL      string     `json:"youtube_url"`
		AudioAssetID    *uuid.UUID `json:"audio_asset_id"`
		IsActive        bool       `json:"is_active"`
		SortOrder       int        `json:"sort_order"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	track, err := h.radioService.UpdateTrack(trackID, services.TrackInput{
		Title:           req.Title,
		Artist:          req.Artist,
		DurationSeconds: req.DurationSeconds,
		YouTubeURL:      req.YouTubeURL,
		AudioAssetID:    req.AudioAssetID,
		IsActive:        req.IsActive,
		SortOrder:       req.SortOrder,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.audit(c, "update_track", "track", trackID, map[string]interface{}{"title": track.Title})

	c.JSON(http.StatusOK, gin.H{
		"message": "Track updated successfully",
		"track":   track,
	})
}

// DeleteTrack removes a track from the catalog
func (h *AdminHandler) DeleteTrack(c *gin.Context) {
	trackID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid track ID"})
		return
	}

	if err := h.radioService.DeleteTrack(trackID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.audit(c, "delete_track", "track", trackID, nil)

	c.JSON(http.StatusOK, gin.H{"message": "Track deleted successfully"})
}

// ReorderTracks rewrites the rotation order
func (h *AdminHandler) ReorderTracks(c *gin.Context) {
	var req struct {
		TrackIDs []uuid.UUID `json:"track_ids" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.radioService.ReorderTracks(req.TrackIDs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.audit(c, "reorder_tracks", "radio", uuid.Nil, map[string]interface{}{"count": len(req.TrackIDs)})

	c.JSON(http.StatusOK, gin.H{"message": "Rotation reordered successfully"})
}

// --- Users ---

// GetAllUsers retrieves all users
func (h *AdminHandler) GetAllUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	search := c.Query("search")
	offset := (page - 1) * limit

	users, total, err := h.userService.ListUsers(search, offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	userList := make([]gin.H, len(users))
	for i, user := range users {
		userList[i] = gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"email":      user.Email,
			"name":       user.Name,
			"is_active":  user.IsActive,
			"is_admin":   user.IsAdmin,
			"created_at": user.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"users": userList,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetUserDetails retrieves a user with their order history
func (h *AdminHandler) GetUserDetails(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	user, err := h.userService.GetUserWithDetails(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	orderHistory := make([]gin.H, len(user.Orders))
	for i, order := range user.Orders {
		orderHistory[i] = gin.H{
			"id":          order.ID,
			"status":      order.Status,
			"total_cents": order.TotalCents,
			"created_at":  order.CreatedAt,
			"paid_at":     order.PaidAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"email":      user.Email,
			"name":       user.Name,
			"is_active":  user.IsActive,
			"created_at": user.CreatedAt,
		},
		"order_history": orderHistory,
	})
}

// SetUserActive activates or deactivates a user account
func (h *AdminHandler) SetUserActive(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.userService.UpdateUserActive(userID, *req.Active); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.audit(c, "set_user_active", "user", userID, map[string]interface{}{"active": *req.Active})

	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully"})
}

// ResetUserPassword resets a user's password and mails it to them
func (h *AdminHandler) ResetUserPassword(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	newPassword, err := h.adminService.ResetUserPassword(userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	go h.emailService.SendPasswordResetEmail(user.Email, user.Name, newPassword)

	h.audit(c, "reset_user_password", "user", userID, nil)

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

// --- Orders ---

// GetOrder retrieves one order for the admin panel
func (h *AdminHandler) GetOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	order, err := h.orderService.GetOrderByID(orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// VerifyPickup resolves a scanned pickup QR token (or the printed fallback
// code) to the order for the boutique counter
func (h *AdminHandler) VerifyPickup(c *gin.Context) {
	token := c.Query("token")
	code := c.Query("code")
	if token == "" && code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token or code is required"})
		return
	}

	var (
		order *models.Order
		err   error
	)
	if token != "" {
		order, err = h.orderService.GetOrderByPickupToken(token)
	} else {
		order, err = h.orderService.GetOrderByPickupCode(code)
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	items := make([]gin.H, len(order.Items))
	for i, item := range order.Items {
		items[i] = gin.H{
			"name":     item.Product.Name,
			"brand":    item.Product.Brand,
			"quantity": item.Quantity,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":     order.ID,
		"status":       order.Status,
		"customer":     order.User.Name,
		"items":        items,
		"fulfilled_at": order.FulfilledAt,
	})
}

// FulfillOrder marks a paid order as handed over at the counter
func (h *AdminHandler) FulfillOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	if err := h.orderService.MarkFulfilled(orderID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.audit(c, "fulfill_order", "order", orderID, nil)

	c.JSON(http.StatusOK, gin.H{"message": "Order marked as picked up"})
}

// AdjustProductStock applies a signed delta to a product's stock, used when
// receiving inventory or writing off breakage
func (h *AdminHandler) AdjustProductStock(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var req struct {
		Delta *int `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Delta == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "delta must be non-zero"})
		return
	}

	if err := h.productService.AdjustStock(nil, productID, *req.Delta); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.audit(c, "adjust_stock", "product", productID, map[string]interface{}{"delta": *req.Delta})

	c.JSON(http.StatusOK, gin.H{"message": "Stock adjusted"})
}

// --- Stats and audit ---

// GetDashboardStats returns admin dashboard statistics
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.adminService.GetDashboardStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve stats"})
		return
	}

	topSellers, err := h.adminService.GetTopSellingProducts(5)
	if err == nil {
		stats["top_sellers"] = topSellers
	}

	c.JSON(http.StatusOK, stats)
}

// GetAuditLogs lists recent admin actions
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	action := c.Query("action")

	var adminID *uuid.UUID
	if idStr := c.Query("admin_id"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid admin ID"})
			return
		}
		adminID = &id
	}

	logs, total, err := h.auditService.GetRecentActions(page, limit, adminID, action)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve audit logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs": logs,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetAuditStats summarizes audit activity for the dashboard
func (h *AdminHandler) GetAuditStats(c *gin.Context) {
	stats, err := h.auditService.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve audit stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
