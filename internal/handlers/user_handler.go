package handlers

import (
	"fmt"
	"net/http"

	"github.com/essenza/backend/internal/services"
	"github.com/essenza/backend/pkg/validation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserHandler struct {
	userService  *services.UserService
	orderService *services.OrderService
	qrService    *services.QRService
}

func NewUserHandler(userService *services.UserService, orderService *services.OrderService, qrService *services.QRService) *UserHandler {
	return &UserHandler{
		userService:  userService,
		orderService: orderService,
		qrService:    qrService,
	}
}

// GetProfile retrieves the current user's profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, _ := c.Get("userID")

	user, err := h.userService.GetUserByID(userID.(uuid.UUID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"name":       user.Name,
		"created_at": user.CreatedAt,
	})
}

// UpdateProfile updates the current user's profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, _ := c.Get("userID")

	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := make(map[string]interface{})
	if name := validation.SanitizeString(req.Name); name != "" {
		updates["name"] = name
	}
	if req.Email != "" {
		if !validation.ValidateEmail(req.Email) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
			return
		}
		updates["email"] = req.Email
	}

	if err := h.userService.UpdateUserProfile(userID.(uuid.UUID), updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
}

// Checkout creates an order from the cart and returns the payment URL
func (h *UserHandler) Checkout(c *gin.Context) {
	userID, _ := c.Get("userID")

	var req struct {
		Items []services.CartItem `json:"items" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, item := range req.Items {
		if !validation.ValidateQuantity(item.Quantity) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid quantity for product %s", item.ProductID)})
			return
		}
	}

	order, checkoutSession, err := h.orderService.CreateOrder(userID.(uuid.UUID), req.Items)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":     order.ID,
		"checkout_url": checkoutSession.URL,
	})
}

// GetOrders retrieves the current user's orders
func (h *UserHandler) GetOrders(c *gin.Context) {
	userID, _ := c.Get("userID")

	orders, err := h.orderService.GetUserOrders(userID.(uuid.UUID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve orders"})
		return
	}

	orderList := make([]gin.H, len(orders))
	for i, order := range orders {
		items := make([]gin.H, len(order.Items))
		for j, item := range order.Items {
			items[j] = gin.H{
				"product_id": item.ProductID,
				"name":       item.Product.Name,
				"brand":      item.Product.Brand,
				"quantity":   item.Quantity,
				"unit_cents": item.UnitCents,
			}
		}
		entry := gin.H{
			"id":           order.ID,
			"status":       order.Status,
			"total_cents":  order.TotalCents,
			"items":        items,
			"created_at":   order.CreatedAt,
			"paid_at":      order.PaidAt,
			"cancelled_at": order.CancelledAt,
			"fulfilled_at": order.FulfilledAt,
		}
		if order.Status == "paid" {
			entry["pickup_code"] = order.PickupCode
		}
		orderList[i] = entry
	}

	c.JSON(http.StatusOK, gin.H{"orders": orderList})
}

// CancelOrder cancels or refunds one of the user's orders
func (h *UserHandler) CancelOrder(c *gin.Context) {
	userID, _ := c.Get("userID")

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	if err := h.orderService.CancelOrder(orderID, userID.(uuid.UUID)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled successfully"})
}

// GetOrderPickupPDF streams the pickup QR code PDF for a paid order
func (h *UserHandler) GetOrderPickupPDF(c *gin.Context) {
	userID, _ := c.Get("userID")

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
	if order.UserID != userID.(uuid.UUID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your order"})
		return
	}
	if order.Status != "paid" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Order is not paid"})
		return
	}

	pdf, err := h.qrService.GenerateOrderPickupPDF(order)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"pickup-%s.pdf\"", order.ID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// GetOrderInvoicePDF streams the invoice PDF for a paid or refunded order
func (h *UserHandler) GetOrderInvoicePDF(c *gin.Context) {
	userID, _ := c.Get("userID")

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
	if order.UserID != userID.(uuid.UUID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your order"})
		return
	}

	pdf, err := h.qrService.GenerateOrderInvoicePDF(order)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"invoice-%s.pdf\"", order.ID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
