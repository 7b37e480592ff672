package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/essenza/backend/internal/config"
	"github.com/essenza/backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Stripe recommends capping webhook bodies to protect against payload abuse
const stripeMaxBodyBytes = int64(65536)

type StripeHandler struct {
	orderService *services.OrderService
	cfg          *config.Config
}

func NewStripeHandler(orderService *services.OrderService, cfg *config.Config) *StripeHandler {
	return &StripeHandler{
		orderService: orderService,
		cfg:          cfg,
	}
}

// HandleWebhook verifies and dispatches incoming Stripe events. Payment
// confirmation rides on checkout.session.completed; the payment_intent
// events are logged for traceability only.
func (h *StripeHandler) HandleWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, stripeMaxBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Printf("ERROR: failed to read webhook body: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.cfg.StripeWebhookSecret)
	if err != nil {
		log.Printf("ERROR: webhook signature verification failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	log.Printf("INFO: stripe event %s (%s)", event.Type, event.ID)

	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(c, event)
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		h.logPaymentIntent(c, event)
	default:
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Unhandled event type"})
	}
}

func (h *StripeHandler) handleCheckoutCompleted(c *gin.Context, event stripe.Event) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		log.Printf("ERROR: failed to parse %s payload: %v", event.Type, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error parsing webhook JSON"})
		return
	}

	orderID, err := uuid.Parse(session.Metadata["order_id"])
	if err != nil {
		log.Printf("ERROR: session %s carries no usable order_id metadata", session.ID)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var paymentIntentID string
	if session.PaymentIntent != nil {
		paymentIntentID = session.PaymentIntent.ID
	}

	if err := h.orderService.ConfirmPayment(orderID, paymentIntentID); err != nil {
		log.Printf("ERROR: failed to confirm payment for order %s: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm payment"})
		return
	}

	log.Printf("INFO: payment confirmed for order %s", orderID)
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Payment confirmed"})
}

func (h *StripeHandler) logPaymentIntent(c *gin.Context, event stripe.Event) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		log.Printf("ERROR: failed to parse %s payload: %v", event.Type, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error parsing webhook JSON"})
		return
	}

	if event.Type == "payment_intent.payment_failed" {
		var reason string
		if intent.LastPaymentError != nil {
			reason = intent.LastPaymentError.Msg
		}
		log.Printf("WARN: payment failed for intent %s: %s", intent.ID, reason)
	} else {
		log.Printf("INFO: payment intent %s succeeded", intent.ID)
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
