package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/essenza/backend/internal/config"
	"github.com/essenza/backend/internal/models"
	"github.com/essenza/backend/pkg/crypto"
	"github.com/essenza/backend/pkg/jwt"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/refund"
	"gorm.io/gorm"
)

type OrderService struct {
	db           *gorm.DB
	cfg          *config.Config
	emailService *EmailService
}

func NewOrderService(db *gorm.DB, cfg *config.Config) *OrderService {
	stripe.Key = cfg.StripeSecretKey
	return &OrderService{db: db, cfg: cfg}
}

// AttachEmailService wires the email service for order notifications
func (s *OrderService) AttachEmailService(emailService *EmailService) {
	s.emailService = emailService
}

// CartItem is one requested order line.
type CartItem struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// CreateOrder validates the cart, creates a pending order and a Stripe
// checkout session for it. Stock is reserved only on payment confirmation;
// availability is checked here to fail early on obviously dead carts.
func (s *OrderService) CreateOrder(userID uuid.UUID, items []CartItem) (*models.Order, *stripe.CheckoutSession, error) {
	if len(items) == 0 {
		return nil, nil, errors.New("cart is empty")
	}

	order := &models.Order{
		UserID: userID,
		Status: "pending",
	}

	var lineItems []*stripe.CheckoutSessionLineItemParams
	for _, item := range items {
		var product models.Product
		if err := s.db.First(&product, "id = ?", item.ProductID).Error; err != nil {
			return nil, nil, fmt.Errorf("product %s not found", item.ProductID)
		}
		if !product.InStock(item.Quantity) {
			return nil, nil, fmt.Errorf("%s is out of stock", product.Name)
		}

		order.Items = append(order.Items, models.OrderItem{
			ProductID: product.ID,
			Quantity:  item.Quantity,
			UnitCents: product.PriceCents,
		})

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String("eur"),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(product.Name),
					Description: stripe.String(fmt.Sprintf("%s, %d ml", product.Brand, product.VolumeML)),
				},
				UnitAmount: stripe.Int64(product.PriceCents),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}
	order.CalculateTotal()

	pickupCode, err := crypto.RandomHex(8)
	if err != nil {
		return nil, nil, err
	}
	order.PickupCode = pickupCode

	if err := s.db.Create(order).Error; err != nil {
		return nil, nil, err
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(fmt.Sprintf("%s?order_id=%s", s.cfg.StripeSuccessURL, order.ID)),
		CancelURL:          stripe.String(s.cfg.StripeCancelURL),
		ClientReferenceID:  stripe.String(order.ID.String()),
		Metadata: map[string]string{
			"order_id": order.ID.String(),
			"user_id":  order.UserID.String(),
		},
	}

	checkoutSession, err := session.New(params)
	if err != nil {
		// Drop the pending order if Stripe refused the session
		s.db.Delete(order)
		return nil, nil, err
	}

	order.StripeSessionID = checkoutSession.ID
	if err := s.db.Save(order).Error; err != nil {
		return nil, nil, err
	}

	return order, checkoutSession, nil
}

// ConfirmPayment marks a pending order as paid, decrements stock, and sends
// the confirmation email. Called from the Stripe webhook and from the
// polling fallback; the guarded update makes double delivery harmless.
func (s *OrderService) ConfirmPayment(orderID uuid.UUID, paymentIntentID string) error {
	now := time.Now().UTC()
	result := s.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, "pending").
		Updates(map[string]interface{}{
			"status":                   "paid",
			"paid_at":                  now,
			"stripe_payment_intent_id": paymentIntentID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("order not found or already paid")
	}

	var order models.Order
	if err := s.db.Preload("Items").Preload("Items.Product").Preload("User").
		First(&order, "id = ?", orderID).Error; err != nil {
		return err
	}

	// Decrement stock per line; an oversold line is logged, not rolled back,
	// since the payment already happened.
	for _, item := range order.Items {
		result := s.db.Model(&models.Product{}).
			Where("id = ?", item.ProductID).
			Update("stock_count", gorm.Expr("GREATEST(stock_count - ?, 0)", item.Quantity))
		if result.Error != nil {
			log.Printf("WARN: stock decrement failed for product %s: %v", item.ProductID, result.Error)
		}
	}

	if s.emailService != nil {
		go func() {
			if err := s.emailService.SendOrderConfirmation(&order); err != nil {
				log.Printf("WARN: order confirmation email failed for %s: %v", order.ID, err)
			}
		}()
	}

	return nil
}

// CancelOrder cancels a pending order, or refunds and cancels a paid one
// within the cancellation window.
func (s *OrderService) CancelOrder(orderID, userID uuid.UUID) error {
	var order models.Order
	if err := s.db.Preload("Items").Preload("User").First(&order, "id = ? AND user_id = ?", orderID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("order not found")
		}
		return err
	}

	now := time.Now().UTC()
	switch order.Status {
	case "pending":
		if err := s.db.Model(&order).Updates(map[string]interface{}{
			"status":       "cancelled",
			"cancelled_at": now,
		}).Error; err != nil {
			return err
		}
		s.notifyCancellation(&order, false)
		return nil

	case "paid":
		if !order.CanBeCancelled() {
			return errors.New("order can no longer be cancelled")
		}
		if order.StripePaymentIntentID != "" {
			_, err := refund.New(&stripe.RefundParams{
				PaymentIntent: stripe.String(order.StripePaymentIntentID),
			})
			if err != nil {
				return fmt.Errorf("refund failed: %w", err)
			}
		}
		// Return the stock
		for _, item := range order.Items {
			s.db.Model(&models.Product{}).
				Where("id = ?", item.ProductID).
				Update("stock_count", gorm.Expr("stock_count + ?", item.Quantity))
		}
		if err := s.db.Model(&order).Updates(map[string]interface{}{
			"status":                "refunded",
			"refunded_amount_cents": order.TotalCents,
			"cancelled_at":          now,
		}).Error; err != nil {
			return err
		}
		s.notifyCancellation(&order, true)
		return nil

	default:
		return errors.New("order cannot be cancelled in its current state")
	}
}

func (s *OrderService) notifyCancellation(order *models.Order, refunded bool) {
	if s.emailService == nil || order.User.Email == "" {
		return
	}
	data := map[string]interface{}{
		"Name":       order.User.Name,
		"OrderID":    order.ID.String(),
		"TotalEuros": centsToEuros(order.TotalCents),
		"Refunded":   refunded,
	}
	go func() {
		if err := s.emailService.SendCancellationConfirmation(order.User.Email, data); err != nil {
			log.Printf("WARN: failed to send cancellation email for order %s: %v", order.ID, err)
		}
	}()
}

// GetUserOrders returns a user's orders, newest first.
func (s *OrderService) GetUserOrders(userID uuid.UUID) ([]*models.Order, error) {
	var orders []*models.Order
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Preload("Items").
		Preload("Items.Product").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrderByID retrieves one order with its lines.
func (s *OrderService) GetOrderByID(orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items").Preload("Items.Product").Preload("User").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("order not found")
		}
		return nil, err
	}
	return &order, nil
}

// CheckPendingPayments polls Stripe for pending orders whose webhook may
// have been lost, confirming any that completed. Fallback path only.
func (s *OrderService) CheckPendingPayments() (int, error) {
	var orders []*models.Order
	cutoff := time.Now().Add(-30 * time.Minute)
	err := s.db.Where("status = ? AND created_at > ? AND stripe_session_id <> ''", "pending", cutoff).
		Find(&orders).Error
	if err != nil {
		return 0, err
	}

	confirmed := 0
	for _, order := range orders {
		sess, err := session.Get(order.StripeSessionID, nil)
		if err != nil {
			log.Printf("WARN: stripe session lookup failed for order %s: %v", order.ID, err)
			continue
		}
		if sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
			paymentIntentID := ""
			if sess.PaymentIntent != nil {
				paymentIntentID = sess.PaymentIntent.ID
			}
			if err := s.ConfirmPayment(order.ID, paymentIntentID); err != nil {
				log.Printf("WARN: fallback confirmation failed for order %s: %v", order.ID, err)
				continue
			}
			confirmed++
		}
	}
	return confirmed, nil
}

// CleanupStalePending cancels pending orders older than 30 minutes whose
// checkout was abandoned.
func (s *OrderService) CleanupStalePending() (int, error) {
	cutoff := time.Now().Add(-30 * time.Minute)
	result := s.db.Model(&models.Order{}).
		Where("status = ? AND created_at < ?", "pending", cutoff).
		Updates(map[string]interface{}{
			"status":       "cancelled",
			"cancelled_at": time.Now().UTC(),
		})
	return int(result.RowsAffected), result.Error
}

// GetOrderByPickupToken resolves the signed token from a scanned pickup QR
// code to its order.
func (s *OrderService) GetOrderByPickupToken(token string) (*models.Order, error) {
	claims, err := jwt.ValidateToken(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, errors.New("invalid or expired pickup token")
	}
	if claims.TokenType != jwt.PickupToken || claims.OrderID == "" {
		return nil, errors.New("invalid or expired pickup token")
	}
	orderID, err := uuid.Parse(claims.OrderID)
	if err != nil {
		return nil, errors.New("invalid or expired pickup token")
	}
	return s.GetOrderByID(orderID)
}

// GetOrderByPickupCode resolves the human-readable code printed on the
// pickup document. Fallback for when the QR scan fails at the counter.
func (s *OrderService) GetOrderByPickupCode(code string) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items").Preload("Items.Product").Preload("User").
		First(&order, "pickup_code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("order not found")
		}
		return nil, err
	}
	return &order, nil
}

// MarkFulfilled records the in-store handover of a paid order.
func (s *OrderService) MarkFulfilled(orderID uuid.UUID) error {
	result := s.db.Model(&models.Order{}).
		Where("id = ? AND status = ? AND fulfilled_at IS NULL", orderID, "paid").
		Update("fulfilled_at", time.Now().UTC())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("order is not paid or was already picked up")
	}
	return nil
}

// SendPickupReminders mails customers whose paid order has been waiting at
// the boutique for a few days. Each order is reminded at most once.
func (s *OrderService) SendPickupReminders() (int, error) {
	if s.emailService == nil {
		return 0, nil
	}

	cutoff := time.Now().UTC().Add(-3 * 24 * time.Hour)
	var orders []*models.Order
	err := s.db.Preload("User").
		Where("status = ? AND paid_at < ? AND fulfilled_at IS NULL AND pickup_reminder_sent_at IS NULL", "paid", cutoff).
		Limit(50).
		Find(&orders).Error
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, order := range orders {
		data := map[string]interface{}{
			"Name":       order.User.Name,
			"OrderID":    order.ID.String(),
			"PickupCode": order.PickupCode,
			"OrdersURL":  s.cfg.FrontendURL + "/orders",
		}
		if err := s.emailService.SendPickupReminder(order.User.Email, data); err != nil {
			log.Printf("WARN: failed to send pickup reminder for order %s: %v", order.ID, err)
			continue
		}
		if err := s.db.Model(order).Update("pickup_reminder_sent_at", time.Now().UTC()).Error; err != nil {
			log.Printf("ERROR: failed to stamp pickup reminder for order %s: %v", order.ID, err)
			continue
		}
		sent++
	}
	return sent, nil
}
