package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Order struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Status      string    `gorm:"not null;default:'pending'" json:"status"` // pending, paid, cancelled, refunded
	TotalCents  int64     `gorm:"not null" json:"total_cents"`
	// PickupCode is printed as a QR code on the order documents and shown at
	// the boutique counter for in-store pickup.
	PickupCode string `gorm:"size:32;uniqueIndex" json:"pickup_code,omitempty"`

	StripeSessionID       string `json:"-"`
	StripePaymentIntentID string `json:"-"`

	RefundedAmountCents int64      `json:"refunded_amount_cents,omitempty"`
	PaidAt              *time.Time `json:"paid_at,omitempty"`
	CancelledAt         *time.Time `json:"cancelled_at,omitempty"`
	// FulfilledAt is stamped when the boutique hands the order over.
	FulfilledAt *time.Time `json:"fulfilled_at,omitempty"`
	// PickupReminderSentAt guards against re-sending the pickup reminder.
	PickupReminderSentAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	// Relations
	User  User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// CalculateTotal sums the line items into TotalCents.
func (o *Order) CalculateTotal() {
	var total int64
	for _, item := range o.Items {
		total += item.UnitCents * int64(item.Quantity)
	}
	o.TotalCents = total
}

// CanBeCancelled checks whether the user may still cancel: only paid orders
// that have not been picked up, within 14 days of purchase.
func (o *Order) CanBeCancelled() bool {
	if o.Status != "paid" || o.PaidAt == nil || o.FulfilledAt != nil {
		return false
	}
	return time.Since(*o.PaidAt).Hours() <= 14*24
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	// UnitCents snapshots the product price at purchase time.
	UnitCents int64 `gorm:"not null" json:"unit_cents"`

	CreatedAt time.Time `json:"created_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
