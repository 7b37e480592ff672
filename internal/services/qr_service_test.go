package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/essenza/backend/internal/config"
	"github.com/essenza/backend/internal/models"
	"github.com/google/uuid"
)

func testOrder(status string) *models.Order {
	paidAt := time.Now().Add(-time.Hour)
	order := &models.Order{
		ID:         uuid.New(),
		Status:     status,
		PickupCode: "a1b2c3d4e5f60718",
		TotalCents: 17800,
		User:       models.User{Name: "Claire Fontaine"},
		Items: []models.OrderItem{
			{Quantity: 2, UnitCents: 8900, Product: models.Product{Name: "Nuit Ambree", Brand: "Essenza"}},
		},
	}
	if status == "paid" || status == "refunded" {
		order.PaidAt = &paidAt
	}
	return order
}

func newTestQRService() *QRService {
	return NewQRService(&config.Config{
		FrontendURL: "https://essenza.example",
		JWTSecret:   "test-secret",
	})
}

func TestGenerateOrderPickupPDF(t *testing.T) {
	s := newTestQRService()

	pdf, err := s.GenerateOrderPickupPDF(testOrder("paid"))
	if err != nil {
		t.Fatalf("GenerateOrderPickupPDF: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("output is not a PDF document")
	}
}

func TestGenerateOrderInvoicePDF(t *testing.T) {
	s := newTestQRService()

	pdf, err := s.GenerateOrderInvoicePDF(testOrder("paid"))
	if err != nil {
		t.Fatalf("GenerateOrderInvoicePDF: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("output is not a PDF document")
	}
}

func TestGenerateOrderInvoicePDFRejectsPending(t *testing.T) {
	s := newTestQRService()

	if _, err := s.GenerateOrderInvoicePDF(testOrder("pending")); err == nil {
		t.Error("expected an error for a pending order")
	}
}

func TestFormatEuros(t *testing.T) {
	if got := formatEuros(8900); got != "89.00 EUR" {
		t.Errorf("formatEuros(8900) = %q", got)
	}
	if got := formatEuros(5); got != "0.05 EUR" {
		t.Errorf("formatEuros(5) = %q", got)
	}
}
