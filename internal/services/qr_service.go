package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/essenza/backend/internal/config"
	"github.com/essenza/backend/internal/models"
	"github.com/essenza/backend/pkg/jwt"
	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// pickupTokenTTL bounds how long a printed pickup QR stays scannable. The
// human-readable code on the same document never expires.
const pickupTokenTTL = 60 * 24 * time.Hour

type QRService struct {
	cfg *config.Config
}

func NewQRService(cfg *config.Config) *QRService { return &QRService{cfg: cfg} }

// GenerateOrderPickupPDF generates an A4 PDF with the pickup QR code that the
// boutique scans when the customer collects their order
func (s *QRService) GenerateOrderPickupPDF(order *models.Order) ([]byte, error) {
	token, err := jwt.GeneratePickupToken(order.ID.String(), s.cfg.JWTSecret, pickupTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign pickup token: %w", err)
	}
	pickupURL := fmt.Sprintf("%s/pickup?t=%s", s.cfg.FrontendURL, token)

	var qrBuf bytes.Buffer
	png, err := qrcode.Encode(pickupURL, qrcode.Medium, 512)
	if err != nil {
		return nil, err
	}
	qrBuf.Write(png)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, "Essenza Click & Collect")
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 6, fmt.Sprintf("Order: %s\nPickup code: %s", order.ID, order.PickupCode), "", "L", false)

	opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("qr", opt, bytes.NewReader(qrBuf.Bytes()))

	// A4 width 210mm, QR size 100mm
	x := (210.0 - 100.0) / 2.0
	y := pdf.GetY() + 10
	pdf.ImageOptions("qr", x, y, 100, 100, false, opt, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// GenerateOrderInvoicePDF renders a simple invoice for a paid order
func (s *QRService) GenerateOrderInvoicePDF(order *models.Order) ([]byte, error) {
	if order.Status != "paid" && order.Status != "refunded" {
		return nil, fmt.Errorf("no invoice for %s orders", order.Status)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, "Essenza - Invoice")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	issued := time.Now()
	if order.PaidAt != nil {
		issued = *order.PaidAt
	}
	pdf.MultiCell(0, 6, fmt.Sprintf("Invoice for order %s\nCustomer: %s\nDate: %s",
		order.ID, order.User.Name, issued.Format("2006-01-02")), "", "L", false)
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(100, 8, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Unit", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Total", "B", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, item := range order.Items {
		name := item.Product.Name
		if item.Product.Brand != "" {
			name = fmt.Sprintf("%s (%s)", name, item.Product.Brand)
		}
		pdf.CellFormat(100, 8, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%d", item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, formatEuros(item.UnitCents), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, formatEuros(item.UnitCents*int64(item.Quantity)), "", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(155, 8, "Total", "T", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, formatEuros(order.TotalCents), "T", 1, "R", false, 0, "")

	if order.Status == "refunded" {
		pdf.Ln(4)
		pdf.SetFont("Arial", "I", 11)
		pdf.CellFormat(0, 8, fmt.Sprintf("Refunded: %s", formatEuros(order.RefundedAmountCents)), "", 1, "L", false, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func formatEuros(cents int64) string {
	return fmt.Sprintf("%.2f EUR", float64(cents)/100)
}
