package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"path/filepath"

	"github.com/essenza/backend/internal/config"
	"github.com/essenza/backend/internal/models"
)

var emailTemplates = []string{
	"registration_confirmation.html",
	"order_confirmation.html",
	"order_cancellation.html",
	"pickup_reminder.html",
}

type EmailService struct {
	cfg       *config.Config
	templates map[string]*template.Template
}

// NewEmailService parses the HTML templates up front. A missing template is
// logged and surfaces later as a send error rather than crashing startup.
func NewEmailService(cfg *config.Config) *EmailService {
	s := &EmailService{
		cfg:       cfg,
		templates: make(map[string]*template.Template, len(emailTemplates)),
	}
	for _, name := range emailTemplates {
		tmpl, err := template.ParseFiles(filepath.Join("templates", name))
		if err != nil {
			log.Printf("WARN: email template %s not loaded: %v", name, err)
			continue
		}
		s.templates[name] = tmpl
	}
	return s
}

// SendRegistrationConfirmation welcomes a newly registered customer
func (s *EmailService) SendRegistrationConfirmation(to, name, username, email string) error {
	return s.sendTemplate(to, "Bienvenue chez Essenza !", "registration_confirmation.html", map[string]interface{}{
		"Name":     name,
		"Username": username,
		"Email":    email,
		"LoginURL": s.cfg.FrontendURL + "/login",
	})
}

// SendOrderConfirmation sends the paid-order confirmation with the pickup code
func (s *EmailService) SendOrderConfirmation(order *models.Order) error {
	items := make([]map[string]interface{}, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, map[string]interface{}{
			"Name":      item.Product.Name,
			"Brand":     item.Product.Brand,
			"Quantity":  item.Quantity,
			"LineEuros": centsToEuros(item.UnitCents * int64(item.Quantity)),
		})
	}

	return s.sendTemplate(order.User.Email, "Confirmation de commande - Essenza", "order_confirmation.html", map[string]interface{}{
		"Name":       order.User.Name,
		"OrderID":    order.ID.String(),
		"Items":      items,
		"TotalEuros": centsToEuros(order.TotalCents),
		"PickupCode": order.PickupCode,
		"OrdersURL":  s.cfg.FrontendURL + "/orders",
	})
}

// SendCancellationConfirmation confirms an order cancellation or refund
func (s *EmailService) SendCancellationConfirmation(to string, data map[string]interface{}) error {
	return s.sendTemplate(to, "Annulation de commande - Essenza", "order_cancellation.html", data)
}

// SendPickupReminder reminds a customer their order is waiting in the boutique
func (s *EmailService) SendPickupReminder(to string, data map[string]interface{}) error {
	return s.sendTemplate(to, "Votre commande vous attend - Essenza", "pickup_reminder.html", data)
}

// SendPasswordResetEmail sends the admin-reset password as plain text
func (s *EmailService) SendPasswordResetEmail(to, name, newPassword string) error {
	body := fmt.Sprintf(`Bonjour %s,

Votre mot de passe a été réinitialisé.

Votre nouveau mot de passe : %s

Merci de vous connecter avec ce mot de passe et de le changer immédiatement dans les paramètres de votre compte.

Cordialement,
L'équipe Essenza`, name, newPassword)

	return s.SendGenericTextEmail(to, "Mot de passe réinitialisé - Essenza", body)
}

// SendGenericTextEmail sends a plain text email with the given subject and body
func (s *EmailService) SendGenericTextEmail(to, subject, body string) error {
	return s.deliver(to, s.composeMessage(to, subject, "text/plain", body))
}

func (s *EmailService) sendTemplate(to, subject, name string, data interface{}) error {
	tmpl, ok := s.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return s.deliver(to, s.composeMessage(to, subject, "text/html", body.String()))
}

func (s *EmailService) composeMessage(to, subject, contentType, body string) []byte {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", s.cfg.SMTPFromName, s.cfg.SMTPFrom)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: %s; charset=\"UTF-8\"\r\n", contentType)
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return msg.Bytes()
}

// deliver hands the message to the SMTP server. Port 465 speaks implicit TLS,
// anything else goes through SendMail which negotiates STARTTLS.
func (s *EmailService) deliver(to string, message []byte) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	if s.cfg.SMTPPort == 465 {
		return s.deliverImplicitTLS(addr, auth, to, message)
	}
	return smtp.SendMail(addr, auth, s.cfg.SMTPFrom, []string{to}, message)
}

func (s *EmailService) deliverImplicitTLS(addr string, auth smtp.Auth, to string, message []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.SMTPHost})
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(message); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func centsToEuros(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100)
}
