package services

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"

	"rbxmart_echo/internal/models"
)

type EmailService struct {
	host     string
	port     string
	user     string
	password string
	from     string
}

func NewEmailService() *EmailService {
	return &EmailService{
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		user:     os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASS"),
		from:     os.Getenv("EMAIL_FROM"),
	}
}

func (s *EmailService) SendEmail(to []string, subject, body string) error {
	if s.host == "" || s.port == "" || s.user == "" || s.password == "" {
		return fmt.Errorf("SMTP credentials not fully configured")
	}

	auth := smtp.PlainAuth("", s.user, s.password, s.host)

	// Build the message
	message := []byte(fmt.Sprintf("To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", to[0], subject, body))

	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	err := smtp.SendMail(addr, auth, s.from, to, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SendInvoiceEmail mails the buyer after a bundle is persisted, listing every
// item and where to pay
func (s *EmailService) SendInvoiceEmail(bundle []models.Transaction) error {
	if len(bundle) == 0 {
		return fmt.Errorf("empty bundle")
	}
	primary := bundle[0]

	var b strings.Builder
	fmt.Fprintf(&b, "Halo %s,\n\n", primary.CustomerName)
	fmt.Fprintf(&b, "Pesanan kamu dengan nomor order %s sudah kami terima.\n\n", primary.GatewayOrderID)
	for _, row := range bundle {
		fmt.Fprintf(&b, "- %s x%d: Rp%d (invoice %s)\n", row.ServiceName, row.Quantity, row.FinalAmount, row.InvoiceID)
	}
	if fee := BundlePaymentFee(bundle); fee > 0 {
		fmt.Fprintf(&b, "- Biaya admin: Rp%d\n", fee)
	}
	fmt.Fprintf(&b, "\nTotal pembayaran: Rp%d\n", BundleGrandTotal(bundle))
	if primary.RedirectURL != "" {
		fmt.Fprintf(&b, "Selesaikan pembayaran di: %s\n", primary.RedirectURL)
	}
	if primary.VANumber != "" {
		fmt.Fprintf(&b, "Nomor virtual account: %s\n", primary.VANumber)
	}

	subject := fmt.Sprintf("Invoice %s - menunggu pembayaran", primary.GatewayOrderID)
	return s.SendEmail([]string{primary.CustomerEmail}, subject, b.String())
}

// SendSettlementEmail mails the buyer after the gateway confirms payment
func (s *EmailService) SendSettlementEmail(bundle []models.Transaction) error {
	if len(bundle) == 0 {
		return fmt.Errorf("empty bundle")
	}
	primary := bundle[0]

	var b strings.Builder
	fmt.Fprintf(&b, "Halo %s,\n\n", primary.CustomerName)
	fmt.Fprintf(&b, "Pembayaran untuk order %s sebesar Rp%d sudah kami terima.\n", primary.GatewayOrderID, BundleGrandTotal(bundle))
	fmt.Fprintf(&b, "Pesananmu sekarang sedang diproses.\n")

	subject := fmt.Sprintf("Pembayaran diterima - order %s", primary.GatewayOrderID)
	return s.SendEmail([]string{primary.CustomerEmail}, subject, b.String())
}
