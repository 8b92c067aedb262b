package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v2"
	"github.com/rentora/rentora-api/internal/config"
	"github.com/rentora/rentora-api/internal/models"
	"github.com/rentora/rentora-api/pkg/logger"
)

//go:embed templates/email/*.html
var emailTemplates embed.FS

type EmailService struct {
	config       *config.Config
	resendClient *resend.Client
}

func NewEmailService(cfg *config.Config) *EmailService {
	client := resend.NewClient(cfg.ResendAPIKey)
	return &EmailService{
		config:       cfg,
		resendClient: client,
	}
}

type OverdueObligationData struct {
	Vehicle     string
	Amount      string
	LateFee     string
	DueDate     string
	DaysOverdue int
}

func (s *EmailService) SendOverdueObligations(ctx context.Context, customer *models.Customer, obligations []models.PaymentObligation) error {
	var items []OverdueObligationData
	for _, o := range obligations {
		dueDate := ""
		if o.DueDate != nil {
			dueDate = o.DueDate.Format("02/01/2006")
		}
		items = append(items, OverdueObligationData{
			Vehicle:     o.Lease.Vehicle.Label(),
			Amount:      fmt.Sprintf("$%.2f", o.Amount),
			LateFee:     fmt.Sprintf("$%.2f", o.LateFeeAmount),
			DueDate:     dueDate,
			DaysOverdue: o.DaysOverdue,
		})
	}

	data := struct {
		Name        string
		Obligations []OverdueObligationData
	}{
		Name:        customer.FullName,
		Obligations: items,
	}

	body, err := s.renderTemplate("overdue_obligations.html", data)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Overdue rent payments (%d)", len(obligations))
	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{customer.Email},
		Subject: subject,
		Html:    body,
	}
	_, err = s.resendClient.Emails.Send(params)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to send email to %s: %v", customer.Email, err))
		return err
	}

	logger.Info(fmt.Sprintf("📧 [Email Sent] To: %s | Subject: %s", customer.Email, subject))
	return nil
}

func (s *EmailService) SendPaymentReceipt(ctx context.Context, customer *models.Customer, lease *models.Lease, amount float64, transactionID string) error {
	data := struct {
		Name          string
		Vehicle       string
		Amount        string
		TransactionID string
	}{
		Name:          customer.FullName,
		Vehicle:       lease.Vehicle.Label(),
		Amount:        fmt.Sprintf("$%.2f", amount),
		TransactionID: transactionID,
	}

	body, err := s.renderTemplate("payment_receipt.html", data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{customer.Email},
		Subject: "Payment received",
		Html:    body,
	}
	_, err = s.resendClient.Emails.Send(params)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to send email to %s: %v", customer.Email, err))
		return err
	}

	logger.Info(fmt.Sprintf("📧 [Email Sent] To: %s | Subject: Payment received", customer.Email))
	return nil
}

func (s *EmailService) SendLeaseActivated(ctx context.Context, customer *models.Customer, lease *models.Lease) error {
	startDate := ""
	if lease.StartDate != nil {
		startDate = lease.StartDate.Format("02/01/2006")
	}
	endDate := ""
	if lease.EndDate != nil {
		endDate = lease.EndDate.Format("02/01/2006")
	}

	data := struct {
		Name        string
		Vehicle     string
		MonthlyRent string
		StartDate   string
		EndDate     string
		DueDay      int
	}{
		Name:        customer.FullName,
		Vehicle:     lease.Vehicle.Label(),
		MonthlyRent: fmt.Sprintf("$%.2f", lease.MonthlyRent),
		StartDate:   startDate,
		EndDate:     endDate,
		DueDay:      lease.EffectiveDueDay(),
	}

	body, err := s.renderTemplate("lease_activated.html", data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.config.FromEmail,
		To:      []string{customer.Email},
		Subject: "Your lease is active",
		Html:    body,
	}
	_, err = s.resendClient.Emails.Send(params)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to send email to %s: %v", customer.Email, err))
		return err
	}

	logger.Info(fmt.Sprintf("📧 [Email Sent] To: %s | Subject: Your lease is active", customer.Email))
	return nil
}

func (s *EmailService) renderTemplate(name string, data interface{}) (string, error) {
	tmpl, err := template.ParseFS(emailTemplates, "templates/email/"+name)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
