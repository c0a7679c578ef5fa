package utils

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"luxvision/models"
)

// Message is a transactional email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// PostmarkMailer sends email through Postmark.
type PostmarkMailer struct {
	client *postmark.Client
	from   string
}

// NewPostmarkMailer returns a Mailer using the Postmark server token.
func NewPostmarkMailer(token, from string) *PostmarkMailer {
	return &PostmarkMailer{client: postmark.NewClient(token, ""), from: from}
}

func (pm *PostmarkMailer) Send(_ context.Context, m Message) error {
	_, err := pm.client.SendEmail(postmark.Email{
		From:     pm.from,
		To:       m.To,
		Subject:  m.Subject,
		HtmlBody: m.HTMLBody,
		TextBody: m.TextBody,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendGridMailer sends email through SendGrid.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendGridMailer returns a Mailer using the SendGrid API key.
func NewSendGridMailer(apiKey, from string) *SendGridMailer {
	return &SendGridMailer{client: sendgrid.NewSendClient(apiKey), from: mail.NewEmail("LuxVision", from)}
}

func (sg *SendGridMailer) Send(ctx context.Context, m Message) error {
	msg := mail.NewSingleEmail(sg.from, m.Subject, mail.NewEmail("", m.To), m.TextBody, m.HTMLBody)
	resp, err := sg.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to send email: sendgrid status %d", resp.StatusCode)
	}
	return nil
}

// NopMailer drops every message. It is used when no provider is configured.
type NopMailer struct{}

func (NopMailer) Send(context.Context, Message) error { return nil }

// EmailService renders the order notifications and hands them to a Mailer.
type EmailService struct {
	mailer Mailer
	log    *zap.Logger
}

// NewEmailService initializes and returns a new EmailService instance
func NewEmailService(m Mailer, log *zap.Logger) *EmailService {
	if m == nil {
		m = NopMailer{}
	}
	return &EmailService{mailer: m, log: log}
}

func (es *EmailService) send(ctx context.Context, m Message) error {
	if err := es.mailer.Send(ctx, m); err != nil {
		return err
	}
	es.log.Debug("Email sent", zap.String("to", m.To), zap.String("subject", m.Subject))
	return nil
}

// SendOrderConfirmationEmail tells the customer the order was placed.
func (es *EmailService) SendOrderConfirmationEmail(ctx context.Context, to string, o *models.Order) error {
	var lines strings.Builder
	for _, it := range o.Items {
		fmt.Fprintf(&lines, "<li>%s x%d : %s</li>", html.EscapeString(it.ProductName), it.Quantity, FormatPrice(it.Subtotal))
	}
	body := fmt.Sprintf(
		"<strong>Bonjour %s,</strong><br><br>Merci pour votre commande <strong>%s</strong>.<ul>%s</ul>Livraison : %s<br>Total : <strong>%s</strong><br>Mode de paiement : %s<br><br>L'équipe LuxVision",
		html.EscapeString(o.ShippingAddress.FirstName),
		o.OrderNumber,
		lines.String(),
		FormatPrice(o.ShippingCost),
		FormatPrice(o.TotalAmount),
		o.PaymentMethod,
	)
	return es.send(ctx, Message{
		To:       to,
		Subject:  "Confirmation de commande " + o.OrderNumber,
		HTMLBody: body,
		TextBody: fmt.Sprintf("Merci pour votre commande %s. Total : %s.", o.OrderNumber, FormatPrice(o.TotalAmount)),
	})
}

var statusLabels = map[models.OrderStatus]string{
	models.OrderPending:    "en attente",
	models.OrderConfirmed:  "confirmée",
	models.OrderProcessing: "en préparation",
	models.OrderShipped:    "expédiée",
	models.OrderDelivered:  "livrée",
	models.OrderCancelled:  "annulée",
}

// SendOrderStatusEmail tells the customer the fulfilment state changed.
func (es *EmailService) SendOrderStatusEmail(ctx context.Context, to string, o *models.Order) error {
	text := fmt.Sprintf("Votre commande %s est désormais %s.", o.OrderNumber, statusLabels[o.Status])
	return es.send(ctx, Message{
		To:       to,
		Subject:  "Mise à jour de votre commande " + o.OrderNumber,
		HTMLBody: "<p>" + html.EscapeString(text) + "</p>",
		TextBody: text,
	})
}

var paymentLabels = map[models.PaymentStatus]string{
	models.PaymentPending:  "en attente",
	models.PaymentPaid:     "reçu",
	models.PaymentFailed:   "échoué",
	models.PaymentRefunded: "remboursé",
}

// SendPaymentStatusEmail tells the customer the payment state changed.
func (es *EmailService) SendPaymentStatusEmail(ctx context.Context, to string, o *models.Order) error {
	text := fmt.Sprintf("Paiement de la commande %s : %s.", o.OrderNumber, paymentLabels[o.PaymentStatus])
	return es.send(ctx, Message{
		To:       to,
		Subject:  "Paiement de votre commande " + o.OrderNumber,
		HTMLBody: "<p>" + html.EscapeString(text) + "</p>",
		TextBody: text,
	})
}

// FormatPrice renders an FCFA amount with space separated thousands, e.g. "195 000 FCFA".
func FormatPrice(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteString(" FCFA")
	return b.String()
}
