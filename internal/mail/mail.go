// Package mail sends transactional email. Production uses SMTP via
// go-mail; development falls back to a logger so no mail server is
// needed locally.
package mail

import (
	"fmt"
	"log/slog"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"bimberek/internal/models"
)

// Notifier delivers order lifecycle notifications.
type Notifier interface {
	// OrderPaid confirms a successful payment to the customer.
	OrderPaid(to string, order *models.Order) error
}

// SMTPNotifier sends mail through an SMTP relay.
type SMTPNotifier struct {
	client *gomail.Client
	from   string
}

// NewSMTPNotifier connects the notifier to an SMTP relay.
func NewSMTPNotifier(host string, port int, username, password, from string) (*SMTPNotifier, error) {
	client, err := gomail.NewClient(host,
		gomail.WithPort(port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(username),
		gomail.WithPassword(password),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPNotifier{client: client, from: from}, nil
}

// OrderPaid sends the payment confirmation with an item summary.
func (n *SMTPNotifier) OrderPaid(to string, order *models.Order) error {
	msg := gomail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("order mail from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("order mail to: %w", err)
	}
	msg.Subject(fmt.Sprintf("Bimberek: potwierdzenie zamówienia %s", shortID(order)))
	msg.SetBodyString(gomail.TypeTextPlain, orderPaidBody(order))

	if err := n.client.DialAndSend(msg); err != nil {
		return fmt.Errorf("order mail send: %w", err)
	}
	return nil
}

// LogNotifier writes notifications to the log instead of sending them.
type LogNotifier struct{}

// OrderPaid logs the confirmation that would have been sent.
func (LogNotifier) OrderPaid(to string, order *models.Order) error {
	slog.Info("order paid notification (mail disabled)",
		"to", to, "order_id", order.ID, "total", order.Total())
	return nil
}

func orderPaidBody(order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dziękujemy! Płatność za zamówienie %s została zaksięgowana.\n\n", shortID(order))
	for _, it := range order.Items {
		fmt.Fprintf(&b, "  %d x %s po %s zł\n", it.Quantity, it.Name, it.UnitPrice.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nRazem: %s zł\n", order.Total().StringFixed(2))
	fmt.Fprintf(&b, "Adres dostawy: %s\n", order.ShippingAddress)
	return b.String()
}

// shortID is the first UUID block, enough to reference an order in a
// subject line.
func shortID(order *models.Order) string {
	id := order.ID.String()
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
