package mail

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bimberek/internal/models"
)

func TestOrderPaidBody(t *testing.T) {
	order := &models.Order{
		ID:              uuid.MustParse("a1b2c3d4-0000-0000-0000-000000000000"),
		ShippingAddress: "ul. Testowa 1, Warszawa",
		Items: []models.OrderItem{
			{Name: "Zakwas", Quantity: 3, UnitPrice: decimal.RequireFromString("7.80")},
			{Name: "Alembik", Quantity: 1, UnitPrice: decimal.RequireFromString("549.00")},
		},
	}

	body := orderPaidBody(order)

	for _, want := range []string{
		"3 x Zakwas po 7.80 zł",
		"1 x Alembik po 549.00 zł",
		"Razem: 572.40 zł",
		"ul. Testowa 1, Warszawa",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestShortID(t *testing.T) {
	order := &models.Order{ID: uuid.MustParse("a1b2c3d4-e5f6-0000-0000-000000000000")}
	if got := shortID(order); got != "a1b2c3d4" {
		t.Errorf("shortID = %q", got)
	}
}

func TestLogNotifierNeverFails(t *testing.T) {
	n := LogNotifier{}
	if err := n.OrderPaid("test@example.com", &models.Order{ID: uuid.New()}); err != nil {
		t.Fatalf("log notifier: %v", err)
	}
}
