package cart

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"bimberek/internal/models"
)

const (
	// CookieName identifies the visitor's cart. Separate from the session
	// cookie so anonymous visitors can fill a cart before logging in.
	CookieName = "bb_cart"

	// DefaultTTL is how long an untouched cart survives in Valkey.
	DefaultTTL = 14 * 24 * time.Hour

	keyPrefix = "cart:"
	idLength  = 16
)

// ProductSource is the slice of the product store the cart needs for
// reconciling stored entries against the catalog.
type ProductSource interface {
	FindByIDs(ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
}

// Manager loads and saves carts in Valkey, handling the cookie, the
// legacy format upgrade, and catalog reconciliation.
type Manager struct {
	client   *redis.Client
	products ProductSource
	ttl      time.Duration
	secure   bool

	// OnLegacyUpgrade, when set, is called once per legacy payload
	// upgraded on load. Used for metrics.
	OnLegacyUpgrade func()
}

// NewManager creates a cart manager backed by the given Valkey client.
func NewManager(client *redis.Client, products ProductSource, secure bool) *Manager {
	return &Manager{
		client:   client,
		products: products,
		ttl:      DefaultTTL,
		secure:   secure,
	}
}

// Load returns the visitor's cart, normalized against the catalog.
// A visitor without a cart cookie gets an empty cart. If loading or
// normalization changed the stored payload (legacy upgrade, price
// refresh, dropped products), the cart is written back.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Cart, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return New(), nil
	}

	payload, err := m.client.Get(ctx, keyPrefix+cookie.Value).Bytes()
	if err == redis.Nil {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cart load: %w", err)
	}

	c, legacy, err := Decode(payload)
	if err != nil {
		// A corrupt payload is discarded rather than breaking the shop.
		return New(), nil
	}

	products, err := m.products.FindByIDs(c.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("cart reconcile: %w", err)
	}

	if c.Normalize(products) || legacy {
		if err := m.save(ctx, cookie.Value, c); err != nil {
			return nil, err
		}
	}
	if legacy && m.OnLegacyUpgrade != nil {
		m.OnLegacyUpgrade()
	}

	return c, nil
}

// Save persists the cart, creating the cart cookie if needed.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, r *http.Request, c *Cart) error {
	id, err := m.ensureCookie(w, r)
	if err != nil {
		return err
	}
	return m.save(ctx, id, c)
}

// Clear empties the visitor's stored cart. The cookie is left in place;
// an empty payload renders as an empty cart.
func (m *Manager) Clear(ctx context.Context, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	if err := m.client.Del(ctx, keyPrefix+cookie.Value).Err(); err != nil {
		return fmt.Errorf("cart clear: %w", err)
	}
	return nil
}

func (m *Manager) save(ctx context.Context, id string, c *Cart) error {
	payload, err := c.Encode()
	if err != nil {
		return err
	}
	if err := m.client.Set(ctx, keyPrefix+id, payload, m.ttl).Err(); err != nil {
		return fmt.Errorf("cart save: %w", err)
	}
	return nil
}

// ensureCookie returns the existing cart id or generates a new one and
// sets the cookie.
func (m *Manager) ensureCookie(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("cart id: %w", err)
	}
	id := hex.EncodeToString(b)

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(m.ttl.Seconds()),
	})

	return id, nil
}
