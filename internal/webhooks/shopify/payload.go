package shopifywebhook

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/narissarah/wishcraft/pkg/errors"
)

// OrderPayload mirrors the subset of Shopify's orders/create webhook body the
// reconciliation pipeline reads. Everything else in the payload is ignored.
type OrderPayload struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	OrderNumber int64             `json:"order_number"`
	Email       string            `json:"email"`
	Currency    string            `json:"currency"`
	Customer    *CustomerPayload  `json:"customer"`
	LineItems   []LineItemPayload `json:"line_items"`
}

type CustomerPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type LineItemPayload struct {
	ID         int64              `json:"id"`
	ProductID  int64              `json:"product_id"`
	VariantID  int64              `json:"variant_id"`
	Title      string             `json:"title"`
	Quantity   int                `json:"quantity"`
	Price      string             `json:"price"`
	Properties []LineItemProperty `json:"properties"`
}

// LineItemProperty is one custom line-item attribute. Shopify delivers these
// as {name, value} pairs; the registry tagging keys ride on them.
type LineItemProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Validate rejects payloads that cannot be reconciled at all. Per-line-item
// problems are not validated here; those are contained during processing.
func (p *OrderPayload) Validate() error {
	if p == nil {
		return apperrors.New(apperrors.CodeValidation, "order payload is required")
	}
	if p.ID <= 0 {
		return apperrors.New(apperrors.CodeValidation, "order id is required")
	}
	return nil
}

// PurchaserName builds a display name from the customer block, preferring
// "first last" and falling back to whichever half is present.
func (p *OrderPayload) PurchaserName() *string {
	if p.Customer == nil {
		return nil
	}
	name := strings.TrimSpace(strings.TrimSpace(p.Customer.FirstName) + " " + strings.TrimSpace(p.Customer.LastName))
	if name == "" {
		return nil
	}
	return &name
}

// PurchaserEmail prefers the customer email over the order-level one.
func (p *OrderPayload) PurchaserEmail() *string {
	var email string
	if p.Customer != nil {
		email = strings.TrimSpace(p.Customer.Email)
	}
	if email == "" {
		email = strings.TrimSpace(p.Email)
	}
	if email == "" {
		return nil
	}
	return &email
}

// Property returns the value of the named line-item property, exact match.
func (l LineItemPayload) Property(name string) (string, bool) {
	for _, prop := range l.Properties {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return "", false
}

// RegistryItemID resolves the registry item a line item is tagged with. The
// typed key is authoritative; when legacyScan is enabled, any property whose
// name mentions "registry" and whose value parses as a UUID is accepted as a
// fallback for carts tagged by older storefront scripts.
func (l LineItemPayload) RegistryItemID(key string, legacyScan bool) (uuid.UUID, bool) {
	if value, ok := l.Property(key); ok {
		if id, err := uuid.Parse(strings.TrimSpace(value)); err == nil {
			return id, true
		}
	}
	if !legacyScan {
		return uuid.Nil, false
	}
	for _, prop := range l.Properties {
		if !strings.Contains(strings.ToLower(prop.Name), "registry") {
			continue
		}
		if id, err := uuid.Parse(strings.TrimSpace(prop.Value)); err == nil {
			return id, true
		}
	}
	return uuid.Nil, false
}

// GiftMessage finds the raw gift message on a line item. The fixed key wins;
// the substring scan keeps messages flowing from storefronts that never
// adopted the typed key.
func (l LineItemPayload) GiftMessage(key string, legacyScan bool) (string, bool) {
	if value, ok := l.Property(key); ok && strings.TrimSpace(value) != "" {
		return value, true
	}
	if !legacyScan {
		return "", false
	}
	for _, prop := range l.Properties {
		lower := strings.ToLower(prop.Name)
		if !strings.Contains(lower, "gift") && !strings.Contains(lower, "message") {
			continue
		}
		if strings.TrimSpace(prop.Value) != "" {
			return prop.Value, true
		}
	}
	return "", false
}

// UnitPrice parses the line item price. Shopify serializes money as a string.
func (l LineItemPayload) UnitPrice() (decimal.Decimal, error) {
	price := strings.TrimSpace(l.Price)
	if price == "" {
		return decimal.Zero, apperrors.New(apperrors.CodeValidation, "line item price is required")
	}
	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.CodeValidation, err, "parsing line item price")
	}
	if parsed.IsNegative() {
		return decimal.Zero, apperrors.New(apperrors.CodeValidation, "line item price must not be negative")
	}
	return parsed, nil
}
