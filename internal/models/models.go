package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"storefront-service/internal/apperr"
)

// Image is an opaque reference to an uploaded asset.
type Image struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// ImageList is stored as a JSONB column.
type ImageList []Image

func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		l = ImageList{}
	}
	return json.Marshal(l)
}

func (l *ImageList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// Product is a catalog entry. The ratings average and review count are derived
// from the reviews owned by the product and are recomputed on every review write.
type Product struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	Price        float64   `db:"price" json:"price"`
	Category     string    `db:"category" json:"category"`
	Brand        string    `db:"brand" json:"brand"`
	Stock        int       `db:"stock" json:"stock"`
	Images       ImageList `db:"images" json:"images"`
	Ratings      float64   `db:"ratings" json:"ratings"`
	NumOfReviews int       `db:"num_of_reviews" json:"num_of_reviews"`
	CreatedBy    string    `db:"created_by" json:"created_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Validate checks the product's own field constraints.
func (p *Product) Validate() error {
	if p.Name == "" {
		return apperr.Validation("product name is required")
	}
	if p.Price < 0 {
		return apperr.Validation("price cannot be negative")
	}
	if p.Stock < 0 {
		return apperr.Validation("stock cannot be negative")
	}
	return nil
}

// Review is a customer review owned by a product. At most one review exists
// per (product, author) pair; the review's own ID is used only for deletion.
type Review struct {
	ID        int64     `db:"id" json:"id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AttributeSet is a variation's distinguishing signature: an unordered set of
// attribute-name to attribute-value pairs, stored as a JSONB object.
type AttributeSet map[string]string

// Contains reports whether every pair of q is present in s. This is the
// containment rule used for signature matching: a query with a subset of a
// variation's attributes still matches that variation.
func (s AttributeSet) Contains(q AttributeSet) bool {
	for k, v := range q {
		if s[k] != v {
			return false
		}
	}
	return true
}

// Equal reports whether both sets hold exactly the same pairs.
func (s AttributeSet) Equal(q AttributeSet) bool {
	return len(s) == len(q) && s.Contains(q)
}

func (s AttributeSet) Value() (driver.Value, error) {
	if s == nil {
		s = AttributeSet{}
	}
	return json.Marshal(s)
}

func (s *AttributeSet) Scan(src interface{}) error {
	return scanJSON(src, s)
}

// Variation is a purchasable variant of a product, distinguished by its
// attribute signature. It references the product by ID only.
type Variation struct {
	ID         int64        `db:"id" json:"id"`
	ProductID  int64        `db:"product_id" json:"product_id"`
	Attributes AttributeSet `db:"attributes" json:"attributes"`
	Price      float64      `db:"price" json:"price"`
	Stock      int          `db:"stock" json:"stock"`
	SKU        string       `db:"sku" json:"sku"`
	Images     ImageList    `db:"images" json:"images"`
	IsActive   bool         `db:"is_active" json:"is_active"`
	CreatedBy  string       `db:"created_by" json:"created_by"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// Validate checks the variation's own field constraints.
func (v *Variation) Validate() error {
	if v.ProductID == 0 {
		return apperr.Validation("product is required")
	}
	if v.SKU == "" {
		return apperr.Validation("sku is required")
	}
	if v.Price < 0 {
		return apperr.Validation("price cannot be negative")
	}
	if v.Stock < 0 {
		return apperr.Validation("stock cannot be negative")
	}
	return nil
}

// VariationStats is the derived aggregate view per product, computed across
// all variations of the product regardless of the active flag.
type VariationStats struct {
	ProductID  int64   `db:"product_id" json:"product_id"`
	Count      int     `db:"count" json:"count"`
	TotalStock int     `db:"total_stock" json:"total_stock"`
	AvgPrice   float64 `db:"avg_price" json:"avg_price"`
	MinPrice   float64 `db:"min_price" json:"min_price"`
	MaxPrice   float64 `db:"max_price" json:"max_price"`
}

// Order statuses. Delivered is terminal; no transition leaves it.
const (
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
)

// IsValidOrderStatus reports whether s is one of the known statuses.
func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// ShippingInfo is the destination recorded at checkout, stored as JSONB.
type ShippingInfo struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	PinCode string `json:"pin_code"`
	PhoneNo string `json:"phone_no"`
}

func (s ShippingInfo) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *ShippingInfo) Scan(src interface{}) error {
	return scanJSON(src, s)
}

// PaymentInfo is the payment reference recorded at checkout, stored as JSONB.
// The core records it verbatim; charging is an external concern.
type PaymentInfo struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (p PaymentInfo) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *PaymentInfo) Scan(src interface{}) error {
	return scanJSON(src, p)
}

// Order is a customer order. Line items are immutable after checkout; only
// status transitions mutate the order afterwards.
type Order struct {
	ID            int64        `db:"id" json:"id"`
	UserID        string       `db:"user_id" json:"user_id"`
	ShippingInfo  ShippingInfo `db:"shipping_info" json:"shipping_info"`
	PaymentInfo   PaymentInfo  `db:"payment_info" json:"payment_info"`
	ItemsPrice    float64      `db:"items_price" json:"items_price"`
	TaxPrice      float64      `db:"tax_price" json:"tax_price"`
	ShippingPrice float64      `db:"shipping_price" json:"shipping_price"`
	TotalPrice    float64      `db:"total_price" json:"total_price"`
	OrderStatus   string       `db:"order_status" json:"order_status"`
	PaidAt        time.Time    `db:"paid_at" json:"paid_at"`
	DeliveredAt   *time.Time   `db:"delivered_at" json:"delivered_at,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// OrderItem is a line item referencing a product by ID. The name and price are
// snapshots taken at checkout; they do not follow later catalog edits.
type OrderItem struct {
	ID        int64   `db:"id" json:"id"`
	OrderID   int64   `db:"order_id" json:"order_id"`
	ProductID int64   `db:"product_id" json:"product_id"`
	Name      string  `db:"name" json:"name"`
	Price     float64 `db:"price" json:"price"`
	Quantity  int     `db:"quantity" json:"quantity"`
}

// Brand is a flat reference vocabulary entry.
type Brand struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	Logo         ImageList `db:"logo" json:"logo"`
	Website      string    `db:"website" json:"website"`
	ProductCount int       `db:"product_count" json:"product_count,omitempty"`
	CreatedBy    string    `db:"created_by" json:"created_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Category is a flat reference vocabulary entry.
type Category struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	Image        ImageList `db:"image" json:"image"`
	ProductCount int       `db:"product_count" json:"product_count,omitempty"`
	CreatedBy    string    `db:"created_by" json:"created_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Attribute names a dimension variations can vary on (e.g. color, size).
type Attribute struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Type        string    `db:"type" json:"type"`
	ValueCount  int       `db:"value_count" json:"value_count,omitempty"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// AttributeValue is one allowed value of an attribute.
type AttributeValue struct {
	ID        int64     `db:"id" json:"id"`
	Attribute string    `db:"attribute" json:"attribute"`
	Value     string    `db:"value" json:"value"`
	Label     string    `db:"label" json:"label"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CategoryStats is the per-category product aggregate used by catalog stats.
type CategoryStats struct {
	Category string  `db:"category" json:"category"`
	Count    int     `db:"count" json:"count"`
	AvgPrice float64 `db:"avg_price" json:"avg_price"`
	MinPrice float64 `db:"min_price" json:"min_price"`
	MaxPrice float64 `db:"max_price" json:"max_price"`
}

// ClampStock applies delta to stock, flooring the result at zero. The
// shortfall of an over-decrement is absorbed silently; callers log it.
func ClampStock(stock, delta int) int {
	if next := stock + delta; next > 0 {
		return next
	}
	return 0
}

func scanJSON(src, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dst)
	}
}
