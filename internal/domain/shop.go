package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus tracks an order through fulfilment.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCancelled:
		return true
	}
	return false
}

// Product is a print offered in the shop (e.g. "A3 fine art print").
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description,omitempty"`
	PrintSize   string             `bson:"printSize" json:"printSize,omitempty"`
	PriceCents  int64              `bson:"priceCents" json:"priceCents"`
	Currency    string             `bson:"currency" json:"currency"`
	Active      bool               `bson:"active" json:"active"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// CartItem is one line of a visitor cart. Carts live in Redis, not Mongo.
type CartItem struct {
	ProductID string `json:"productId"`
	Category  string `json:"category"`
	Filename  string `json:"filename"`
	Quantity  int    `json:"quantity"`
}

// LineID identifies a cart line: the same print of the same photo merges.
func (i CartItem) LineID() string {
	return i.ProductID + ":" + i.Category + "/" + i.Filename
}

// Cart is a visitor's shopping cart.
type Cart struct {
	ID        string     `json:"id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ShippingAddress is the delivery address captured at checkout.
type ShippingAddress struct {
	Line1      string `bson:"line1" json:"line1"`
	Line2      string `bson:"line2,omitempty" json:"line2,omitempty"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
}

// OrderItem snapshots a cart line with the price at checkout time.
type OrderItem struct {
	ProductID      primitive.ObjectID `bson:"productId" json:"productId"`
	ProductName    string             `bson:"productName" json:"productName"`
	Category       string             `bson:"category" json:"category"`
	Filename       string             `bson:"filename" json:"filename"`
	Quantity       int                `bson:"quantity" json:"quantity"`
	UnitPriceCents int64              `bson:"unitPriceCents" json:"unitPriceCents"`
}

// Order is a captured print-shop order. Payment happens outside this service.
type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerName  string             `bson:"customerName" json:"customerName"`
	CustomerEmail string             `bson:"customerEmail" json:"customerEmail"`
	Shipping      ShippingAddress    `bson:"shipping" json:"shipping"`
	Items         []OrderItem        `bson:"items" json:"items"`
	TotalCents    int64              `bson:"totalCents" json:"totalCents"`
	Currency      string             `bson:"currency" json:"currency"`
	Status        OrderStatus        `bson:"status" json:"status"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
