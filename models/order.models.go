package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Cancellable reports whether an order in status s may still be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s != OrderShipped && s != OrderDelivered && s != OrderCancelled
}

// ShippingAddress is the delivery address copied onto an order.
type ShippingAddress struct {
	FirstName string `bson:"first_name" json:"firstName"`
	LastName  string `bson:"last_name" json:"lastName"`
	Phone     string `bson:"phone" json:"phone"`
	Address   string `bson:"address" json:"address"`
	City      string `bson:"city" json:"city"`
	State     string `bson:"state" json:"state,omitempty"`
	ZipCode   string `bson:"zip_code" json:"zipCode,omitempty"`
	Country   string `bson:"country" json:"country"`
}

// Missing returns the name of the first required field left empty.
func (a ShippingAddress) Missing() string {
	required := []struct {
		name, value string
	}{
		{"firstName", a.FirstName},
		{"lastName", a.LastName},
		{"phone", a.Phone},
		{"address", a.Address},
		{"city", a.City},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return r.name
		}
	}
	return ""
}

// Value implements driver.Valuer.
func (a ShippingAddress) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (a *ShippingAddress) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = ShippingAddress{}
		return nil
	case string:
		return json.Unmarshal([]byte(v), a)
	case []byte:
		return json.Unmarshal(v, a)
	}
	return fmt.Errorf("cannot scan %T into ShippingAddress", src)
}

// OrderItem is a snapshot of a product line at purchase time.
type OrderItem struct {
	ID           string `bson:"_id" db:"id" json:"id"`
	OrderID      string `bson:"-" db:"order_id" json:"orderId"`
	ProductID    string `bson:"product_id" db:"product_id" json:"productId"`
	ProductName  string `bson:"product_name" db:"product_name" json:"productName"`
	ProductImage string `bson:"product_image" db:"product_image" json:"productImage"`
	Price        int64  `bson:"price" db:"price" json:"price"`
	Quantity     int    `bson:"quantity" db:"quantity" json:"quantity"`
	Subtotal     int64  `bson:"subtotal" db:"subtotal" json:"subtotal"`
}

// Order represents a placed order with its items.
type Order struct {
	ID              string          `bson:"_id" db:"id" json:"id"`
	OrderNumber     string          `bson:"order_number" db:"order_number" json:"orderNumber"`
	UserID          string          `bson:"user_id" db:"user_id" json:"userId"`
	Status          OrderStatus     `bson:"status" db:"status" json:"status"`
	PaymentStatus   PaymentStatus   `bson:"payment_status" db:"payment_status" json:"paymentStatus"`
	PaymentMethod   PaymentMethod   `bson:"payment_method" db:"payment_method" json:"paymentMethod"`
	Subtotal        int64           `bson:"subtotal" db:"subtotal" json:"subtotal"`
	Tax             int64           `bson:"tax" db:"tax" json:"tax"`
	ShippingCost    int64           `bson:"shipping_cost" db:"shipping_cost" json:"shippingCost"`
	TotalAmount     int64           `bson:"total_amount" db:"total_amount" json:"totalAmount"`
	ShippingAddress ShippingAddress `bson:"shipping_address" db:"shipping_address" json:"shippingAddress"`
	CustomerNote    string          `bson:"customer_note" db:"customer_note" json:"customerNote,omitempty"`
	AdminNote       string          `bson:"admin_note" db:"admin_note" json:"adminNote,omitempty"`
	TransactionID   string          `bson:"transaction_id" db:"transaction_id" json:"transactionId,omitempty"`
	CreatedAt       time.Time       `bson:"created_at" db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `bson:"updated_at" db:"updated_at" json:"updatedAt"`
	PaidAt          *time.Time      `bson:"paid_at,omitempty" db:"paid_at" json:"paidAt,omitempty"`
	ShippedAt       *time.Time      `bson:"shipped_at,omitempty" db:"shipped_at" json:"shippedAt,omitempty"`
	DeliveredAt     *time.Time      `bson:"delivered_at,omitempty" db:"delivered_at" json:"deliveredAt,omitempty"`
	CancelledAt     *time.Time      `bson:"cancelled_at,omitempty" db:"cancelled_at" json:"cancelledAt,omitempty"`

	Items []OrderItem  `bson:"items" db:"-" json:"items"`
	User  *UserSummary `bson:"-" db:"-" json:"user,omitempty"`
}

// OrderLine is one requested product in a checkout.
type OrderLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderInput is the checkout request.
type CreateOrderInput struct {
	UserID          string          `json:"-"`
	Items           []OrderLine     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	CustomerNote    string          `json:"customerNote"`
}

// StatusUpdate is the admin request changing the fulfilment state of an order.
type StatusUpdate struct {
	Status    OrderStatus `json:"status"`
	AdminNote *string     `json:"adminNote"`
}

// OrderFilter selects orders in the admin listing.
type OrderFilter struct {
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Page          int
	Limit         int
}

// Offset returns the number of rows skipped for the current page.
func (f OrderFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// OrderPage is a paginated order listing.
type OrderPage struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// OrderStats is the admin dashboard summary.
type OrderStats struct {
	TotalOrders     int     `json:"totalOrders"`
	PendingOrders   int     `json:"pendingOrders"`
	CompletedOrders int     `json:"completedOrders"`
	TotalRevenue    int64   `json:"totalRevenue"`
	RecentOrders    []Order `json:"recentOrders"`
}
