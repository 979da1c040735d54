package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the receipt stored when a checkout reaches confirmation.
type Order struct {
	BaseModel
	UserID          uint            `gorm:"index;not null" json:"user_id"`
	Status          string          `json:"status"`
	PlacedAt        time.Time       `json:"placed_at"`
	Subtotal        decimal.Decimal `gorm:"type:numeric(12,2)" json:"subtotal"`
	Discount        decimal.Decimal `gorm:"type:numeric(12,2)" json:"discount"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2)" json:"total_amount"`
	EstimatedDays   int             `json:"estimated_delivery_days"`
	PaymentMethod   string          `json:"payment_method"`
	ReceiverName    string          `json:"receiver_name"`
	ReceiverEmail   string          `json:"receiver_email"`
	ReceiverPhone   string          `json:"receiver_phone"`
	DeliveryAddress string          `json:"delivery_address"`
	DeliveryPincode string          `json:"delivery_pincode"`
	DeliveryCity    string          `json:"delivery_city"`
	Instructions    string          `json:"instructions"`
	Items           []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	BaseModel
	OrderID     uuid.UUID       `gorm:"type:uuid;index" json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2)" json:"unit_price"`
	LineTotal   decimal.Decimal `gorm:"type:numeric(12,2)" json:"line_total"`
}
