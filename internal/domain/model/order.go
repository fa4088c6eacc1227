package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// 管理画面のセレクトに並ぶ順
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// 表示用ラベル（先頭だけ大文字）
func (s OrderStatus) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "Cash on Delivery"
	PaymentOnline         PaymentMethod = "Online Payment"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentOnline
}

type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"userId"`
	User            *User           `json:"User,omitempty"`
	Items           []OrderItem     `json:"OrderItems"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress string          `json:"shippingAddress"`
	Phone           string          `json:"phone"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type OrderItem struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"productId"`
	Product   *Product        `json:"Product,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// 注文作成のリクエスト（orders.create）
type OrderRequest struct {
	Items           []OrderLine   `json:"items"`
	ShippingAddress string        `json:"shippingAddress"`
	Phone           string        `json:"phone"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
}

type OrderLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}
