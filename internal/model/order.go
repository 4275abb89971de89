package model

import "time"

// OrderStatus は注文のステータスを表す。
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
)

// ShippingAddress は注文の配送先を表す。
type ShippingAddress struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Zipcode  string `json:"zipcode"`
	Country  string `json:"country"`
}

// Order はチェックアウト時にクライアント側で生成される注文レコードを表す。
// 作成後は変更されない（ステータスは作成時に固定され、以降遷移しない）。
type Order struct {
	ID              string          `json:"id"`
	UserID          int             `json:"userId"`
	Items           []CartItem      `json:"items"`
	Subtotal        float64         `json:"subtotal"`
	Shipping        float64         `json:"shipping"`
	Tax             float64         `json:"tax"`
	Total           float64         `json:"total"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	CreatedAt       time.Time       `json:"createdAt"`
}
