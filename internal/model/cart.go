package model

// CartItem はカート内の1商品を表す。
// 商品はカート追加時点のスナップショットを埋め込み、以降カタログとは同期しない。
// 不変条件: 同一商品IDのCartItemは高々1件、Quantityは常に1以上。
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}
