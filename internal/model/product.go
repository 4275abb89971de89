// Package model はドメインモデルを定義する。
package model

// Rating は商品の評価情報を表す。
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product はカタログAPIから取得した商品を表す。
// 外部APIが唯一の情報源であり、ローカルでは一切変更しない。
type Product struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Rating      Rating  `json:"rating"`
}
