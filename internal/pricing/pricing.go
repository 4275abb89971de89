// Package pricing はカート・注文の金額計算を提供する。
// 浮動小数点の誤差を避けるため、通貨計算はすべてdecimalで行う。
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/hitoshi/storefront/internal/model"
)

// Quote はカート内容に対する金額の内訳を表す。
type Quote struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Calculator は配送料・税の算出ポリシーを保持する。
type Calculator struct {
	freeShippingThreshold decimal.Decimal // この金額以上で配送料無料
	shippingFee           decimal.Decimal
	taxRate               decimal.Decimal
}

// Config はCalculatorの設定。
type Config struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	TaxRate               decimal.Decimal
}

// NewCalculator はCalculatorを生成する。
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{
		freeShippingThreshold: cfg.FreeShippingThreshold,
		shippingFee:           cfg.ShippingFee,
		taxRate:               cfg.TaxRate,
	}
}

// DefaultConfig はデフォルトの金額ポリシーを返す。
// 小計50ドル以上で配送料無料、配送料5ドル、税率8%。
func DefaultConfig() Config {
	return Config{
		FreeShippingThreshold: decimal.NewFromInt(50),
		ShippingFee:           decimal.NewFromInt(5),
		TaxRate:               decimal.NewFromFloat(0.08),
	}
}

// Subtotal はカート項目の小計（単価×数量の総和）を返す。
func Subtotal(items []model.CartItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		price := decimal.NewFromFloat(item.Product.Price)
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return subtotal
}

// ItemCount はカート項目の数量の総和を返す。
func ItemCount(items []model.CartItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

// Quote はカート項目に対する金額内訳を算出する。
// 税はセント単位に丸める（銀行丸めではなく四捨五入）。
// 空のカートには全項目ゼロの内訳を返す。
func (c *Calculator) Quote(items []model.CartItem) Quote {
	if len(items) == 0 {
		return Quote{
			Subtotal: decimal.Zero,
			Shipping: decimal.Zero,
			Tax:      decimal.Zero,
			Total:    decimal.Zero,
		}
	}

	subtotal := Subtotal(items)

	shipping := c.shippingFee
	if subtotal.GreaterThanOrEqual(c.freeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(c.taxRate).Round(2)
	total := subtotal.Add(shipping).Add(tax)

	return Quote{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    total,
	}
}
