// Package cart はカート状態の管理と永続化を提供する。
//
// Stateは純粋な状態コンテナで、全操作が現在状態に対する全域関数として
// 定義される（エラーを返す操作は存在しない）。永続化はServiceが
// 各ミューテーション後の明示的なコミットとして行う。
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/pricing"
)

// UpdateOutcome はUpdateQuantityの結果を表す。
// 数量設定と削除を兼ねる操作のため、どちらの分岐を取ったかを明示する。
type UpdateOutcome string

const (
	// OutcomeSet は数量が設定されたことを示す。
	OutcomeSet UpdateOutcome = "set"
	// OutcomeRemoved は数量0以下の指定により項目が削除されたことを示す。
	OutcomeRemoved UpdateOutcome = "removed"
	// OutcomeNone は対象の商品がカートに存在せず、何も変更されなかったことを示す。
	OutcomeNone UpdateOutcome = "none"
)

// State はカートの状態を表す。
// Itemsは挿入順を保持し、同一商品IDの項目は高々1件となる。
// IsOpenはカートドロワーの表示フラグで、業務的な意味は持たない。
type State struct {
	Items  []model.CartItem
	IsOpen bool
}

// NewState は空のカート状態を生成する。
func NewState() *State {
	return &State{Items: []model.CartItem{}}
}

// Add は商品をカートに追加する。
// 同一商品IDの項目が既に存在する場合は数量を1増やし、
// 存在しない場合は数量1の新しい項目を末尾に追加する。
func (s *State) Add(product model.Product) {
	for i := range s.Items {
		if s.Items[i].Product.ID == product.ID {
			s.Items[i].Quantity++
			return
		}
	}
	s.Items = append(s.Items, model.CartItem{Product: product, Quantity: 1})
}

// Remove は指定商品IDの項目を削除する。存在しない場合は何もしない。
func (s *State) Remove(productID int) {
	for i := range s.Items {
		if s.Items[i].Product.ID == productID {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			return
		}
	}
}

// UpdateQuantity は指定商品IDの数量を設定する。
// quantityが1以上なら数量を設定し（OutcomeSet）、
// 0以下なら項目を削除する（OutcomeRemoved）。
// 対象商品が存在しない場合は何もしない（OutcomeNone）。
func (s *State) UpdateQuantity(productID, quantity int) UpdateOutcome {
	for i := range s.Items {
		if s.Items[i].Product.ID != productID {
			continue
		}
		if quantity <= 0 {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			return OutcomeRemoved
		}
		s.Items[i].Quantity = quantity
		return OutcomeSet
	}
	return OutcomeNone
}

// Clear は全項目を削除する。チェックアウト完了後に呼び出される。
func (s *State) Clear() {
	s.Items = []model.CartItem{}
}

// Toggle はドロワー表示フラグを反転する。
func (s *State) Toggle() {
	s.IsOpen = !s.IsOpen
}

// SetOpen はドロワー表示フラグを設定する。
func (s *State) SetOpen(open bool) {
	s.IsOpen = open
}

// Subtotal は小計（単価×数量の総和）を返す。副作用のない導出値。
func (s *State) Subtotal() decimal.Decimal {
	return pricing.Subtotal(s.Items)
}

// ItemCount は数量の総和を返す。副作用のない導出値。
func (s *State) ItemCount() int {
	return pricing.ItemCount(s.Items)
}
