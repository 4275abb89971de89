// Package order は注文レコードの作成と参照を提供する。
//
// 注文はチェックアウト時にクライアント側で生成される追記専用のレコードで、
// ストレージのordersキーに新しい順で保持される。作成後の更新・削除操作は存在しない。
package order

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/pricing"
	"github.com/hitoshi/storefront/internal/storage"
)

// Metrics は注文作成のメトリクス記録インターフェース。
type Metrics interface {
	RecordOrderPlaced()
}

// Service は注文レコードの永続化とビジネスロジックを提供する。
type Service struct {
	store      storage.Store
	calculator *pricing.Calculator
	logger     *slog.Logger
	metrics    Metrics
	ttl        time.Duration

	mu sync.Mutex // 追記の読み書きを直列化する

	// テストで時刻ベースのID生成を固定するためのフック
	now func() time.Time
}

// NewService はServiceを生成する。
func NewService(store storage.Store, calculator *pricing.Calculator, logger *slog.Logger, metrics Metrics, ttl time.Duration) *Service {
	return &Service{
		store:      store,
		calculator: calculator,
		logger:     logger,
		metrics:    metrics,
		ttl:        ttl,
		now:        time.Now,
	}
}

// ordersKey はクライアントIDからストレージキーを導出する。
func ordersKey(clientID string) string {
	return "orders:" + clientID
}

// PlaceOrder はカートスナップショットから注文を作成し、注文IDを返す。
// 金額内訳は作成時点のポリシーで算出され、ステータスはprocessing固定で
// 以降遷移しない。作成された注文は保存済みリストの先頭に追加される（新しい順）。
func (s *Service) PlaceOrder(ctx context.Context, clientID string, userID int, items []model.CartItem, shipping model.ShippingAddress) (*model.Order, error) {
	if len(items) == 0 {
		return nil, model.NewEmptyCartError()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	quote := s.calculator.Quote(items)
	createdAt := s.now()

	o := model.Order{
		ID:              fmt.Sprintf("ORD-%d", createdAt.UnixMilli()),
		UserID:          userID,
		Items:           items,
		Subtotal:        quote.Subtotal.InexactFloat64(),
		Shipping:        quote.Shipping.InexactFloat64(),
		Tax:             quote.Tax.InexactFloat64(),
		Total:           quote.Total.InexactFloat64(),
		Status:          model.OrderStatusProcessing,
		ShippingAddress: shipping,
		CreatedAt:       createdAt,
	}

	orders, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}

	orders = append([]model.Order{o}, orders...)

	if err := s.save(ctx, clientID, orders); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderPlaced()
	}
	s.logger.Info("order placed",
		slog.String("order_id", o.ID),
		slog.Int("user_id", userID),
		slog.Int("item_count", len(items)),
		slog.Float64("total", o.Total),
	)

	return &o, nil
}

// ListOrders は保存済みの全注文を新しい順で返す。
func (s *Service) ListOrders(ctx context.Context, clientID string) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, clientID)
}

// GetOrder は指定IDの注文を線形探索で取得する。見つからない場合はnilを返す。
func (s *Service) GetOrder(ctx context.Context, clientID, orderID string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == orderID {
			return &orders[i], nil
		}
	}
	return nil, nil
}

// load はストレージのordersキーから注文リストを再構築する。
// キーが存在しない場合と永続化データが壊れている場合は空リストに戻す。
func (s *Service) load(ctx context.Context, clientID string) ([]model.Order, error) {
	data, err := s.store.Get(ctx, ordersKey(clientID))
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	if data == nil {
		return []model.Order{}, nil
	}

	var orders []model.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		// 壊れた永続化データは黙って破棄し、空リストとして扱う
		s.logger.Warn("discarding corrupt order history",
			slog.String("client_id", clientID),
			slog.String("error", err.Error()),
		)
		return []model.Order{}, nil
	}
	return orders, nil
}

// save は注文リスト全体をストレージへ書き戻す。
func (s *Service) save(ctx context.Context, clientID string, orders []model.Order) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("failed to encode orders: %w", err)
	}
	if err := s.store.Set(ctx, ordersKey(clientID), data, s.ttl); err != nil {
		return fmt.Errorf("failed to persist orders: %w", err)
	}
	return nil
}
