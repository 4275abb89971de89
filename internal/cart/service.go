package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/storage"
)

// Metrics はカート操作のメトリクス記録インターフェース。
type Metrics interface {
	RecordCartMutation(operation string)
}

// Service はクライアントセッションごとのカート状態を管理する。
// 各ミューテーションは「再構築 → 状態遷移 → コミット」の3段階で行い、
// コミットは全項目リストをストレージのcartキーへ書き戻す。
// ドロワー表示フラグは業務的な意味を持たないため永続化せず、メモリ上でのみ保持する。
type Service struct {
	store   storage.Store
	logger  *slog.Logger
	metrics Metrics
	ttl     time.Duration

	mu      sync.Mutex
	drawers map[string]bool // ドロワーを開いているclientIDのみ保持（閉は不在と等価）
}

// NewService はServiceを生成する。
// ttlはストレージ上のカート状態の保持期間（0は無期限）。
func NewService(store storage.Store, logger *slog.Logger, metrics Metrics, ttl time.Duration) *Service {
	return &Service{
		store:   store,
		logger:  logger,
		metrics: metrics,
		ttl:     ttl,
		drawers: make(map[string]bool),
	}
}

// cartKey はクライアントIDからストレージキーを導出する。
func cartKey(clientID string) string {
	return "cart:" + clientID
}

// Snapshot は現在のカート状態を返す。永続化データからの再構築のみを行い、変更はしない。
func (s *Service) Snapshot(ctx context.Context, clientID string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, clientID)
}

// Add は商品をカートに追加し、更新後の状態を返す。
func (s *Service) Add(ctx context.Context, clientID string, product model.Product) (*State, error) {
	return s.mutate(ctx, clientID, "add", func(state *State) {
		state.Add(product)
	})
}

// Remove は指定商品IDの項目をカートから削除し、更新後の状態を返す。
// 項目が存在しない場合も成功として扱う。
func (s *Service) Remove(ctx context.Context, clientID string, productID int) (*State, error) {
	return s.mutate(ctx, clientID, "remove", func(state *State) {
		state.Remove(productID)
	})
}

// UpdateQuantity は指定商品IDの数量を設定し、遷移結果と更新後の状態を返す。
func (s *Service) UpdateQuantity(ctx context.Context, clientID string, productID, quantity int) (UpdateOutcome, *State, error) {
	var outcome UpdateOutcome
	state, err := s.mutate(ctx, clientID, "update_quantity", func(state *State) {
		outcome = state.UpdateQuantity(productID, quantity)
	})
	if err != nil {
		return OutcomeNone, nil, err
	}
	return outcome, state, nil
}

// Clear は全項目を削除する。チェックアウト完了後に呼び出される。
func (s *Service) Clear(ctx context.Context, clientID string) (*State, error) {
	return s.mutate(ctx, clientID, "clear", func(state *State) {
		state.Clear()
	})
}

// SetOpen はドロワー表示フラグを設定し、設定後の値を返す。
func (s *Service) SetOpen(clientID string, open bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setDrawer(clientID, open)
	return open
}

// Toggle はドロワー表示フラグを反転し、反転後の値を返す。
func (s *Service) Toggle(clientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	open := !s.drawers[clientID]
	s.setDrawer(clientID, open)
	return open
}

// setDrawer はドロワー表示フラグを更新する。ゼロ値（閉）はマップの不在と
// 区別がつかないため、閉じたクライアントのエントリは削除する。
// これによりマップは現在ドロワーを開いているクライアントの数でのみ増減する。
func (s *Service) setDrawer(clientID string, open bool) {
	if open {
		s.drawers[clientID] = true
		return
	}
	delete(s.drawers, clientID)
}

// mutate は状態の再構築・遷移・コミットをミューテックス配下で直列に実行する。
func (s *Service) mutate(ctx context.Context, clientID, operation string, apply func(*State)) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}

	apply(state)

	if err := s.commit(ctx, clientID, state); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordCartMutation(operation)
	}
	return state, nil
}

// load はストレージのcartキーから状態を再構築する。
// キーが存在しない場合と永続化データが壊れている場合は空のカートに戻す。
func (s *Service) load(ctx context.Context, clientID string) (*State, error) {
	state := NewState()
	state.IsOpen = s.drawers[clientID]

	data, err := s.store.Get(ctx, cartKey(clientID))
	if err != nil {
		return nil, fmt.Errorf("failed to load cart state: %w", err)
	}
	if data == nil {
		return state, nil
	}

	var items []model.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		// 壊れた永続化データは黙って破棄し、空のカートとして扱う
		s.logger.Warn("discarding corrupt cart state",
			slog.String("client_id", clientID),
			slog.String("error", err.Error()),
		)
		return state, nil
	}

	state.Items = items
	return state, nil
}

// commit は全項目リストをストレージへ書き戻す。
func (s *Service) commit(ctx context.Context, clientID string, state *State) error {
	data, err := json.Marshal(state.Items)
	if err != nil {
		return fmt.Errorf("failed to encode cart state: %w", err)
	}
	if err := s.store.Set(ctx, cartKey(clientID), data, s.ttl); err != nil {
		return fmt.Errorf("failed to persist cart state: %w", err)
	}
	return nil
}
