package cart

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/storefront/internal/storage"
)

// --- モック ---

type mockMetrics struct {
	mutations []string
}

func (m *mockMetrics) RecordCartMutation(operation string) {
	m.mutations = append(m.mutations, operation)
}

func newTestService(t *testing.T) (*Service, *storage.MemoryStore, *mockMetrics) {
	t.Helper()
	store := storage.NewMemoryStore()
	metrics := &mockMetrics{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, logger, metrics, time.Hour), store, metrics
}

// --- テスト ---

// TestService_Add_PersistsState はミューテーションごとにストレージへ
// コミットされ、別インスタンスで再構築できることを検証する。
func TestService_Add_PersistsState(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	state, err := svc.Add(ctx, "client-1", product(1, 10.0))
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if len(state.Items) != 1 || state.Items[0].Quantity != 1 {
		t.Fatalf("unexpected state after add: %+v", state.Items)
	}

	// 同一ストレージを共有する別のServiceインスタンスで再構築する
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	other := NewService(store, logger, nil, time.Hour)
	rebuilt, err := other.Snapshot(ctx, "client-1")
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if len(rebuilt.Items) != 1 || rebuilt.Items[0].Product.ID != 1 {
		t.Errorf("expected rebuilt cart to contain product 1, got %+v", rebuilt.Items)
	}
}

// TestService_ClientIsolation はクライアントセッションごとに
// カートが分離されることを検証する。
func TestService_ClientIsolation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "client-a", product(1, 10.0)); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	state, err := svc.Snapshot(ctx, "client-b")
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if len(state.Items) != 0 {
		t.Errorf("expected empty cart for client-b, got %+v", state.Items)
	}
}

// TestService_CorruptStateDiscarded は壊れた永続化データが
// 黙って破棄され空のカートとして扱われることを検証する。
func TestService_CorruptStateDiscarded(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	if err := store.Set(ctx, "cart:client-1", []byte("{not json"), 0); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	state, err := svc.Snapshot(ctx, "client-1")
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if len(state.Items) != 0 {
		t.Errorf("expected empty cart for corrupt state, got %+v", state.Items)
	}
}

// TestService_UpdateQuantity_Outcomes は遷移結果の3分岐がサービス経由でも
// 正しく返ることを検証する。
func TestService_UpdateQuantity_Outcomes(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "client-1", product(1, 10.0)); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	outcome, state, err := svc.UpdateQuantity(ctx, "client-1", 1, 3)
	if err != nil {
		t.Fatalf("UpdateQuantity returned error: %v", err)
	}
	if outcome != OutcomeSet || state.Items[0].Quantity != 3 {
		t.Errorf("expected set outcome with quantity 3, got %q %+v", outcome, state.Items)
	}

	outcome, _, err = svc.UpdateQuantity(ctx, "client-1", 999, 3)
	if err != nil {
		t.Fatalf("UpdateQuantity returned error: %v", err)
	}
	if outcome != OutcomeNone {
		t.Errorf("expected none outcome for absent product, got %q", outcome)
	}

	outcome, state, err = svc.UpdateQuantity(ctx, "client-1", 1, 0)
	if err != nil {
		t.Fatalf("UpdateQuantity returned error: %v", err)
	}
	if outcome != OutcomeRemoved || len(state.Items) != 0 {
		t.Errorf("expected removed outcome with empty cart, got %q %+v", outcome, state.Items)
	}
}

// TestService_Clear はカートのクリアが永続化されることを検証する。
func TestService_Clear(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "client-1", product(1, 10.0)); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	state, err := svc.Clear(ctx, "client-1")
	if err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if len(state.Items) != 0 {
		t.Errorf("expected empty cart after clear, got %+v", state.Items)
	}

	data, err := store.Get(ctx, "cart:client-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("expected empty list persisted, got %q", data)
	}
}

// TestService_DrawerNotPersisted はドロワー表示フラグがストレージに
// 保存されないことを検証する。
func TestService_DrawerNotPersisted(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	if open := svc.Toggle("client-1"); !open {
		t.Error("expected drawer open after toggle")
	}
	if open := svc.SetOpen("client-1", false); open {
		t.Error("expected drawer closed after SetOpen(false)")
	}

	// 別インスタンスで再構築するとフラグは初期値に戻る
	svc.Toggle("client-1")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	other := NewService(store, logger, nil, time.Hour)
	state, err := other.Snapshot(ctx, "client-1")
	if err != nil {
		t.Fatalf("Snapshot returned error: %v", err)
	}
	if state.IsOpen {
		t.Error("expected drawer flag to reset on a fresh instance")
	}
}

// TestService_DrawerMapBounded はドロワーを閉じたクライアントのエントリが
// メモリ上のマップから取り除かれることを検証する。
func TestService_DrawerMapBounded(t *testing.T) {
	svc, _, _ := newTestService(t)

	for _, clientID := range []string{"client-a", "client-b", "client-c"} {
		svc.SetOpen(clientID, true)
	}
	if len(svc.drawers) != 3 {
		t.Fatalf("expected 3 open-drawer entries, got %d", len(svc.drawers))
	}

	svc.SetOpen("client-a", false)
	svc.Toggle("client-b") // 開 → 閉
	if len(svc.drawers) != 1 {
		t.Errorf("expected closed clients to be evicted, got %d entries", len(svc.drawers))
	}
	if !svc.drawers["client-c"] {
		t.Error("expected client-c drawer to remain open")
	}

	// 閉じた状態からの再トグルは再び開く
	if open := svc.Toggle("client-a"); !open {
		t.Error("expected drawer to reopen after toggle")
	}
}

// TestService_RecordsMetrics はミューテーションごとにメトリクスが
// 記録されることを検証する。
func TestService_RecordsMetrics(t *testing.T) {
	svc, _, metrics := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "client-1", product(1, 10.0)); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if _, err := svc.Remove(ctx, "client-1", 1); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}

	want := []string{"add", "remove"}
	if len(metrics.mutations) != len(want) {
		t.Fatalf("expected %d mutations, got %v", len(want), metrics.mutations)
	}
	for i, op := range want {
		if metrics.mutations[i] != op {
			t.Errorf("mutation %d: expected %q, got %q", i, op, metrics.mutations[i])
		}
	}
}
