package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
)

// OrderServiceInterface は注文ハンドラーが必要とするサービスインターフェース。
type OrderServiceInterface interface {
	PlaceOrder(ctx context.Context, clientID string, userID int, items []model.CartItem, shipping model.ShippingAddress) (*model.Order, error)
	ListOrders(ctx context.Context, clientID string) ([]model.Order, error)
	GetOrder(ctx context.Context, clientID, orderID string) (*model.Order, error)
}

// OrderHandler はチェックアウトと注文履歴のHTTPハンドラー。
// ルートガードを通過した認証済みリクエストのみが到達する前提だが、
// コンテキストの認証情報は個別に再確認する。
type OrderHandler struct {
	orders OrderServiceInterface
	cart   CartServiceInterface
}

// NewOrderHandler はOrderHandlerを生成する。
func NewOrderHandler(orders OrderServiceInterface, cart CartServiceInterface) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		cart:   cart,
	}
}

// checkoutRequest はチェックアウトフォームの入力を表す。
type checkoutRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zipcode   string `json:"zipcode"`
	Country   string `json:"country"`
}

// Checkout は現在のカート内容から注文を作成し、成功時にカートを空にする。
// 支払い処理はシミュレーションであり、実際の決済は行わない。
// POST /checkout
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	creds := middleware.CredentialsFromContext(r.Context())
	if creds == nil || creds.User == nil {
		apiErr := model.NewUnauthorizedError()
		middleware.WriteErrorResponse(w, middleware.StatusForError(apiErr), apiErr)
		return
	}

	clientID, err := middleware.ClientIDFromContext(r.Context())
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディを解析できません"))
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Address == "" || req.City == "" || req.Zipcode == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("配送先の必須項目が不足しています"))
		return
	}

	state, err := h.cart.Snapshot(r.Context(), clientID)
	if err != nil {
		slog.Error("failed to load cart for checkout", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	shipping := model.ShippingAddress{
		FullName: strings.TrimSpace(req.FirstName + " " + req.LastName),
		Address:  req.Address,
		City:     req.City,
		Zipcode:  req.Zipcode,
		Country:  req.Country,
	}

	o, err := h.orders.PlaceOrder(r.Context(), clientID, creds.User.ID, state.Items, shipping)
	if err != nil {
		if apiErr, ok := err.(*model.APIError); ok {
			middleware.WriteErrorResponse(w, middleware.StatusForError(apiErr), apiErr)
			return
		}
		slog.Error("failed to place order", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	// チェックアウト完了後にカートを空にする。
	// ここで失敗しても注文は作成済みのため、ログのみ残して成功応答を返す。
	if _, err := h.cart.Clear(r.Context(), clientID); err != nil {
		slog.Error("failed to clear cart after checkout",
			slog.String("order_id", o.ID),
			slog.String("error", err.Error()),
		)
	}

	writeJSON(w, http.StatusCreated, o)
}

// ListOrders は注文履歴を新しい順で返す。
// GET /orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	clientID, err := middleware.ClientIDFromContext(r.Context())
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), clientID)
	if err != nil {
		slog.Error("failed to list orders", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetOrder は指定IDの注文を返す。
// GET /orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	clientID, err := middleware.ClientIDFromContext(r.Context())
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}

	orderID := chi.URLParam(r, "id")

	o, err := h.orders.GetOrder(r.Context(), clientID, orderID)
	if err != nil {
		slog.Error("failed to get order",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}
	if o == nil {
		apiErr := model.NewOrderNotFoundError(orderID)
		middleware.WriteErrorResponse(w, middleware.StatusForError(apiErr), apiErr)
		return
	}

	writeJSON(w, http.StatusOK, o)
}
