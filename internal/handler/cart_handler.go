package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/storefront/internal/cart"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/pricing"
)

// CartServiceInterface はカートハンドラーが必要とするサービスインターフェース。
type CartServiceInterface interface {
	Snapshot(ctx context.Context, clientID string) (*cart.State, error)
	Add(ctx context.Context, clientID string, product model.Product) (*cart.State, error)
	Remove(ctx context.Context, clientID string, productID int) (*cart.State, error)
	UpdateQuantity(ctx context.Context, clientID string, productID, quantity int) (cart.UpdateOutcome, *cart.State, error)
	Clear(ctx context.Context, clientID string) (*cart.State, error)
	SetOpen(clientID string, open bool) bool
	Toggle(clientID string) bool
}

// ProductFetcher はカート追加時の商品スナップショット取得インターフェース。
// catalog.Clientの部分集合として定義する。
type ProductFetcher interface {
	ProductByID(ctx context.Context, id int) (*model.Product, error)
}

// CartHandler はカート関連のHTTPハンドラー。
type CartHandler struct {
	service    CartServiceInterface
	products   ProductFetcher
	calculator *pricing.Calculator
}

// NewCartHandler はCartHandlerを生成する。
func NewCartHandler(service CartServiceInterface, products ProductFetcher, calculator *pricing.Calculator) *CartHandler {
	return &CartHandler{
		service:    service,
		products:   products,
		calculator: calculator,
	}
}

// cartQuoteResponse はカートの金額内訳のレスポンス表現。
type cartQuoteResponse struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// cartResponse はカート状態のレスポンス表現。
type cartResponse struct {
	Items     []model.CartItem  `json:"items"`
	ItemCount int               `json:"itemCount"`
	IsOpen    bool              `json:"isOpen"`
	Pricing   cartQuoteResponse `json:"pricing"`
}

// GetCart は現在のカート状態を返す。
// GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	clientID, err := middleware.ClientIDFromContext(r.Context())
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}

	state, err := h.service.Snapshot(r.Context(), clientID)
	if err != nil {
		slog.Error("failed to load cart", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(state))
}

// AddItem は商品をカートに追加する。
// 商品スナップショットはカタログから取得し、追加時点の姿でカートに埋め込む。
// POST /cart/items {"productId": 1}
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	clientID, err := middleware.ClientIDFromContext(r.Context())
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}

	var req struct {
		ProductID int `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID <= 0 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("productIdは正の整数で指定してください"))
		return
	}

	product, err := h.products.ProductByID(r.Context(), req.ProductID)
	if err != nil {
		slog.Error("failed to fetch product for cart",
			slog.Int("product_id", req.ProductID),
			slog.String("error", err.Error()),
		)
		apiErr := model.NewCatalogUnavailableError()
		middleware.WriteErrorResponse(w, middleware.StatusForError(apiErr), apiErr)
		return
	}
	if product == nil {
		apiErr := model.NewProductNotFoundError(req.ProductID)
		middleware.WriteErrorResponse(w, middleware.StatusForError(apiErr), apiErr)
		return
	}

	state, err := h.service.Add(r.Context(), clientID, *product)
	if err != nil {
		slog.Error("failed to add cart item", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(state))
}

// UpdateItem は指定商品の数量を設定する。
// 数量0以下は削除として扱われ、レスポンスのoutcomeでどちらの分岐を
// 取ったか（set / removed / none）を明示する。
// PUT /cart/items/{productID} {"quantity": 3}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	clientID, err := middleware.ClientIDFromContext(r.Context())
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}

	productID, err := strconv.Atoi(chi.URLParam(r, "productID"))
	if err != nil || productID <= 0 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("商品IDは正の整数で指定してください"))
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("quantityを指定してください"))
		return
	}

	outcome, state, err := h.service.UpdateQuantity(r.Context(), clientID, productID, req.Quantity)
	if err != nil {
		slog.Error("failed to update cart item", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Outcome cart.UpdateOutcome `json:"outcome"`
		cartResponse
	}{outcome, h.toResponse(state)})
}

// RemoveItem は指定商品をカートから削除する。存在しない場合もエラーにしない。
// DELETE /cart/items/{productID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	clientID, err := middleware.ClientIDFromContext(r.Context())
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}

	productID, err := strconv.Atoi(chi.URLParam(r, "productID"))
	if err != nil || productID <= 0 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("商品IDは正の整数で指定してください"))
		return
	}

	state, err := h.service.Remove(r.Context(), clientID, productID)
	if err != nil {
		slog.Error("failed to remove cart item", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(state))
}

// ClearCart は全項目を削除する。
// DELETE /cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	clientID, err := middleware.ClientIDFromContext(r.Context())
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}

	state, err := h.service.Clear(r.Context(), clientID)
	if err != nil {
		slog.Error("failed to clear cart", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(state))
}

// SetDrawer はドロワー表示フラグを設定する。業務的な意味は持たないUI状態。
// PUT /cart/drawer {"open": true}
func (h *CartHandler) SetDrawer(w http.ResponseWriter, r *http.Request) {
	clientID, err := middleware.ClientIDFromContext(r.Context())
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}

	var req struct {
		Open bool `json:"open"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("openを指定してください"))
		return
	}

	open := h.service.SetOpen(clientID, req.Open)
	writeJSON(w, http.StatusOK, map[string]bool{"isOpen": open})
}

// ToggleDrawer はドロワー表示フラグを反転する。
// POST /cart/drawer
func (h *CartHandler) ToggleDrawer(w http.ResponseWriter, r *http.Request) {
	clientID, err := middleware.ClientIDFromContext(r.Context())
	if err != nil {
		middleware.WriteInternalServerError(w)
		return
	}

	open := h.service.Toggle(clientID)
	writeJSON(w, http.StatusOK, map[string]bool{"isOpen": open})
}

// toResponse はカート状態をレスポンス表現に変換する。
func (h *CartHandler) toResponse(state *cart.State) cartResponse {
	quote := h.calculator.Quote(state.Items)
	return cartResponse{
		Items:     state.Items,
		ItemCount: state.ItemCount(),
		IsOpen:    state.IsOpen,
		Pricing: cartQuoteResponse{
			Subtotal: quote.Subtotal.InexactFloat64(),
			Shipping: quote.Shipping.InexactFloat64(),
			Tax:      quote.Tax.InexactFloat64(),
			Total:    quote.Total.InexactFloat64(),
		},
	}
}
