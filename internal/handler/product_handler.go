// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/storefront/internal/catalog"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
)

// CatalogServiceInterface は商品ハンドラーが必要とするカタログクライアントのインターフェース。
type CatalogServiceInterface interface {
	Products(ctx context.Context, limit int, sort catalog.SortOrder) ([]model.Product, error)
	ProductByID(ctx context.Context, id int) (*model.Product, error)
	ProductsByCategory(ctx context.Context, category string) ([]model.Product, error)
	Categories(ctx context.Context) ([]string, error)
	SearchProducts(ctx context.Context, query string) ([]model.Product, error)
}

// ProductHandler は商品カタログ関連のHTTPハンドラー。
// 一覧系エンドポイントはカタログAPI障害時に空の結果へ縮退する
// （エラーにせず空配列の200を返し、UI側は空状態表示となる）。
type ProductHandler struct {
	catalog CatalogServiceInterface
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(catalog CatalogServiceInterface) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// ListProducts は商品一覧を返す。
// GET /products?limit=8&sort=asc
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	sort := catalog.SortNone
	switch r.URL.Query().Get("sort") {
	case "asc":
		sort = catalog.SortAsc
	case "desc":
		sort = catalog.SortDesc
	}

	products, err := h.catalog.Products(r.Context(), limit, sort)
	if err != nil {
		slog.Error("failed to list products", slog.String("error", err.Error()))
		products = []model.Product{}
	}

	writeJSON(w, http.StatusOK, products)
}

// GetProduct は指定IDの商品を返す。
// GET /products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("商品IDは正の整数で指定してください"))
		return
	}

	product, err := h.catalog.ProductByID(r.Context(), id)
	if err != nil {
		slog.Error("failed to get product",
			slog.Int("product_id", id),
			slog.String("error", err.Error()),
		)
		apiErr := model.NewCatalogUnavailableError()
		middleware.WriteErrorResponse(w, middleware.StatusForError(apiErr), apiErr)
		return
	}
	if product == nil {
		apiErr := model.NewProductNotFoundError(id)
		middleware.WriteErrorResponse(w, middleware.StatusForError(apiErr), apiErr)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// ListCategories はカテゴリ一覧を返す。
// GET /products/categories
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		slog.Error("failed to list categories", slog.String("error", err.Error()))
		categories = []string{}
	}

	writeJSON(w, http.StatusOK, categories)
}

// ListProductsByCategory は指定カテゴリの商品一覧を返す。
// GET /products/category/{slug}
func (h *ProductHandler) ListProductsByCategory(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	products, err := h.catalog.ProductsByCategory(r.Context(), slug)
	if err != nil {
		slog.Error("failed to list products by category",
			slog.String("category", slug),
			slog.String("error", err.Error()),
		)
		products = []model.Product{}
	}

	writeJSON(w, http.StatusOK, products)
}

// SearchProducts は検索クエリに一致する商品一覧を返す。
// GET /products/search?q=shirt
func (h *ProductHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusOK, []model.Product{})
		return
	}

	products, err := h.catalog.SearchProducts(r.Context(), query)
	if err != nil {
		slog.Error("product search failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		products = []model.Product{}
	}

	writeJSON(w, http.StatusOK, products)
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
