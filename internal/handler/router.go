package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/pricing"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	CookieSecure      bool
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Metrics           *metrics.Collector
	Gatherer          prometheus.Gatherer

	// カタログ
	CatalogService CatalogServiceInterface

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// カート
	CartService CartServiceInterface
	Calculator  *pricing.Calculator

	// 注文
	OrderService OrderServiceInterface
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Recovery → ClientSession → SessionContext → Logging → RateLimit(General)
//
// 保護ルート（/checkout、/orders、/profile）にはさらにRouteGuardが適用され、
// 未認証リクエストはログインパスへリダイレクトされる。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewClientSessionMiddleware(deps.CookieSecure))
	r.Use(middleware.NewSessionContextMiddleware())

	// 型付きnilポインタがinterfaceの非nil判定に化けないようここで詰め替える
	var statusMetrics middleware.StatusMetrics
	if deps.Metrics != nil {
		statusMetrics = deps.Metrics
	}
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, statusMetrics))

	productHandler := NewProductHandler(deps.CatalogService)
	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	cartHandler := NewCartHandler(deps.CartService, deps.CatalogService, deps.Calculator)
	orderHandler := NewOrderHandler(deps.OrderService, deps.CartService)
	userHandler := NewUserHandler()

	// --- 運用エンドポイント（レート制限の外） ---

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 公開ルート ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 商品カタログ
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Get("/categories", productHandler.ListCategories)
			r.Get("/category/{slug}", productHandler.ListProductsByCategory)
			r.Get("/search", productHandler.SearchProducts)
			r.Get("/{id}", productHandler.GetProduct)
		})

		// 認証（ログイン・登録には専用レート制限を追加）
		r.Route("/auth", func(r chi.Router) {
			r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)
			r.With(deps.RateLimiter.LoginMiddleware()).Post("/register", authHandler.Register)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})

		// カート
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productID}", cartHandler.UpdateItem)
			r.Delete("/items/{productID}", cartHandler.RemoveItem)
			r.Put("/drawer", cartHandler.SetDrawer)
			r.Post("/drawer", cartHandler.ToggleDrawer)
		})
	})

	// --- 保護ルート ---
	// RouteGuardは認証済みセッションを必要とする接頭辞（/checkout、/orders、/profile）
	// への未認証アクセスをログインパスへリダイレクトする。
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewRouteGuardMiddleware())

		r.Post("/checkout", orderHandler.Checkout)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orderHandler.ListOrders)
			r.Get("/{id}", orderHandler.GetOrder)
		})

		r.Get("/profile", userHandler.Profile)
	})

	return r
}
