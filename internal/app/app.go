package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/storefront/internal/auth"
	"github.com/hitoshi/storefront/internal/cart"
	"github.com/hitoshi/storefront/internal/catalog"
	"github.com/hitoshi/storefront/internal/config"
	"github.com/hitoshi/storefront/internal/handler"
	"github.com/hitoshi/storefront/internal/logger"
	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/order"
	"github.com/hitoshi/storefront/internal/pricing"
	"github.com/hitoshi/storefront/internal/security"
	"github.com/hitoshi/storefront/internal/storage"
	"github.com/hitoshi/storefront/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("catalog_base_url", cfg.CatalogBaseURL),
	)

	return runServe(cfg)
}

// runServe はAPIサーバーモードで起動する。
// ストレージバックエンドを選択し、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. ストレージバックエンドの選択
	// REDIS_ADDRが設定されていればRedis（TTLで自動破棄）、
	// そうでなければファイル（cleanupワーカーが定期破棄）。
	var store storage.Store
	var fileStore *storage.FileStore

	if cfg.RedisAddr != "" {
		redisStore, err := storage.NewRedisStore(ctx, cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("failed to open redis storage: %w", err)
		}
		defer redisStore.Close()
		store = redisStore
		slog.Info("using redis storage backend", slog.String("addr", cfg.RedisAddr))
	} else {
		fs, err := storage.NewFileStore(cfg.StoragePath)
		if err != nil {
			return fmt.Errorf("failed to open file storage: %w", err)
		}
		store = fs
		fileStore = fs
		slog.Info("using file storage backend", slog.String("path", cfg.StoragePath))
	}

	// 2. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 3. カタログクライアントの初期化
	sanitizer := security.NewTextSanitizer()
	catalogClient := catalog.NewClient(
		&http.Client{Timeout: cfg.CatalogTimeout},
		slog.Default(), sanitizer, collector, cfg.CatalogBaseURL,
	)

	// 4. ドメインサービスの初期化
	calculator := pricing.NewCalculator(pricing.Config{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		ShippingFee:           cfg.ShippingFee,
		TaxRate:               cfg.TaxRate,
	})

	cartService := cart.NewService(store, slog.Default(), collector, cfg.StateRetention)
	orderService := order.NewService(store, calculator, slog.Default(), collector, cfg.StateRetention)
	authService := auth.NewService(catalogClient, slog.Default(), collector, auth.ServiceConfig{
		SessionSecret: cfg.SessionSecret,
		SessionMaxAge: cfg.SessionMaxAge,
	})

	// 5. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.LoginRate = rate.Limit(float64(cfg.RateLimitLogin) / 60.0)
	rateLimiterCfg.LoginBurst = cfg.RateLimitLogin
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CookieSecure:      cfg.CookieSecure,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		Metrics:           collector,
		Gatherer:          registry,

		CatalogService: catalogClient,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		CartService: cartService,
		Calculator:  calculator,

		OrderService: orderService,
	}

	router := handler.NewRouter(deps)

	// 6. ファイルバックエンド使用時は放置状態のクリーンアップジョブを起動
	if fileStore != nil {
		cleanupJob := cleanup.NewCleanupJob(fileStore.Dir(), slog.Default())
		cleanupJob.Retention = cfg.StateRetention

		go func() {
			// 起動直後に1回実行
			if err := cleanupJob.Run(ctx); err != nil {
				slog.Error("state cleanup failed", slog.String("error", err.Error()))
			}

			ticker := time.NewTicker(24 * time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := cleanupJob.Run(ctx); err != nil {
						slog.Error("state cleanup failed", slog.String("error", err.Error()))
					}
				}
			}
		}()
	}

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
