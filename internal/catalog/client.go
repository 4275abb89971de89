// Package catalog は外部ストアAPI（FakeStore API互換）のクライアントを提供する。
// 商品・カテゴリの読み取りと、ログイン・ユーザー登録のシミュレーションを含む。
// カタログデータは外部APIが唯一の情報源であり、ローカルでは変更しない。
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/security"
)

// defaultBaseURL はFakeStore APIのエンドポイント。
const defaultBaseURL = "https://fakestoreapi.com"

// SortOrder は商品一覧のソート順を表す。
type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// RegisterInput はユーザー登録リクエストの内容を表す。
type RegisterInput struct {
	Email    string     `json:"email"`
	Username string     `json:"username"`
	Password string     `json:"password"`
	Name     model.Name `json:"name"`
}

// Metrics はカタログAPI呼び出しのメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type Metrics interface {
	RecordCatalogSuccess(operation string)
	RecordCatalogFailure(operation string)
	RecordCatalogLatency(duration time.Duration)
}

// Client は外部ストアAPIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	sanitizer  security.TextSanitizerService
	metrics    Metrics
	baseURL    string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空の場合はFakeStore APIの本番エンドポイントを使用する。
func NewClient(httpClient *http.Client, logger *slog.Logger, sanitizer security.TextSanitizerService, metrics Metrics, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		sanitizer:  sanitizer,
		metrics:    metrics,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Products は商品一覧を取得する。
// limitが正の場合は件数を制限し、sortが指定された場合はID順の昇順/降順を適用する。
func (c *Client) Products(ctx context.Context, limit int, sort SortOrder) ([]model.Product, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if sort == SortAsc || sort == SortDesc {
		q.Set("sort", string(sort))
	}

	endpoint := c.baseURL + "/products"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var products []model.Product
	if err := c.getJSON(ctx, "products", endpoint, &products); err != nil {
		return nil, err
	}
	return c.sanitizeProducts(products), nil
}

// ProductByID は指定IDの商品を取得する。
// FakeStore APIは存在しないIDに対して空ボディの200を返すため、
// デコード結果がゼロ値の場合は見つからなかったものとして扱う。
func (c *Client) ProductByID(ctx context.Context, id int) (*model.Product, error) {
	endpoint := fmt.Sprintf("%s/products/%d", c.baseURL, id)

	var product model.Product
	if err := c.getJSON(ctx, "product_by_id", endpoint, &product); err != nil {
		return nil, err
	}
	if product.ID == 0 {
		return nil, nil
	}
	sanitized := c.sanitizeProduct(product)
	return &sanitized, nil
}

// ProductsByCategory は指定カテゴリの商品一覧を取得する。
func (c *Client) ProductsByCategory(ctx context.Context, category string) ([]model.Product, error) {
	endpoint := c.baseURL + "/products/category/" + url.PathEscape(category)

	var products []model.Product
	if err := c.getJSON(ctx, "products_by_category", endpoint, &products); err != nil {
		return nil, err
	}
	return c.sanitizeProducts(products), nil
}

// Categories はカテゴリ名の一覧を取得する。
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.getJSON(ctx, "categories", c.baseURL+"/products/categories", &categories); err != nil {
		return nil, err
	}
	for i, cat := range categories {
		categories[i] = c.sanitizer.Sanitize(cat)
	}
	return categories, nil
}

// SearchProducts は商品を全件取得し、タイトル・説明・カテゴリに対して
// 大文字小文字を区別しない部分一致でフィルタする。
// 外部APIに検索エンドポイントが存在しないためクライアント側で絞り込む。
func (c *Client) SearchProducts(ctx context.Context, query string) ([]model.Product, error) {
	products, err := c.Products(ctx, 0, SortNone)
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(query)
	matched := make([]model.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), lower) ||
			strings.Contains(strings.ToLower(p.Description), lower) ||
			strings.Contains(strings.ToLower(p.Category), lower) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// Login は外部APIのログインエンドポイントに認証を委譲し、トークンを取得する。
// 認証拒否（非2xx）の場合はエラーを返す。原因の内訳は区別しない。
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode login request: %w", err)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := c.postJSON(ctx, "login", c.baseURL+"/auth/login", body, &result); err != nil {
		return "", err
	}
	if result.Token == "" {
		return "", fmt.Errorf("login response contained no token")
	}
	return result.Token, nil
}

// CreateUser は外部APIのユーザー登録エンドポイントに登録をシミュレートさせ、
// 発行されたユーザーIDを返す。
func (c *Client) CreateUser(ctx context.Context, input RegisterInput) (int, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return 0, fmt.Errorf("failed to encode register request: %w", err)
	}

	var result struct {
		ID int `json:"id"`
	}
	if err := c.postJSON(ctx, "create_user", c.baseURL+"/users", body, &result); err != nil {
		return 0, err
	}
	return result.ID, nil
}

// getJSON はGETリクエストを実行し、レスポンスJSONをoutにデコードする。
func (c *Client) getJSON(ctx context.Context, operation, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build catalog request: %w", err)
	}
	return c.do(operation, req, out)
}

// postJSON はJSONボディ付きのPOSTリクエストを実行し、レスポンスJSONをoutにデコードする。
func (c *Client) postJSON(ctx context.Context, operation, endpoint string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(operation, req, out)
}

// do はリクエストを実行し、ステータス検証・デコード・メトリクス記録を行う。
func (c *Client) do(operation string, req *http.Request, out any) error {
	req.Header.Set("User-Agent", "Storefront/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.metrics != nil {
		c.metrics.RecordCatalogLatency(time.Since(start))
	}
	if err != nil {
		c.recordFailure(operation)
		c.logger.Error("catalog request failed",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.recordFailure(operation)
		c.logger.Error("catalog returned error status",
			slog.String("operation", operation),
			slog.Int("http_status", resp.StatusCode),
		)
		return fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordFailure(operation)
		return fmt.Errorf("failed to read catalog response: %w", err)
	}

	// 存在しないリソースに対する空ボディの200はゼロ値のまま返す
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			c.recordFailure(operation)
			return fmt.Errorf("failed to parse catalog response: %w", err)
		}
	}

	if c.metrics != nil {
		c.metrics.RecordCatalogSuccess(operation)
	}
	return nil
}

func (c *Client) recordFailure(operation string) {
	if c.metrics != nil {
		c.metrics.RecordCatalogFailure(operation)
	}
}

// sanitizeProduct は商品のテキストフィールドをサニタイズする。
func (c *Client) sanitizeProduct(p model.Product) model.Product {
	p.Title = c.sanitizer.Sanitize(p.Title)
	p.Description = c.sanitizer.Sanitize(p.Description)
	p.Category = c.sanitizer.Sanitize(p.Category)
	return p
}

func (c *Client) sanitizeProducts(products []model.Product) []model.Product {
	for i, p := range products {
		products[i] = c.sanitizeProduct(p)
	}
	return products
}
