package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/storefront/internal/security"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewClient(server.Client(), logger, security.NewTextSanitizer(), nil, server.URL)
	return client, server
}

const productsJSON = `[
	{"id":1,"title":"Fjallraven Backpack","price":109.95,"description":"Your perfect pack for everyday use","category":"men's clothing","image":"https://example.com/1.jpg","rating":{"rate":3.9,"count":120}},
	{"id":2,"title":"Mens Casual T-Shirt","price":22.3,"description":"Slim-fitting style","category":"men's clothing","image":"https://example.com/2.jpg","rating":{"rate":4.1,"count":259}},
	{"id":3,"title":"Gold Chain Bracelet","price":695,"description":"Dragon Station design","category":"jewelery","image":"https://example.com/3.jpg","rating":{"rate":4.6,"count":400}}
]`

// TestClient_Products は商品一覧の取得とクエリパラメータの付与を検証する。
func TestClient_Products(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		w.Write([]byte(productsJSON))
	}))

	products, err := client.Products(context.Background(), 5, SortDesc)
	if err != nil {
		t.Fatalf("Products returned error: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(products))
	}
	if products[0].Title != "Fjallraven Backpack" {
		t.Errorf("unexpected first product: %q", products[0].Title)
	}
	if gotQuery != "limit=5&sort=desc" {
		t.Errorf("unexpected query: %q", gotQuery)
	}
}

// TestClient_Products_NoQuery はlimit/sort未指定時にクエリが付かないことを検証する。
func TestClient_Products_NoQuery(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("expected no query, got %q", r.URL.RawQuery)
		}
		w.Write([]byte("[]"))
	}))

	if _, err := client.Products(context.Background(), 0, SortNone); err != nil {
		t.Fatalf("Products returned error: %v", err)
	}
}

// TestClient_ProductByID は商品詳細の取得を検証する。
func TestClient_ProductByID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"id":1,"title":"Fjallraven Backpack","price":109.95}`))
	}))

	p, err := client.ProductByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("ProductByID returned error: %v", err)
	}
	if p == nil || p.ID != 1 {
		t.Fatalf("expected product 1, got %+v", p)
	}
}

// TestClient_ProductByID_NotFound は存在しないIDへの空ボディ200が
// nilとして扱われることを検証する。
func TestClient_ProductByID_NotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// FakeStore APIは存在しないIDに空ボディの200を返す
		w.WriteHeader(http.StatusOK)
	}))

	p, err := client.ProductByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("ProductByID returned error: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil for absent product, got %+v", p)
	}
}

// TestClient_ProductsByCategory はカテゴリ別一覧の取得とパスエスケープを検証する。
func TestClient_ProductsByCategory(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/category/men's clothing" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(productsJSON))
	}))

	products, err := client.ProductsByCategory(context.Background(), "men's clothing")
	if err != nil {
		t.Fatalf("ProductsByCategory returned error: %v", err)
	}
	if len(products) != 3 {
		t.Errorf("expected 3 products, got %d", len(products))
	}
}

// TestClient_Categories はカテゴリ一覧の取得を検証する。
func TestClient_Categories(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/categories" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`["electronics","jewelery","men's clothing","women's clothing"]`))
	}))

	categories, err := client.Categories(context.Background())
	if err != nil {
		t.Fatalf("Categories returned error: %v", err)
	}
	if len(categories) != 4 {
		t.Fatalf("expected 4 categories, got %d", len(categories))
	}
	if categories[0] != "electronics" {
		t.Errorf("unexpected first category: %q", categories[0])
	}
}

// TestClient_SearchProducts は全件取得後のクライアント側フィルタを検証する。
// タイトル・説明・カテゴリへの大文字小文字を区別しない部分一致。
func TestClient_SearchProducts(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productsJSON))
	}))
	ctx := context.Background()

	tests := []struct {
		name    string
		query   string
		wantIDs []int
	}{
		{"タイトル一致", "backpack", []int{1}},
		{"説明一致", "slim-fitting", []int{2}},
		{"カテゴリ一致", "JEWELERY", []int{3}},
		{"複数一致", "men's clothing", []int{1, 2}},
		{"一致なし", "zzzzz", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.SearchProducts(ctx, tt.query)
			if err != nil {
				t.Fatalf("SearchProducts returned error: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("expected %d results, got %d", len(tt.wantIDs), len(got))
			}
			for i, want := range tt.wantIDs {
				if got[i].ID != want {
					t.Errorf("result %d: expected product %d, got %d", i, want, got[i].ID)
				}
			}
		})
	}
}

// TestClient_Sanitization は商品テキストのHTMLタグが除去されることを検証する。
func TestClient_Sanitization(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":1,"title":"<script>alert(1)</script>Backpack","price":10,"description":"<b>bold</b> text"}`))
	}))

	p, err := client.ProductByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("ProductByID returned error: %v", err)
	}
	if p.Title != "Backpack" {
		t.Errorf("expected script tag stripped, got %q", p.Title)
	}
	if p.Description != "bold text" {
		t.Errorf("expected markup stripped, got %q", p.Description)
	}
}

// TestClient_Login は認証委譲の成功と失敗を検証する。
func TestClient_Login(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if body["username"] == "johnd" {
			w.Write([]byte(`{"token":"token-abc"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	ctx := context.Background()

	token, err := client.Login(ctx, "johnd", "m38rmF$")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if token != "token-abc" {
		t.Errorf("token = %q, want %q", token, "token-abc")
	}

	if _, err := client.Login(ctx, "nobody", "wrong"); err == nil {
		t.Error("expected error for rejected login")
	}
}

// TestClient_Login_NoToken は2xxでもトークンが含まれない場合に
// エラーになることを検証する。
func TestClient_Login_NoToken(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))

	if _, err := client.Login(context.Background(), "johnd", "pass"); err == nil {
		t.Error("expected error for token-less response")
	}
}

// TestClient_CreateUser はユーザー登録の委譲とID取得を検証する。
func TestClient_CreateUser(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"id":11}`))
	}))

	id, err := client.CreateUser(context.Background(), RegisterInput{
		Email:    "new@example.com",
		Username: "newuser",
		Password: "password",
	})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if id != 11 {
		t.Errorf("id = %d, want 11", id)
	}
}

// TestClient_ServerError は非2xxレスポンスがエラーになることを検証する。
func TestClient_ServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	if _, err := client.Products(context.Background(), 0, SortNone); err == nil {
		t.Error("expected error for 500 response")
	}
}
