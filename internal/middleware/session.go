// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/hitoshi/storefront/internal/auth"
	"github.com/hitoshi/storefront/internal/model"
)

// ClientSessionCookieName はブラウザごとの永続化状態を識別するCookie名。
// カート・注文履歴のストレージキーのスコープとなる。
const ClientSessionCookieName = "client-session"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	credentialsContextKey = contextKey("credentials")
	clientIDContextKey    = contextKey("client_id")
)

// NewClientSessionMiddleware はクライアントセッションIDを割り当てるミドルウェアを返す。
// Cookieが未設定のリクエストには新しいUUIDを発行してCookieを設定し、
// いずれの場合もIDをリクエストコンテキストに注入する。
func NewClientSessionMiddleware(cookieSecure bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var clientID string

			cookie, err := r.Cookie(ClientSessionCookieName)
			if err == nil && cookie.Value != "" {
				clientID = cookie.Value
			} else {
				clientID = uuid.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     ClientSessionCookieName,
					Value:    clientID,
					Path:     "/",
					MaxAge:   86400 * 365,
					HttpOnly: true,
					Secure:   cookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), clientIDContextKey, clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewSessionContextMiddleware はCookieペアから認証状態を再水和し、
// 認証済みの場合のみ認証情報をリクエストコンテキストに注入するミドルウェアを返す。
// Cookieが無い・解析できないリクエストは匿名として素通しする（拒否はしない）。
func NewSessionContextMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := auth.NewState()
			state.Hydrate(auth.ReadSession(r))
			if !state.IsAuthenticated() {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), credentialsContextKey, state.Credentials())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIDFromContext はリクエストコンテキストからクライアントセッションIDを取得する。
// ClientSessionMiddlewareを通過したリクエストでのみ有効。
func ClientIDFromContext(ctx context.Context) (string, error) {
	clientID, ok := ctx.Value(clientIDContextKey).(string)
	if !ok || clientID == "" {
		return "", fmt.Errorf("client session ID not found in context")
	}
	return clientID, nil
}

// CredentialsFromContext はリクエストコンテキストから認証情報を取得する。
// 匿名リクエストの場合はnilを返す。
func CredentialsFromContext(ctx context.Context) *model.Credentials {
	creds, ok := ctx.Value(credentialsContextKey).(*model.Credentials)
	if !ok {
		return nil
	}
	return creds
}

// ContextWithClientID はコンテキストにクライアントセッションIDを注入する。
// テストおよびミドルウェア以外のコンテキスト生成で使用する。
func ContextWithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDContextKey, clientID)
}

// ContextWithCredentials はコンテキストに認証情報を注入する。テスト用。
func ContextWithCredentials(ctx context.Context, creds *model.Credentials) context.Context {
	return context.WithValue(ctx, credentialsContextKey, creds)
}
