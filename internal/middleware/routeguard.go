package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/storefront/internal/auth"
)

// protectedPrefixes は認証済みセッションを必要とするパスの接頭辞。
var protectedPrefixes = []string{"/checkout", "/orders", "/profile"}

// loginPath は未認証リダイレクトの遷移先。元のパスをredirectクエリで引き継ぐ。
const loginPath = "/login"

// GuardDecision はルートガードの判定結果を表す。
type GuardDecision struct {
	Allowed     bool
	RedirectURL string // Allowedがfalseの場合のみ設定される
}

// DecideRoute は（リクエストパス、トークン有無）の純粋な述語としてルーティング判定を行う。
// 保護対象の接頭辞に一致しトークンが無い場合のみ、元のパスを引き継いだ
// ログインパスへのリダイレクト指示を返す。それ以外は通過。
func DecideRoute(path string, hasToken bool) GuardDecision {
	for _, prefix := range protectedPrefixes {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		if hasToken {
			return GuardDecision{Allowed: true}
		}
		q := url.Values{}
		q.Set("redirect", path)
		return GuardDecision{
			Allowed:     false,
			RedirectURL: loginPath + "?" + q.Encode(),
		}
	}
	return GuardDecision{Allowed: true}
}

// NewRouteGuardMiddleware は保護ルートから未認証ユーザーをリダイレクトする
// ミドルウェアを返す。トークンの有無はauth-token Cookieの存在のみで判定し、
// トークンの内容は検証しない（期限切れCookieはブラウザ側で消滅する前提）。
func NewRouteGuardMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasToken := false
			if cookie, err := r.Cookie(auth.TokenCookieName); err == nil && cookie.Value != "" {
				hasToken = true
			}

			decision := DecideRoute(r.URL.Path, hasToken)
			if !decision.Allowed {
				slog.Info("redirecting unauthenticated request",
					slog.String("path", r.URL.Path),
				)
				http.Redirect(w, r, decision.RedirectURL, http.StatusTemporaryRedirect)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
