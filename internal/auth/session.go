package auth

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/hitoshi/storefront/internal/model"
)

const (
	// TokenCookieName はトークンを保持するCookie名。
	TokenCookieName = "auth-token"
	// UserCookieName はユーザー情報（URLエンコードされたJSON）を保持するCookie名。
	UserCookieName = "user-data"
)

// CookieConfig はセッションCookieの属性設定。
type CookieConfig struct {
	Domain string
	Secure bool
	MaxAge int // 秒。デフォルトは7日
}

// WriteSession は認証情報をCookieペアとして書き込む。
// auth-tokenは不透明なトークン文字列、user-dataはURLエンコードしたユーザーJSON。
// いずれもPath=/、MaxAgeは設定値（7日）で発行する。
func WriteSession(w http.ResponseWriter, creds *model.Credentials, cfg CookieConfig) error {
	userJSON, err := json.Marshal(creds.User)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    creds.Token,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     UserCookieName,
		Value:    url.QueryEscape(string(userJSON)),
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearSession はCookieペアを失効させる。ログアウト時に呼び出される。
func ClearSession(w http.ResponseWriter, cfg CookieConfig) {
	for _, name := range []string{TokenCookieName, UserCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   cfg.Domain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   cfg.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// ReadSession はリクエストのCookieペアから認証情報を再構築する。
// どちらかのCookieが欠けている場合やuser-dataが解析できない場合はnilを返す
// （壊れた永続化データは黙って破棄し、匿名として扱う）。
func ReadSession(r *http.Request) *model.Credentials {
	tokenCookie, err := r.Cookie(TokenCookieName)
	if err != nil || tokenCookie.Value == "" {
		return nil
	}

	userCookie, err := r.Cookie(UserCookieName)
	if err != nil || userCookie.Value == "" {
		return nil
	}

	decoded, err := url.QueryUnescape(userCookie.Value)
	if err != nil {
		return nil
	}

	var user model.User
	if err := json.Unmarshal([]byte(decoded), &user); err != nil {
		return nil
	}
	if user.Username == "" && user.ID == 0 {
		return nil
	}

	return &model.Credentials{User: &user, Token: tokenCookie.Value}
}
