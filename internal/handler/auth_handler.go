package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/storefront/internal/auth"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, username, password string) (*model.Credentials, error)
	Register(ctx context.Context, input auth.RegisterInput) (*model.Credentials, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler は認証関連のHTTPハンドラー。
// 認証成功時にCookieペア（auth-token / user-data）を発行し、
// ログアウト時に失効させる。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

func (h *AuthHandler) cookieConfig() auth.CookieConfig {
	return auth.CookieConfig{
		Domain: h.config.CookieDomain,
		Secure: h.config.CookieSecure,
		MaxAge: h.config.SessionMaxAge,
	}
}

// Login はログインを処理する。
// POST /auth/login {"username": "...", "password": "..."}
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("usernameとpasswordを指定してください"))
		return
	}

	state := auth.NewState()
	state.BeginLogin()

	creds, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if apiErr, ok := err.(*model.APIError); ok {
			state.SetError(apiErr.Message)
		} else {
			slog.Error("login failed", slog.String("error", err.Error()))
		}
		h.completeAuth(w, state, err, http.StatusOK)
		return
	}
	state.SetCredentials(creds.User, creds.Token)

	h.completeAuth(w, state, nil, http.StatusOK)
}

// completeAuth は認証状態機械の終端状態に応じて応答を確定する。
// 認証済みの場合のみCookieペアを発行し、それ以外はエラー応答を書く。
func (h *AuthHandler) completeAuth(w http.ResponseWriter, state *auth.State, cause error, successStatus int) {
	creds := state.Credentials()
	if creds == nil {
		if apiErr, ok := cause.(*model.APIError); ok {
			middleware.WriteErrorResponse(w, middleware.StatusForError(apiErr), apiErr)
			return
		}
		middleware.WriteInternalServerError(w)
		return
	}

	if err := auth.WriteSession(w, creds, h.cookieConfig()); err != nil {
		slog.Error("failed to write session cookies", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	writeJSON(w, successStatus, creds)
}

// Register はユーザー登録を処理する。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Username  string `json:"username"`
		Password  string `json:"password"`
		Firstname string `json:"firstname"`
		Lastname  string `json:"lastname"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("リクエストボディを解析できません"))
		return
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("email、username、passwordは必須です"))
		return
	}

	state := auth.NewState()
	state.BeginLogin()

	creds, err := h.service.Register(r.Context(), auth.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
	})
	if err != nil {
		if apiErr, ok := err.(*model.APIError); ok {
			state.SetError(apiErr.Message)
		} else {
			slog.Error("registration failed", slog.String("error", err.Error()))
		}
		h.completeAuth(w, state, err, http.StatusCreated)
		return
	}
	state.SetCredentials(creds.User, creds.Token)

	h.completeAuth(w, state, nil, http.StatusCreated)
}

// Logout はセッションCookieペアを失効させる。
// サーバー側にセッションレコードは存在しないため、Cookieの失効のみで完結する。
// 匿名リクエストに対しても冪等に成功する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	state := auth.NewState()
	state.Hydrate(middleware.CredentialsFromContext(r.Context()))
	if state.IsAuthenticated() {
		username := state.User.Username
		state.Logout()
		slog.Info("session ended", slog.String("username", username))
	}

	auth.ClearSession(w, h.cookieConfig())
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Me は現在のログインユーザー情報を返す。
// Cookieペアから再構築できないリクエストには401を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	creds := middleware.CredentialsFromContext(r.Context())
	if creds == nil {
		apiErr := model.NewUnauthorizedError()
		middleware.WriteErrorResponse(w, middleware.StatusForError(apiErr), apiErr)
		return
	}

	writeJSON(w, http.StatusOK, creds.User)
}
