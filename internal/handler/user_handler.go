package handler

import (
	"net/http"

	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/model"
)

// UserHandler はユーザープロフィールのHTTPハンドラー。
type UserHandler struct{}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Profile は現在のログインユーザーのプロフィールを返す。
// ユーザー情報は完全にクライアント申告（Cookieペア由来）であり、
// サーバー側の参照先は存在しない。
// GET /profile
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	creds := middleware.CredentialsFromContext(r.Context())
	if creds == nil || creds.User == nil {
		apiErr := model.NewUnauthorizedError()
		middleware.WriteErrorResponse(w, middleware.StatusForError(apiErr), apiErr)
		return
	}

	writeJSON(w, http.StatusOK, creds.User)
}
