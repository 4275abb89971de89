package auth

import (
	"testing"

	"github.com/hitoshi/storefront/internal/model"
)

// TestState_LoginTransitions は anonymous → authenticating → authenticated
// の正常系遷移を検証する。
func TestState_LoginTransitions(t *testing.T) {
	s := NewState()
	if s.Status != StatusAnonymous {
		t.Fatalf("expected anonymous initial status, got %q", s.Status)
	}
	if s.IsAuthenticated() {
		t.Error("expected anonymous state to be unauthenticated")
	}

	s.BeginLogin()
	if s.Status != StatusAuthenticating {
		t.Errorf("expected authenticating status, got %q", s.Status)
	}

	user := &model.User{ID: 1, Username: "johnd"}
	s.SetCredentials(user, "token-abc")
	if s.Status != StatusAuthenticated {
		t.Errorf("expected authenticated status, got %q", s.Status)
	}
	if !s.IsAuthenticated() {
		t.Error("expected authenticated state")
	}
}

// TestState_ErrorTransition はログイン失敗で匿名の身元が維持されることを検証する。
func TestState_ErrorTransition(t *testing.T) {
	s := NewState()
	s.BeginLogin()
	s.SetError("Invalid username or password")

	if s.Status != StatusError {
		t.Errorf("expected error status, got %q", s.Status)
	}
	if s.User != nil || s.Token != "" {
		t.Error("expected no identity after failed login")
	}
	if s.IsAuthenticated() {
		t.Error("expected error state to be unauthenticated")
	}
	if s.Err != "Invalid username or password" {
		t.Errorf("unexpected error message: %q", s.Err)
	}

	// 失敗後の再試行は再びauthenticatingへ遷移し、メッセージをクリアする
	s.BeginLogin()
	if s.Status != StatusAuthenticating || s.Err != "" {
		t.Errorf("expected retry to clear error, got status=%q err=%q", s.Status, s.Err)
	}
}

// TestState_Logout はログアウトで匿名状態に戻ることを検証する。
func TestState_Logout(t *testing.T) {
	s := NewState()
	s.SetCredentials(&model.User{ID: 1, Username: "johnd"}, "token-abc")

	s.Logout()

	if s.Status != StatusAnonymous {
		t.Errorf("expected anonymous status after logout, got %q", s.Status)
	}
	if s.User != nil || s.Token != "" {
		t.Error("expected identity to be cleared after logout")
	}
}

// TestState_Credentials は認証済みの場合にのみ認証情報を返すことを検証する。
func TestState_Credentials(t *testing.T) {
	s := NewState()
	if s.Credentials() != nil {
		t.Error("expected nil credentials for anonymous state")
	}

	s.BeginLogin()
	s.SetError("Invalid username or password")
	if s.Credentials() != nil {
		t.Error("expected nil credentials after failed login")
	}

	user := &model.User{ID: 1, Username: "johnd"}
	s.BeginLogin()
	s.SetCredentials(user, "token-abc")
	creds := s.Credentials()
	if creds == nil {
		t.Fatal("expected credentials for authenticated state")
	}
	if creds.User != user || creds.Token != "token-abc" {
		t.Errorf("unexpected credentials: %+v", creds)
	}

	s.Logout()
	if s.Credentials() != nil {
		t.Error("expected nil credentials after logout")
	}
}

// TestState_Hydrate は永続化された認証情報からの再構築を検証する。
func TestState_Hydrate(t *testing.T) {
	s := NewState()
	s.Hydrate(&model.Credentials{
		User:  &model.User{ID: 1, Username: "johnd"},
		Token: "token-abc",
	})

	if s.Status != StatusAuthenticated || !s.IsAuthenticated() {
		t.Errorf("expected authenticated state after hydrate, got %q", s.Status)
	}
}

// TestState_Hydrate_Incomplete は欠損した認証情報では匿名のままであることを検証する。
func TestState_Hydrate_Incomplete(t *testing.T) {
	tests := []struct {
		name  string
		creds *model.Credentials
	}{
		{"nil", nil},
		{"ユーザーなし", &model.Credentials{Token: "token-abc"}},
		{"トークンなし", &model.Credentials{User: &model.User{ID: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			s.Hydrate(tt.creds)
			if s.Status != StatusAnonymous || s.IsAuthenticated() {
				t.Errorf("expected anonymous state, got %q", s.Status)
			}
		})
	}
}
