// Package auth は認証セッションの状態遷移とCookieペアによる永続化を提供する。
//
// 認証サーバーは存在せず、外部デモAPIのログイン受理をもって認証成功とみなす。
// セッションはクライアント保持のCookieペア（auth-token / user-data）で表現され、
// サーバー側にセッションレコードは持たない。
package auth

import "github.com/hitoshi/storefront/internal/model"

// Status は認証状態機械の状態を表す。
type Status string

const (
	// StatusAnonymous は未認証状態を示す。
	StatusAnonymous Status = "anonymous"
	// StatusAuthenticating はログイン処理中を示す。
	StatusAuthenticating Status = "authenticating"
	// StatusAuthenticated は認証済み状態を示す。
	StatusAuthenticated Status = "authenticated"
	// StatusError はログイン失敗状態を示す。匿名の身元は維持される。
	StatusError Status = "error"
)

// State は認証セッションの状態を表す。
// 不変条件: IsAuthenticated()が真 ⇔ UserとTokenが共に非nil/非空。
type State struct {
	User   *model.User
	Token  string
	Status Status
	Err    string // StatusErrorのときのユーザー向けメッセージ
}

// NewState は匿名状態のStateを生成する。
func NewState() *State {
	return &State{Status: StatusAnonymous}
}

// BeginLogin はログイン開始の遷移を行う。anonymous → authenticating。
func (s *State) BeginLogin() {
	s.Status = StatusAuthenticating
	s.Err = ""
}

// SetCredentials はログイン成功の遷移を行う。authenticating → authenticated。
func (s *State) SetCredentials(user *model.User, token string) {
	s.User = user
	s.Token = token
	s.Status = StatusAuthenticated
	s.Err = ""
}

// SetError はログイン失敗の遷移を行う。authenticating → error。
// 匿名の身元（user/tokenなし）は維持され、メッセージのみ保持する。
func (s *State) SetError(message string) {
	s.User = nil
	s.Token = ""
	s.Status = StatusError
	s.Err = message
}

// Logout はログアウトの遷移を行う。authenticated → anonymous。
func (s *State) Logout() {
	s.User = nil
	s.Token = ""
	s.Status = StatusAnonymous
	s.Err = ""
}

// Hydrate は永続化されたCookieペアからの再構築を行う。
// credsがnilの場合は匿名状態のまま、そうでなければ直接認証済み状態へ遷移する。
func (s *State) Hydrate(creds *model.Credentials) {
	if creds == nil || creds.User == nil || creds.Token == "" {
		return
	}
	s.User = creds.User
	s.Token = creds.Token
	s.Status = StatusAuthenticated
}

// IsAuthenticated はユーザーとトークンが共に揃っている場合にのみ真を返す。
func (s *State) IsAuthenticated() bool {
	return s.User != nil && s.Token != ""
}

// Credentials は認証済みの場合にCookieペアへ書き込む認証情報を返す。
// 未認証（anonymous / authenticating / error）の場合はnilを返す。
func (s *State) Credentials() *model.Credentials {
	if !s.IsAuthenticated() {
		return nil
	}
	return &model.Credentials{User: s.User, Token: s.Token}
}
