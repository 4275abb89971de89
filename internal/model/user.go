// Package model はドメインモデルを定義する。
package model

// Name はユーザーの氏名を表す。
type Name struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// Address はユーザーの住所を表す。
type Address struct {
	City    string `json:"city"`
	Street  string `json:"street"`
	Number  int    `json:"number"`
	Zipcode string `json:"zipcode"`
}

// User はサービス利用ユーザーを表す。
// デモAPIのログイン受理以外にサーバー側の検証はなく、完全にクライアント申告の情報。
type User struct {
	ID       int      `json:"id"`
	Email    string   `json:"email"`
	Username string   `json:"username"`
	Name     Name     `json:"name"`
	Address  *Address `json:"address,omitempty"`
	Phone    string   `json:"phone,omitempty"`
}

// Credentials は認証済みセッションを構成するユーザーとトークンの組を表す。
// Cookieペア（auth-token / user-data）として永続化される。
type Credentials struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
