// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService は外部カタログAPIから取得した商品テキストをサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayライブラリの厳格ポリシーで、全てのタグと属性を除去しプレーンテキストのみを残す。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService は外部由来テキストのサニタイズ機能のインターフェースを定義する。
// カタログAPIレスポンスの商品タイトル・説明・カテゴリに適用される。
type TextSanitizerService interface {
	// Sanitize は入力文字列から全てのHTMLタグと属性を除去し、プレーンテキストを返す。
	// HTMLエンティティはデコードされ、前後の空白は取り除かれる。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは許可タグを一切持たないため、script等の危険なタグを含む
// 全てのマークアップが除去される。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力文字列をサニタイズしてプレーンテキストを返す。
// StrictPolicyはタグ除去後のテキストをエスケープして返すため、
// 表示用テキストとして扱えるようエンティティをデコードして返す。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	stripped := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
