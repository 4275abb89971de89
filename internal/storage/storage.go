// Package storage はシリアライズ済み状態のキー・バリュー永続化を提供する。
//
// ブラウザのlocalStorageに相当する層で、カートと注文履歴のJSONを
// クライアントセッションごとのキー（cart:<id>、orders:<id>）で保持する。
// バックエンドはファイル、Redis、インメモリ（テスト用）から選択できる。
package storage

import (
	"context"
	"time"
)

// Store は状態BLOBの永続化インターフェース。
type Store interface {
	// Get は指定キーの値を取得する。キーが存在しない場合は(nil, nil)を返す。
	Get(ctx context.Context, key string) ([]byte, error)

	// Set は指定キーに値を保存する。ttlが正の場合、その期間経過後に値は破棄対象となる。
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete は指定キーの値を削除する。キーが存在しない場合は何もしない。
	Delete(ctx context.Context, key string) error
}
