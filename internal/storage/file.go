package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore はキーごとに1ファイルを書き込むStore実装。
// TTLは記録せず、期限切れエントリの破棄はcleanupワーカーがファイルの
// 更新時刻に基づいて行う。
type FileStore struct {
	dir string
}

// NewFileStore はFileStoreを生成する。ディレクトリが存在しない場合は作成する。
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir は保存先ディレクトリを返す。cleanupワーカーが走査に使用する。
func (s *FileStore) Dir() string {
	return s.dir
}

// Get は指定キーの値を取得する。ファイルが存在しない場合は(nil, nil)を返す。
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	return data, nil
}

// Set は指定キーに値を保存する。
// 一時ファイルに書いてからリネームし、中途半端な書き込みが読まれないようにする。
func (s *FileStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	path := s.path(key)

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close state file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename state file: %w", err)
	}
	return nil
}

// Delete は指定キーの値を削除する。ファイルが存在しない場合は何もしない。
func (s *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}

// path はキーをファイルパスに変換する。
// キーに含まれるパス区切り等はファイル名として安全な文字に置換する。
func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+".json")
}

// sanitizeKey はキーをファイル名として安全な形に変換する。
func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}
