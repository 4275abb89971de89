// Package cleanup は放置されたクライアント状態の自動削除ジョブを提供する。
// 保持期間（デフォルト30日）を超えて更新のないカート・注文履歴ファイルを
// 定期バッチで削除する。Redisバックエンド使用時はキーのTTLで同等の
// 破棄が行われるため、このジョブはファイルバックエンド専用。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// CleanupJob は保持期間を超過した状態ファイルの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	dir       string
	logger    *slog.Logger
	Retention time.Duration // 状態ファイルの保持期間（デフォルト: 30日）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持期間は30日。
func NewCleanupJob(dir string, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		dir:       dir,
		logger:    logger,
		Retention: 30 * 24 * time.Hour,
	}
}

// Run は保持期間を超過した状態ファイルを削除する。
// 最終更新時刻がRetentionより古い.jsonファイルを削除対象とする。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	cutoff := start.Add(-j.Retention)

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		j.logger.Error("failed to scan state directory",
			slog.String("error", err.Error()),
			slog.String("dir", j.dir),
		)
		return fmt.Errorf("failed to scan state directory: %w", err)
	}

	deleted := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(j.dir, entry.Name())); err != nil {
			j.logger.Warn("failed to remove stale state file",
				slog.String("file", entry.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		deleted++
	}

	j.logger.Info("state cleanup completed",
		slog.Int("deleted_count", deleted),
		slog.Duration("retention", j.Retention),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}
