package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RunLogPattern matches the per-run log files written by NewFromConfig.
const RunLogPattern = "nytbot-*.log"

// PruneRunLogs deletes run logs in logDir whose modification time is older
// than retentionDays. keep names a file that must survive regardless of age,
// usually the log of the run doing the pruning. It returns the number of files
// removed. retentionDays <= 0 disables pruning.
func PruneRunLogs(logger *slog.Logger, logDir string, retentionDays int, keep string) int {
	dir := strings.TrimSpace(logDir)
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	if logger == nil {
		logger = NewNop()
	}
	return pruneOlderThan(logger, dir, time.Now().AddDate(0, 0, -retentionDays), absOrSelf(keep))
}

func pruneOlderThan(logger *slog.Logger, dir string, cutoff time.Time, keep string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if matched, err := filepath.Match(RunLogPattern, entry.Name()); err != nil || !matched {
			continue
		}
		path := absOrSelf(filepath.Join(dir, entry.Name()))
		if keep != "" && path == keep {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "run log not pruned", "log_retention_failed",
				String("path", path),
				Error(err),
				Hint("check permissions on paths.log_dir"),
				Impact("old run log remains on disk"),
			)
			continue
		}
		removed++
		logger.Debug("run log pruned", String("path", path), Event("log_pruned"))
	}
	return removed
}

func absOrSelf(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}
