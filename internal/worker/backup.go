// Package worker runs background maintenance for the debt tracker.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/harindujayakody/debt-tracker/internal/storage"
)

// BackupWorker periodically snapshots the SQLite database into a backup
// directory and prunes old snapshots beyond the retention count.
type BackupWorker struct {
	storage   *storage.SQLiteRepository
	dir       string
	interval  time.Duration
	retention int
}

func NewBackupWorker(repo *storage.SQLiteRepository, dir string, interval time.Duration, retention int) *BackupWorker {
	return &BackupWorker{
		storage:   repo,
		dir:       dir,
		interval:  interval,
		retention: retention,
	}
}

// Run loops until ctx is cancelled, taking one snapshot per interval.
// Failures are logged and the loop continues; a missed backup must not take
// the server down.
func (w *BackupWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Backup worker started",
		"dir", w.dir,
		"interval", w.interval,
		"retention", w.retention)

	for {
		select {
		case <-ticker.C:
			if err := w.BackupOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "Backup failed", "error", err)
			}
		case <-ctx.Done():
			slog.InfoContext(ctx, "Backup worker stopped")
			return ctx.Err()
		}
	}
}

// BackupOnce writes a single timestamped snapshot and prunes old ones.
func (w *BackupWorker) BackupOnce(ctx context.Context) error {
	name := fmt.Sprintf("debts-%s.db", time.Now().UTC().Format("20060102T150405"))
	path := filepath.Join(w.dir, name)

	if err := w.storage.Backup(ctx, path); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Backup written", "path", path)

	return w.prune()
}

// prune deletes the oldest snapshots beyond the retention count. Snapshot
// names embed a sortable UTC timestamp, so lexical order is age order.
func (w *BackupWorker) prune() error {
	entries, err := filepath.Glob(filepath.Join(w.dir, "debts-*.db"))
	if err != nil {
		return fmt.Errorf("list backups: %w", err)
	}
	if len(entries) <= w.retention {
		return nil
	}

	sort.Strings(entries)
	for _, old := range entries[:len(entries)-w.retention] {
		if err := os.Remove(old); err != nil {
			return fmt.Errorf("prune backup %s: %w", old, err)
		}
		slog.Debug("Backup pruned", "path", old)
	}
	return nil
}
