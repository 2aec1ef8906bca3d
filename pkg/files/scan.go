package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tinyland-inc/dropgram/pkg/logger"
)

// Scan lists the regular files in dir and returns records sorted by name.
// Subdirectories are skipped. A file that disappears between listing and
// stat is dropped with a warning; the scan itself still succeeds.
func Scan(dir string) ([]*Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	records := make([]*Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			logger.WarnCF("scan", "File vanished during scan, skipping", map[string]any{
				"name":  entry.Name(),
				"error": err.Error(),
			})
			continue
		}
		abs, err := filepath.Abs(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", entry.Name(), err)
		}
		records = append(records, &Record{
			Name:    entry.Name(),
			Path:    abs,
			Ext:     strings.ToLower(filepath.Ext(entry.Name())),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

// SortByModTime orders records oldest first, so the relay drains a backlog
// in the order files were dropped. The sort is stable to preserve the name
// order among equal timestamps.
func SortByModTime(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ModTime.Before(records[j].ModTime)
	})
}
