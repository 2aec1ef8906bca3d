package files

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tinyland-inc/dropgram/pkg/logger"
)

// MoveSent relocates the files behind sent records to the history
// directory, creating it on demand. Bundle heads carry all their members
// and every record carries its companions. A single file that fails to move
// is logged and skipped; it will be picked up again by a later fill cycle.
func MoveSent(records []*Record, historyPath string) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(historyPath, 0o755); err != nil {
		return fmt.Errorf("creating history dir %s: %w", historyPath, err)
	}

	for _, rec := range records {
		if rec.IsBundleHead() {
			for _, member := range rec.BundleMembers {
				moveWithCompanions(member, historyPath)
			}
			continue
		}
		moveWithCompanions(rec, historyPath)
	}
	return nil
}

func moveWithCompanions(rec *Record, historyPath string) {
	moveFile(rec.Path, historyPath)
	if rec.Thumbnail != nil {
		moveFile(rec.Thumbnail.Path, historyPath)
	}
	if rec.Caption != nil {
		moveFile(rec.Caption.Path, historyPath)
	}
}

func moveFile(path, historyPath string) {
	name := filepath.Base(path)
	logger.InfoCF("history", "Moving sent file", map[string]any{
		"name": name,
		"to":   historyPath,
	})
	if err := os.Rename(path, filepath.Join(historyPath, name)); err != nil {
		logger.ErrorCF("history", "Failed to move sent file", map[string]any{
			"name":  name,
			"error": err.Error(),
		})
	}
}
