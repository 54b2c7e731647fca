package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName returns the auto-export file name for a run finished at now.
func FileName(now time.Time) string {
	return "battle_log_" + now.Format("20060102_150405") + ".txt"
}

// WriteFile writes the export to path, creating parent directories.
func (t *Transcript) WriteFile(path string) error {
	return WriteFile(path, t.Export())
}

// AutoExport writes the export under dir using the timestamped file name and
// returns the path written.
func (t *Transcript) AutoExport(dir string, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, FileName(now))
	if err := t.WriteFile(path); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile writes already rendered export text to path.
func WriteFile(path, text string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}
