package store

import (
	"fmt"

	"github.com/google/renameio/v2"
)

// writeFileAtomic writes data via a temp file and rename, so a crash mid
// write never leaves a truncated experiment file behind.
func writeFileAtomic(path string, data []byte) error {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer pending.Cleanup() //nolint:errcheck // cleanup of committed file is a no-op

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write pending file: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("commit pending file: %w", err)
	}
	return nil
}
