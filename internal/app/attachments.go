package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dayrally/dayrally/internal/models"
)

// AttachmentsDirName is the workspace subdirectory holding note attachments.
const AttachmentsDirName = "attachments"

// SaveNoteImage writes pasted image bytes under the workspace's attachment
// tree and returns the generated filename and workspace-relative path.
// Layout: attachments/<note_id>/<timestamp>.png.
func SaveNoteImage(workspace, noteID string, data []byte) (filename, pathRelative string, err error) {
	if len(data) == 0 {
		return "", "", models.Validationf("attachment image is empty")
	}

	dir := filepath.Join(workspace, AttachmentsDirName, noteID)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", "", fmt.Errorf("failed to create attachment dir: %w", err)
	}

	filename = fmt.Sprintf("%d.png", time.Now().UnixMilli())
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0600); err != nil {
		return "", "", fmt.Errorf("failed to write attachment: %w", err)
	}

	return filename, filepath.Join(AttachmentsDirName, noteID, filename), nil
}
