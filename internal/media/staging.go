package media

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// StageFile copies an uploaded multipart file into the staging directory and
// returns the local path. The caller owns the staged file; Uploader
// implementations remove it after the upload attempt.
func StageFile(dir string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	localPath := filepath.Join(dir, uuid.NewString()+filepath.Ext(fh.Filename))

	dst, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create staged file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(localPath)
		return "", fmt.Errorf("failed to write staged file: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("failed to close staged file: %w", err)
	}

	return localPath, nil
}
