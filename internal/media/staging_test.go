package media

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	return req.MultipartForm.File["file"][0]
}

func TestStageFile_CopiesContent(t *testing.T) {
	dir := t.TempDir()
	fh := fileHeader(t, "avatar.png", []byte("fake image bytes"))

	localPath, err := StageFile(dir, fh)
	require.NoError(t, err)
	require.Equal(t, dir, filepath.Dir(localPath))
	require.Equal(t, ".png", filepath.Ext(localPath))

	content, err := os.ReadFile(localPath)
	require.NoError(t, err)
	require.Equal(t, []byte("fake image bytes"), content)
}

func TestStageFile_UniqueNames(t *testing.T) {
	dir := t.TempDir()
	fh := fileHeader(t, "avatar.png", []byte("same bytes"))

	first, err := StageFile(dir, fh)
	require.NoError(t, err)
	second, err := StageFile(dir, fh)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestStageFile_BadDirectory(t *testing.T) {
	fh := fileHeader(t, "avatar.png", []byte("bytes"))

	_, err := StageFile("/nonexistent-staging-dir", fh)
	require.Error(t, err)
}
