package download

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractZip(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	hdr := &zip.FileHeader{Name: "tool.exe"}
	hdr.SetMode(0755)
	w, err := zw.CreateHeader(hdr)
	require.NoError(t, err)
	_, err = w.Write([]byte("windows-binary"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	archivePath := filepath.Join(t.TempDir(), "tool.zip")
	require.NoError(t, os.WriteFile(archivePath, buf.Bytes(), 0644))

	dest := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Extract(archivePath, dest, "tool"))

	info, err := os.Stat(filepath.Join(dest, "tool.exe"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0111)
}

func TestExtractRejectsPathTraversal(t *testing.T) {
	archive := buildTarGz(t, map[string]tarFile{
		"../escape": {content: "nope", mode: 0644},
	})
	archivePath := filepath.Join(t.TempDir(), "evil.tar.gz")
	require.NoError(t, os.WriteFile(archivePath, archive, 0644))

	err := Extract(archivePath, filepath.Join(t.TempDir(), "out"), "tool")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes extraction root")
}
