package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrous-labs/imgcrate-cli/internal/core/domain"
)

func readArchive(t *testing.T, blob []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	require.NoError(t, err)

	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		files[f.Name] = string(body)
	}
	return files
}

func TestBuild_FolderPerCategory(t *testing.T) {
	w := NewWriter(false)

	blob, err := w.Build([]domain.ArchiveEntry{
		{Folder: domain.CategoryImages, Filename: "photo.jpg", Body: []byte("jpeg")},
		{Folder: domain.CategoryIcons, Filename: "favicon.ico", Body: []byte("ico")},
		{Folder: domain.CategorySvgs, Filename: "mark.svg", Body: []byte("<svg/>")},
	})

	require.NoError(t, err)
	files := readArchive(t, blob)
	assert.Equal(t, "jpeg", files["images/photo.jpg"])
	assert.Equal(t, "ico", files["icons/favicon.ico"])
	assert.Equal(t, "<svg/>", files["svgs/mark.svg"])
}

func TestBuild_EmptyEntriesYieldsValidEmptyArchive(t *testing.T) {
	w := NewWriter(false)

	blob, err := w.Build(nil)

	require.NoError(t, err)
	assert.Empty(t, readArchive(t, blob))
}

func TestBuild_CompressedRoundTrips(t *testing.T) {
	w := NewWriter(true)
	body := bytes.Repeat([]byte("abcd"), 1024)

	blob, err := w.Build([]domain.ArchiveEntry{
		{Folder: domain.CategoryImages, Filename: "a.bin", Body: body},
	})

	require.NoError(t, err)
	files := readArchive(t, blob)
	assert.Equal(t, string(body), files["images/a.bin"])
	// Deflate should shrink a highly repetitive payload.
	assert.Less(t, len(blob), len(body))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "zip", NewWriter(false).Extension())
}
