// Package zip packages harvested assets into a ZIP archive with one
// folder per asset category.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"

	"github.com/ferrous-labs/imgcrate-cli/internal/core/domain"
	"github.com/ferrous-labs/imgcrate-cli/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.ArchiveWriter = (*Writer)(nil)

// Writer builds ZIP archives in memory.
type Writer struct {
	compress bool
}

// NewWriter creates a ZIP archive writer. With compress false, entries are
// stored uncompressed; image payloads are already compressed and Deflate
// mostly burns CPU on them.
func NewWriter(compress bool) *Writer {
	return &Writer{compress: compress}
}

// Extension returns the archive filename extension without the dot.
func (w *Writer) Extension() string {
	return "zip"
}

// Build packages the entries as folder/filename records and returns the
// complete archive. Entry order is preserved.
func (w *Writer) Build(entries []domain.ArchiveEntry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	method := zip.Store
	if w.compress {
		method = zip.Deflate
	}

	for _, entry := range entries {
		header := &zip.FileHeader{
			Name:   string(entry.Folder) + "/" + entry.Filename,
			Method: method,
		}
		f, err := zw.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", header.Name, err)
		}
		if _, err := f.Write(entry.Body); err != nil {
			return nil, fmt.Errorf("write %s: %w", header.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalise archive: %w", err)
	}
	return buf.Bytes(), nil
}
