// Package writer persists task results. Output files are written to a
// temporary file in the destination directory and renamed into place, so a
// failed run never leaves a partial file at the target path.
package writer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/material-processor/internal/models"
)

// WriteToFile writes sheets to path, choosing the format from the extension.
// CSV holds exactly one sheet; anything else is written as a workbook.
func WriteToFile(path string, sheets []*models.Table) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		if len(sheets) != 1 {
			return fmt.Errorf("CSV output holds one sheet but the result has %d; use an .xlsx path", len(sheets))
		}
		w := &CSVWriter{IncludeBOM: true}
		return writeAtomic(path, func(out io.Writer) error {
			return w.Write(out, sheets[0])
		})
	default:
		w := &XLSXWriter{}
		return writeAtomic(path, func(out io.Writer) error {
			return w.Write(out, sheets)
		})
	}
}

// writeAtomic streams fill into a temp file next to dest and renames it over
// dest once everything is flushed and synced.
func writeAtomic(dest string, fill func(io.Writer) error) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-*"+filepath.Ext(dest))
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", dest, err)
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, 0o644)

	bw := bufio.NewWriterSize(tmp, 64*1024)
	if err := fill(bw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %q: %w", dest, err)
	}
	return nil
}
