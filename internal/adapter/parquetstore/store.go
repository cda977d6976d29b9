// Package parquetstore reads and writes the pipeline's columnar artifacts on
// the local filesystem. Every artifact is rewritten whole: rows go to a
// temporary file in the target directory which is then renamed over the
// destination, so readers never observe a partially written file.
package parquetstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// parallelism is the number of goroutines parquet-go uses per reader/writer.
const parallelism = 4

// Store holds the codec applied to every written artifact.
type Store struct {
	compression parquet.CompressionCodec
}

// New creates a Store. compression is one of SNAPPY, GZIP or NONE.
func New(compression string) (*Store, error) {
	codec, err := compressionCodec(compression)
	if err != nil {
		return nil, err
	}
	return &Store{compression: codec}, nil
}

// Read loads every row of the artifact at path. A missing file returns an
// error wrapping fs.ErrNotExist. A zero-byte file reads as no rows.
func Read[T any](s *Store, path string) ([]T, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return nil, nil
	}

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(T), parallelism)
	if err != nil {
		return nil, fmt.Errorf("read parquet footer %s: %w", path, err)
	}
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	if n == 0 {
		return nil, nil
	}
	rows := make([]T, n)
	if err := pr.Read(&rows); err != nil {
		return nil, fmt.Errorf("read rows %s: %w", path, err)
	}
	return rows, nil
}

// Write replaces the artifact at path with rows, creating parent
// directories as needed.
func Write[T any](s *Store, path string, rows []T) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+".tmp")
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	fw, err := local.NewLocalFileWriter(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	if err := writeRows(fw, rows, s.compression); err != nil {
		_ = fw.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func writeRows[T any](pf source.ParquetFile, rows []T, codec parquet.CompressionCodec) (err error) {
	pw, err := writer.NewParquetWriter(pf, new(T), parallelism)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = codec

	for i := range rows {
		if err := pw.Write(rows[i]); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	// parquet-go panics on some schema mismatches during flush.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parquet writer panicked during WriteStop: %v", r)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalize parquet file: %w", err)
	}
	return nil
}

// Exists reports whether path exists.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
}

// Glob returns the artifacts matching pattern in lexical order, ignoring
// in-flight temporary files.
func Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	out := matches[:0]
	for _, m := range matches {
		if strings.HasPrefix(filepath.Base(m), ".") {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// ModTime returns the modification time of path.
func ModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.ModTime(), nil
}

// compressionCodec maps a codec name to the parquet enum.
func compressionCodec(name string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(name) {
	case "SNAPPY":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE", "":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported compression type: %s", name)
	}
}
