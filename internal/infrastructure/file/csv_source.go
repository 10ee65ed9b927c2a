package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	record "github.com/fieldops/importer/internal/domain/record"
)

// CSVSource reads import rows from CSV files under a base directory.
// The first row is treated as the header row; headers are normalized
// to canonical form. Ragged rows are padded or truncated to the header
// width rather than rejected.
type CSVSource struct {
	BaseDir string
}

func NewCSVSource(baseDir string) *CSVSource {
	if baseDir == "" {
		baseDir = "."
	}
	return &CSVSource{BaseDir: baseDir}
}

func (s *CSVSource) ReadRows(ctx context.Context, sourcePath string) ([]string, []map[string]string, error) {
	path := sourcePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.BaseDir, sourcePath)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open file %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = record.NormalizeHeader(h)
	}

	var rows []map[string]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		line, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}

		row := make(map[string]string, len(headers))
		for i, name := range headers {
			if name == "" {
				continue
			}
			if i < len(line) {
				row[name] = line[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}

	return headers, rows, nil
}
