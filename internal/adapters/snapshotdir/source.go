package snapshotdir

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"simex/internal/adapters"
	"simex/internal/domain"
)

var ErrUnsupportedFormat = errors.New("unsupported snapshot format")

// Source reads snapshots from a directory with one file per tick. Files are
// either JSON arrays of {"pair": "BTC_USD", "rate": "9000.5"} or CSV rows of
// pair,rate.
type Source struct {
	dir string
}

func (s *Source) Index(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory %q: %w", s.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".json", ".csv":
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (s *Source) Load(ctx context.Context, name string) ([]domain.RateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %q: %w", name, err)
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return decodeJSON(name, data)
	case ".csv":
		return decodeCSV(name, data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

func decodeJSON(name string, data []byte) ([]domain.RateRecord, error) {
	var raw []adapters.JSONRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %q: %w", name, err)
	}
	records := make([]domain.RateRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, r.RateRecord())
	}
	return records, nil
}

func decodeCSV(name string, data []byte) ([]domain.RateRecord, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records := make([]domain.RateRecord, 0, 64)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode snapshot %q: %w", name, err)
		}
		if len(row) < 2 || strings.EqualFold(row[0], "pair") {
			continue // header or short row
		}
		records = append(records, domain.RateRecord{Pair: row[0], Rate: row[1]})
	}
	return records, nil
}

func NewSource(dir string) *Source {
	return &Source{dir: dir}
}
