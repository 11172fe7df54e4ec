// Package catalog loads the car catalog from a tabular source and renders the
// texts derived from each row.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"carsales/internal/domain"
)

// Canonical column names of the catalog sheet.
const (
	ColumnName          = "nama"
	ColumnSpecification = "spesifikasi"
	ColumnAdvantages    = "keunggulan"
	ColumnDifferences   = "perbedaan"
	ColumnBrochureURL   = "url brosur"
	ColumnImage         = "gambar"
	ColumnBrochure      = "brosur"
)

var (
	// ErrMissingNameColumn is returned when the header row has no name column.
	ErrMissingNameColumn = errors.New("catalog: missing \"nama\" column")

	// ErrUnsupportedFormat is returned for source files that are neither CSV nor XLSX.
	ErrUnsupportedFormat = errors.New("catalog: unsupported source format")

	// ErrEmptySource is returned when the source has no header row.
	ErrEmptySource = errors.New("catalog: empty source")
)

// Options tunes Load.
type Options struct {
	// Sheet selects the XLSX sheet; the first sheet is used when empty.
	Sheet string
}

// Load reads the catalog at path, picking the reader by file extension.
func Load(path string, opts Options) ([]domain.Car, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path, opts.Sheet)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}
	return FromRows(rows)
}

// Parse reads CSV content from r.
func Parse(r io.Reader) ([]domain.Car, error) {
	rows, err := csvRows(r)
	if err != nil {
		return nil, err
	}
	return FromRows(rows)
}

// FromRows converts a header row followed by data rows into cars.
// Rows with a blank name are skipped; ids are dense over kept rows.
func FromRows(rows [][]string) ([]domain.Car, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySource
	}
	header := make([]string, len(rows[0]))
	nameIdx := -1
	for i, h := range rows[0] {
		header[i] = canonicalColumn(h)
		if header[i] == ColumnName {
			nameIdx = i
		}
	}
	if nameIdx < 0 {
		return nil, ErrMissingNameColumn
	}

	cars := make([]domain.Car, 0, len(rows)-1)
	for r, row := range rows[1:] {
		if nameIdx >= len(row) || strings.TrimSpace(row[nameIdx]) == "" {
			continue
		}
		car := domain.Car{ID: len(cars)}
		for i, col := range header {
			if i >= len(row) {
				break
			}
			value := strings.TrimSpace(row[i])
			switch col {
			case ColumnName:
				car.Name = value
			case ColumnSpecification:
				car.Specification = value
			case ColumnAdvantages:
				car.Advantages = value
			case ColumnDifferences:
				attrs, err := ParseDifferences(value)
				if err != nil {
					// +2: 1-based rows plus the header
					return nil, fmt.Errorf("catalog: row %d: %w", r+2, err)
				}
				car.Differences = attrs
			case ColumnBrochureURL:
				car.BrochureURL = value
			case ColumnImage:
				car.ImagePath = value
			case ColumnBrochure:
				car.BrochurePath = value
			case "":
			default:
				if car.Extra == nil {
					car.Extra = make(map[string]string)
				}
				car.Extra[col] = value
			}
		}
		cars = append(cars, car)
	}
	return cars, nil
}

func canonicalColumn(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	h = strings.NewReplacer("_", " ", "-", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csvRows(f)
}

func csvRows(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("catalog: read csv: %w", err)
	}
	return rows, nil
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptySource
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("catalog: read sheet %q: %w", sheet, err)
	}
	return rows, nil
}
