package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// csvRows reads a CSV export with a header row and calls fn for every data
// row with a column lookup. Rows that fail to parse or have the wrong
// number of columns become warnings.
func csvRows(data []byte, required string, fold func(string) string, result *Result,
	fn func(rowNum int, get func(col string) string)) error {
	// Remove UTF-8 BOM if present
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true // Handle malformed exports
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[fold(col)] = i
	}
	if _, ok := colIndex[fold(required)]; !ok {
		return fmt.Errorf("missing required column: %s", required)
	}

	rowNum := 1 // header is row 1
	for {
		rowNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d: failed to parse: %v", rowNum, err))
			continue
		}
		if len(row) != len(header) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d: column count mismatch (expected %d, got %d)",
					rowNum, len(header), len(row)))
			continue
		}

		fn(rowNum, func(col string) string {
			if idx, ok := colIndex[fold(col)]; ok {
				return row[idx]
			}
			return ""
		})
	}
	return nil
}
