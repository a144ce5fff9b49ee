package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Document is a parsed file: one header and the non-blank data rows in order.
type Document struct {
	Format Format
	Header *Header
	Rows   []Row
}

// Parse decodes a CSV or XLSX payload. The first non-blank row is the
// header; blank data rows are skipped and do not consume an Index.
//
// A file without a header row returns ErrEmptyFile. A header with no data
// rows is a valid, empty document.
func Parse(fileName string, data []byte) (*Document, error) {
	format, err := DetectFormat(fileName, data)
	if err != nil {
		return nil, err
	}

	var records []record
	switch format {
	case FormatXLSX:
		records, err = readXLSX(data)
	default:
		records, err = readCSV(data)
	}
	if err != nil {
		return nil, err
	}

	doc := &Document{Format: format}
	for _, rec := range records {
		if isBlank(rec.values) {
			continue
		}
		if doc.Header == nil {
			doc.Header = NewHeader(rec.values)
			continue
		}
		doc.Rows = append(doc.Rows, NewRow(len(doc.Rows)+1, rec.line, doc.Header, rec.values))
	}

	if doc.Header == nil {
		return nil, ErrEmptyFile
	}
	return doc, nil
}

type record struct {
	line   int
	values []string
}

func readCSV(data []byte) ([]record, error) {
	r := csv.NewReader(bytes.NewReader(cleanText(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var out []record
	for {
		values, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := r.FieldPos(0)
		out = append(out, record{line: line, values: values})
	}
	return out, nil
}

// readXLSX reads the first sheet of the workbook.
func readXLSX(data []byte) ([]record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	defer rows.Close()

	var out []record
	line := 0
	for rows.Next() {
		line++
		values, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read sheet %q row %d: %w", sheets[0], line, err)
		}
		out = append(out, record{line: line, values: values})
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return out, nil
}
