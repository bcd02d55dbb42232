package import_feature

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Parser turns an uploaded file into raw headers plus rows keyed by the
// original header strings. The pipeline never touches the binary format
// beyond this boundary.
type Parser interface {
	Parse(filename string, file io.Reader) (headers []string, rows []map[string]string, err error)
}

type SpreadsheetParser struct{}

func NewSpreadsheetParser() Parser {
	return &SpreadsheetParser{}
}

func (p *SpreadsheetParser) Parse(filename string, file io.Reader) ([]string, []map[string]string, error) {
	lower := strings.ToLower(filename)
	var (
		headers []string
		rows    []map[string]string
		err     error
	)

	switch {
	case strings.HasSuffix(lower, ".csv"):
		headers, rows, err = p.parseCSV(file)
	case strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls"):
		headers, rows, err = p.parseExcel(file)
	default:
		err = fmt.Errorf("unsupported file format")
	}

	if err != nil {
		return nil, nil, &ParseError{FileName: filename, Err: err}
	}
	return headers, rows, nil
}

func (p *SpreadsheetParser) parseCSV(file io.Reader) ([]string, []map[string]string, error) {
	reader := csv.NewReader(file)

	headers, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		row := make(map[string]string)
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = value
			}
		}
		rows = append(rows, row)
	}

	return headers, rows, nil
}

func (p *SpreadsheetParser) parseExcel(file io.Reader) ([]string, []map[string]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("no sheets found in Excel file")
	}

	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("Excel file is empty")
	}

	headers := all[0]
	var rows []map[string]string
	for i := 1; i < len(all); i++ {
		row := make(map[string]string)
		for j, cell := range all[i] {
			if j < len(headers) {
				row[headers[j]] = cell
			}
		}
		rows = append(rows, row)
	}

	return headers, rows, nil
}
