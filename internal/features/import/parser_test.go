package import_feature

import (
	"errors"
	"strings"
	"testing"
)

func TestParseCSV(t *testing.T) {
	input := "Code,Type,GSM,UOM\nFAB-1,Knit,180,Kg\nFAB-2,Woven,240,Kg\n"
	parser := NewSpreadsheetParser()

	headers, rows, err := parser.Parse("fabrics.csv", strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}

	wantHeaders := []string{"Code", "Type", "GSM", "UOM"}
	if len(headers) != len(wantHeaders) {
		t.Fatalf("headers = %v, want %v", headers, wantHeaders)
	}
	for i := range headers {
		if headers[i] != wantHeaders[i] {
			t.Fatalf("headers = %v, want %v", headers, wantHeaders)
		}
	}

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0]["Code"] != "FAB-1" || rows[1]["Type"] != "Woven" {
		t.Errorf("rows = %v", rows)
	}
}

func TestParseCSVHeaderOnly(t *testing.T) {
	parser := NewSpreadsheetParser()

	headers, rows, err := parser.Parse("empty.csv", strings.NewReader("Code,Type\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(headers) != 2 || len(rows) != 0 {
		t.Errorf("headers = %v, rows = %v; want 2 headers and no rows", headers, rows)
	}
}

func TestParseUnsupportedFormat(t *testing.T) {
	parser := NewSpreadsheetParser()

	_, _, err := parser.Parse("notes.txt", strings.NewReader("hello"))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.FileName != "notes.txt" {
		t.Errorf("error names %q, want notes.txt", parseErr.FileName)
	}
}
