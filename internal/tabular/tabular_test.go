package tabular

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"name", "name"},
		{"Name", "name"},
		{"  Supplier  ", "supplier"},
		{"Created At", "created_at"},
		{"File\tPath", "file_path"},
		{"\uFEFFname", "name"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeColumn(tt.in); got != tt.want {
			t.Errorf("NormalizeColumn(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRowGet(t *testing.T) {
	header := NewHeader([]string{"Name", "Category", "Name", "Description"})
	row := NewRow(1, 2, header, []string{"Steel Rod", "Metals", "ignored"})

	if v, ok := row.Get("name"); !ok || v != "Steel Rod" {
		t.Errorf("Get(name) = %q, %v; want first occurrence", v, ok)
	}
	if v, ok := row.Get("CATEGORY"); !ok || v != "Metals" {
		t.Errorf("Get(CATEGORY) = %q, %v", v, ok)
	}
	if v, ok := row.Get("description"); !ok || v != "" {
		t.Errorf("Get(description) on short row = %q, %v; want empty and present", v, ok)
	}
	if _, ok := row.Get("supplier"); ok {
		t.Error("Get(supplier) should report a missing column")
	}
}

func TestMakeRow(t *testing.T) {
	row := MakeRow(3, "name", "Steel Rod", "supplier", "Acme Co")

	if row.Index != 3 {
		t.Errorf("Index = %d, want 3", row.Index)
	}
	if got := strings.Join(row.Columns(), ","); got != "name,supplier" {
		t.Errorf("Columns() = %q", got)
	}
	if v, _ := row.Get("supplier"); v != "Acme Co" {
		t.Errorf("Get(supplier) = %q", v)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		data     []byte
		want     Format
		wantErr  error
	}{
		{"csv extension", "materials.csv", []byte("name\n"), FormatCSV, nil},
		{"xlsx extension", "Materials.XLSX", nil, FormatXLSX, nil},
		{"legacy xls", "materials.xls", nil, "", ErrUnsupportedFormat},
		{"sniff zip", "upload", []byte("PK\x03\x04rest"), FormatXLSX, nil},
		{"sniff ole", "upload", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, "", ErrUnsupportedFormat},
		{"sniff text", "upload.dat", []byte("name,category\n"), FormatCSV, nil},
		{"binary garbage", "upload.bin", []byte{0xff, 0xfe, 0x00, 0x81}, "", ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.fileName, tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DetectFormat() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetectFormat() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(" CSV "); err != nil || f != FormatCSV {
		t.Errorf("ParseFormat(CSV) = %q, %v", f, err)
	}
	if f, err := ParseFormat("xlsx"); err != nil || f != FormatXLSX {
		t.Errorf("ParseFormat(xlsx) = %q, %v", f, err)
	}
	if _, err := ParseFormat("pdf"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ParseFormat(pdf) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestParseCSV(t *testing.T) {
	data := []byte("Name,Category,Supplier,Description\n" +
		"Steel Rod,Metals,Acme Co,Cold rolled\n" +
		"\n" +
		",,,\n" +
		"\"Copper, Wire\",Metals,Acme Co,\n")

	doc, err := Parse("materials.csv", data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.Format != FormatCSV {
		t.Errorf("Format = %q, want csv", doc.Format)
	}
	if got := strings.Join(doc.Header.Columns(), ","); got != "name,category,supplier,description" {
		t.Errorf("header = %q", got)
	}
	if len(doc.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2 (blank rows skipped)", len(doc.Rows))
	}

	second := doc.Rows[1]
	if second.Index != 2 {
		t.Errorf("second row Index = %d, want 2", second.Index)
	}
	if second.Line != 5 {
		t.Errorf("second row Line = %d, want 5", second.Line)
	}
	if v, _ := second.Get("name"); v != "Copper, Wire" {
		t.Errorf("quoted name = %q", v)
	}
}

func TestParseCSV_BOMAndInvalidUTF8(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("name,supplier\nSt\x80eel,Acme\n")...)

	doc, err := Parse("materials.csv", data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !doc.Header.Has("name") {
		t.Fatal("BOM should not leak into the first header cell")
	}
	if v, _ := doc.Rows[0].Get("name"); v != "St?eel" {
		t.Errorf("sanitized name = %q, want %q", v, "St?eel")
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	doc, err := Parse("materials.csv", []byte("name,category,supplier\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(doc.Rows) != 0 {
		t.Errorf("len(Rows) = %d, want 0", len(doc.Rows))
	}
}

func TestParse_Empty(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("\n\n"), {0xEF, 0xBB, 0xBF}} {
		if _, err := Parse("materials.csv", data); !errors.Is(err, ErrEmptyFile) {
			t.Errorf("Parse(%q) error = %v, want ErrEmptyFile", data, err)
		}
	}
}

func TestParse_CorruptWorkbook(t *testing.T) {
	_, err := Parse("materials.xlsx", []byte("PK\x03\x04not really a zip"))
	if err == nil {
		t.Fatal("Parse() expected error for corrupt workbook")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, FormatCSV, Table{
		Headers: []string{"Name", "Description"},
		Rows:    [][]string{{"Steel Rod", "rolled, cold"}},
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	want := "Name,Description\nSteel Rod,\"rolled, cold\"\n"
	if buf.String() != want {
		t.Errorf("Write() = %q, want %q", buf.String(), want)
	}
}

func TestWriteXLSX_ReadsBack(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, FormatXLSX, Table{
		Sheet:   "Materials",
		Headers: []string{"Name", "Category", "Supplier"},
		Rows: [][]string{
			{"Steel Rod", "Metals", "Acme Co"},
			{"Oak Plank", "Wood", "N/A"},
		},
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	doc, err := Parse("materials.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := strings.Join(doc.Header.Columns(), ","); got != "name,category,supplier" {
		t.Errorf("header = %q", got)
	}
	if len(doc.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(doc.Rows))
	}
	if v, _ := doc.Rows[1].Get("supplier"); v != "N/A" {
		t.Errorf("row 2 supplier = %q", v)
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, Format("pdf"), Table{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Write() error = %v, want ErrUnsupportedFormat", err)
	}
}
