package export

import (
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func readSheet(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	return rows
}

func TestAppendCreatesArtifactWithHeader(t *testing.T) {
	exporter, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}

	row := Row{
		Date:        time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local),
		Channel:     "tokopedia",
		ProductName: "Kaos Polos Hitam L",
		ProductSKU:  "KPH-L",
		Quantity:    3,
	}
	if err := exporter.Append([]Row{row}); err != nil {
		t.Fatalf("append: %v", err)
	}

	rows := readSheet(t, exporter.ArtifactPath())
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row, got %d rows", len(rows))
	}
	if rows[0][0] != "Date" || rows[0][4] != "Quantity" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	want := []string{"05-03-2024", "tokopedia", "Kaos Polos Hitam L", "KPH-L", "3"}
	for i, cell := range want {
		if rows[1][i] != cell {
			t.Fatalf("row mismatch at column %d: got %q want %q", i, rows[1][i], cell)
		}
	}
}

func TestAppendGrowsExistingArtifact(t *testing.T) {
	exporter, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}

	date := time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local)
	first := Row{Date: date, Channel: "shopee", ProductName: "Hoodie Abu XL", ProductSKU: "HD-ABU-XL", Quantity: 1}
	second := Row{Date: date, Channel: "lazada", ProductName: "Topi Baseball", ProductSKU: "TP-BB", Quantity: 2}

	if err := exporter.Append([]Row{first}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := exporter.Append([]Row{second}); err != nil {
		t.Fatalf("second append: %v", err)
	}

	rows := readSheet(t, exporter.ArtifactPath())
	if len(rows) != 3 {
		t.Fatalf("expected header plus two rows, got %d rows", len(rows))
	}
	if rows[1][1] != "shopee" || rows[2][1] != "lazada" {
		t.Fatalf("rows out of order: %v", rows)
	}
}

func TestRowPlaceholdersForMissingProduct(t *testing.T) {
	exporter, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}

	row := Row{
		Date:     time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local),
		Channel:  "tokopedia",
		Quantity: 1,
	}
	path, err := exporter.Rebuild([]Row{row})
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	rows := readSheet(t, path)
	if rows[1][2] != "Unknown" || rows[1][3] != "-" {
		t.Fatalf("expected placeholders, got %v", rows[1])
	}
}

func TestRebuildReplacesPreviousExport(t *testing.T) {
	exporter, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}

	date := time.Date(2024, 3, 5, 10, 0, 0, 0, time.Local)
	many := []Row{
		{Date: date, Channel: "shopee", ProductName: "A", ProductSKU: "A-1", Quantity: 1},
		{Date: date, Channel: "shopee", ProductName: "B", ProductSKU: "B-1", Quantity: 2},
	}
	if _, err := exporter.Rebuild(many); err != nil {
		t.Fatalf("first rebuild: %v", err)
	}

	one := []Row{{Date: date, Channel: "lazada", ProductName: "C", ProductSKU: "C-1", Quantity: 3}}
	path, err := exporter.Rebuild(one)
	if err != nil {
		t.Fatalf("second rebuild: %v", err)
	}

	rows := readSheet(t, path)
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row after rebuild, got %d rows", len(rows))
	}
	if rows[1][1] != "lazada" {
		t.Fatalf("expected replaced contents, got %v", rows[1])
	}
}
