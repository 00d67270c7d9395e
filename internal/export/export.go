package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName    = "Sales"
	artifactName = "sales.xlsx"
	exportName   = "sales_export.xlsx"
	dateLayout   = "02-01-2006"
)

var header = []any{"Date", "Channel", "Product", "SKU", "Quantity"}

// Row is one spreadsheet line: a single sale line item with its product
// details resolved.
type Row struct {
	Date        time.Time
	Channel     string
	ProductName string
	ProductSKU  string
	Quantity    int
}

func (r Row) values() []any {
	name := r.ProductName
	if name == "" {
		name = "Unknown"
	}
	sku := r.ProductSKU
	if sku == "" {
		sku = "-"
	}
	return []any{r.Date.Format(dateLayout), r.Channel, name, sku, r.Quantity}
}

// Exporter renders sale rows to xlsx files under a single directory. The
// incremental artifact grows on every sale; the full export is rebuilt from
// scratch on demand. A process mutex serializes the read-modify-write cycle
// on the artifact.
type Exporter struct {
	mu  sync.Mutex
	dir string
}

func New(dir string) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	return &Exporter{dir: dir}, nil
}

// ArtifactPath is the location of the incremental artifact. The file only
// exists once at least one sale has been recorded.
func (e *Exporter) ArtifactPath() string {
	return filepath.Join(e.dir, artifactName)
}

func (e *Exporter) ExportPath() string {
	return filepath.Join(e.dir, exportName)
}

// Append adds the given rows to the incremental artifact, creating it with a
// header row when absent.
func (e *Exporter) Append(rows []Row) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	path := e.ArtifactPath()
	var f *excelize.File
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		f = newWorkbook()
	} else if err != nil {
		return err
	} else {
		f, err = excelize.OpenFile(path)
		if err != nil {
			return fmt.Errorf("open artifact: %w", err)
		}
	}
	defer f.Close()

	existing, err := f.GetRows(sheetName)
	if err != nil {
		return err
	}
	next := len(existing) + 1
	for i, row := range rows {
		values := row.values()
		if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", next+i), &values); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

// Rebuild writes all rows to a fresh full-export file, replacing any prior
// export, and returns its path.
func (e *Exporter) Rebuild(rows []Row) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f := newWorkbook()
	defer f.Close()

	for i, row := range rows {
		values := row.values()
		if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return "", err
		}
	}

	path := e.ExportPath()
	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}

func newWorkbook() *excelize.File {
	f := excelize.NewFile()
	_ = f.SetSheetName("Sheet1", sheetName)
	_ = f.SetSheetRow(sheetName, "A1", &header)
	return f
}
