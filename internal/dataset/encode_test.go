package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
)

func TestEncodeCSV(t *testing.T) {
	data := Dataset{
		Employees: []Employee{{EmployeeID: 1, Name: "Richard Hendricks", Email: "richard@piedpiper.com"}},
		Purchases: []Purchase{{
			PurchaseID:   1,
			PurchaseDate: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
			ProductName:  "Humane pin",
			EmployeeID:   1,
			Amount:       450,
		}},
	}
	files, err := Encode(data, []Format{FormatCSV})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %d, want 2", len(files))
	}
	records, err := csv.NewReader(bytes.NewReader(files[1].Data)).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	want := []string{"1", "2026-03-04", "Humane pin", "1", "450"}
	for i, value := range want {
		if records[1][i] != value {
			t.Fatalf("purchase record = %v, want %v", records[1], want)
		}
	}
	if files[0].Name() != "employees.csv" {
		t.Fatalf("Name() = %q", files[0].Name())
	}
}

func TestEncodeParquetRoundTrip(t *testing.T) {
	g := NewGenerator(3)
	g.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	data := g.Generate(10)

	files, err := Encode(data, []Format{FormatParquet})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	reader := parquet.NewGenericReader[parquetPurchase](bytes.NewReader(files[1].Data))
	defer func() { _ = reader.Close() }()

	rows := make([]parquetPurchase, 10)
	n, _ := reader.Read(rows)
	if n != 10 {
		t.Fatalf("read rows = %d, want 10", n)
	}
	if rows[0].PurchaseID != 1 || rows[0].Amount != data.Purchases[0].Amount {
		t.Fatalf("first row = %#v", rows[0])
	}
	if rows[0].PurchaseDate != epochDays(data.Purchases[0].PurchaseDate) {
		t.Fatalf("purchase_date = %d", rows[0].PurchaseDate)
	}
}

func TestUploadUsesDatasetKeys(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{}}
	files, err := Encode(NewGenerator(1).Generate(3), []Format{FormatCSV, FormatParquet})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	infos, err := Upload(context.Background(), store, "data", files)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if len(infos) != 4 {
		t.Fatalf("uploaded = %d, want 4", len(infos))
	}
	for _, key := range []string{"data/employees.csv", "data/purchases.csv", "data/employees.parquet", "data/purchases.parquet"} {
		if _, ok := store.objects[key]; !ok {
			t.Fatalf("missing object %q", key)
		}
	}
}

func TestWriteDirThenDirectorySource(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	files, err := Encode(NewGenerator(1).Generate(3), []Format{FormatCSV})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	paths, err := WriteDir(dir, files)
	if err != nil {
		t.Fatalf("WriteDir() error = %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v", paths)
	}
	layout, err := NewDirectorySource(dir, nil).Materialize(context.Background(), "")
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if layout.Tables[0].Path != filepath.Join(dir, "employees.csv") {
		t.Fatalf("employees path = %q", layout.Tables[0].Path)
	}
}

func TestParseFormats(t *testing.T) {
	formats, err := ParseFormats([]string{"CSV", "parquet", "csv"})
	if err != nil {
		t.Fatalf("ParseFormats() error = %v", err)
	}
	if len(formats) != 2 || formats[0] != FormatCSV || formats[1] != FormatParquet {
		t.Fatalf("ParseFormats() = %v", formats)
	}
	if _, err := ParseFormats([]string{"xlsx"}); err == nil {
		t.Fatal("expected unsupported format error")
	}
}
