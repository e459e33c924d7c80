package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/duckmesh/nlquery/internal/storage"
)

const dateLayout = "2006-01-02"

type parquetEmployee struct {
	EmployeeID int64  `parquet:"employee_id"`
	Name       string `parquet:"name"`
	Email      string `parquet:"email"`
}

type parquetPurchase struct {
	PurchaseID   int64  `parquet:"purchase_id"`
	PurchaseDate int32  `parquet:"purchase_date,date"`
	ProductName  string `parquet:"product_name"`
	EmployeeID   int64  `parquet:"employee_id"`
	Amount       int64  `parquet:"amount"`
}

// File is one encoded table file.
type File struct {
	Table  string
	Format Format
	Data   []byte
}

func (f File) Name() string {
	return f.Table + f.Format.Extension()
}

// Encode renders every table of the dataset in every requested format.
func Encode(data Dataset, formats []Format) ([]File, error) {
	files := make([]File, 0, 2*len(formats))
	for _, format := range formats {
		employees, err := encodeEmployees(data.Employees, format)
		if err != nil {
			return nil, err
		}
		purchases, err := encodePurchases(data.Purchases, format)
		if err != nil {
			return nil, err
		}
		files = append(files,
			File{Table: "employees", Format: format, Data: employees},
			File{Table: "purchases", Format: format, Data: purchases},
		)
	}
	return files, nil
}

// WriteDir writes files into dir and returns the written paths.
func WriteDir(dir string, files []File) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dataset dir %q: %w", dir, err)
	}
	paths := make([]string, 0, len(files))
	for _, file := range files {
		target := filepath.Join(dir, file.Name())
		if err := writeFile(target, bytes.NewReader(file.Data)); err != nil {
			return nil, fmt.Errorf("write dataset file %q: %w", target, err)
		}
		paths = append(paths, target)
	}
	return paths, nil
}

// Upload stores files under dir in the object store.
func Upload(ctx context.Context, store storage.ObjectStore, dir string, files []File) ([]storage.ObjectInfo, error) {
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	infos := make([]storage.ObjectInfo, 0, len(files))
	for _, file := range files {
		key, err := storage.DatasetObjectKey(dir, file.Table, string(file.Format))
		if err != nil {
			return nil, err
		}
		info, err := store.Put(ctx, key, bytes.NewReader(file.Data), int64(len(file.Data)), storage.PutOptions{})
		if err != nil {
			return nil, fmt.Errorf("upload dataset file %q: %w", key, err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func encodeEmployees(employees []Employee, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		records := make([][]string, 0, len(employees)+1)
		records = append(records, []string{"employee_id", "name", "email"})
		for _, employee := range employees {
			records = append(records, []string{
				strconv.FormatInt(employee.EmployeeID, 10),
				employee.Name,
				employee.Email,
			})
		}
		return encodeCSV(records)
	case FormatParquet:
		rows := make([]parquetEmployee, 0, len(employees))
		for _, employee := range employees {
			rows = append(rows, parquetEmployee(employee))
		}
		return encodeParquet(rows)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q", format)
	}
}

func encodePurchases(purchases []Purchase, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		records := make([][]string, 0, len(purchases)+1)
		records = append(records, []string{"purchase_id", "purchase_date", "product_name", "employee_id", "amount"})
		for _, purchase := range purchases {
			records = append(records, []string{
				strconv.FormatInt(purchase.PurchaseID, 10),
				purchase.PurchaseDate.Format(dateLayout),
				purchase.ProductName,
				strconv.FormatInt(purchase.EmployeeID, 10),
				strconv.FormatInt(purchase.Amount, 10),
			})
		}
		return encodeCSV(records)
	case FormatParquet:
		rows := make([]parquetPurchase, 0, len(purchases))
		for _, purchase := range purchases {
			rows = append(rows, parquetPurchase{
				PurchaseID:   purchase.PurchaseID,
				PurchaseDate: epochDays(purchase.PurchaseDate),
				ProductName:  purchase.ProductName,
				EmployeeID:   purchase.EmployeeID,
				Amount:       purchase.Amount,
			})
		}
		return encodeParquet(rows)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q", format)
	}
}

func encodeCSV(records [][]string) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	writer := csv.NewWriter(buf)
	if err := writer.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeParquet[T any](rows []T) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[T](buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

func epochDays(value time.Time) int32 {
	return int32(truncateToDate(value).Unix() / 86400)
}
