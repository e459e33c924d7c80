package dataset

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileWritesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "employees.csv")
	if err := writeFile(path, strings.NewReader("employee_id\n1\n")); err != nil {
		t.Fatalf("writeFile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "employee_id\n1\n" {
		t.Fatalf("content = %q", data)
	}
}

func TestWriteFileReportsReadFailure(t *testing.T) {
	cause := errors.New("connection reset")
	path := filepath.Join(t.TempDir(), "purchases.csv")
	err := writeFile(path, io.MultiReader(strings.NewReader("purchase_id\n"), failingReader{err: cause}))
	if !errors.Is(err, cause) {
		t.Fatalf("writeFile() error = %v, want %v", err, cause)
	}
}

func TestWriteFileReportsUnwritableTarget(t *testing.T) {
	if err := writeFile(filepath.Join(t.TempDir(), "missing", "x.csv"), strings.NewReader("x")); err == nil {
		t.Fatal("expected error for missing parent directory")
	}
}

type failingReader struct {
	err error
}

func (f failingReader) Read([]byte) (int, error) {
	return 0, f.err
}
