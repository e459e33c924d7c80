package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// DatasetObjectKey returns the object key of a dataset file, e.g.
// "employees.csv" or "2026-10/purchases.parquet" under a sub-directory.
func DatasetObjectKey(dir, tableName, extension string) (string, error) {
	if err := validatePathComponent(tableName, "table name"); err != nil {
		return "", err
	}
	extension = strings.TrimPrefix(strings.TrimSpace(extension), ".")
	if err := validatePathComponent(extension, "file extension"); err != nil {
		return "", err
	}
	dir = strings.Trim(strings.TrimSpace(dir), "/")
	if dir != "" {
		for _, part := range strings.Split(dir, "/") {
			if err := validatePathComponent(part, "dataset directory"); err != nil {
				return "", err
			}
		}
	}
	return path.Join(dir, tableName+"."+extension), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) || strings.Contains(value, "..") {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
