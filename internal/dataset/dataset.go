package dataset

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultTables are the logical tables every dataset exposes.
var DefaultTables = []string{"employees", "purchases"}

var ErrTableNotFound = errors.New("dataset table not found")

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
)

// lookupOrder is the order in which file formats are probed for a table.
var lookupOrder = []Format{FormatParquet, FormatCSV}

func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatParquet:
		return FormatParquet, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported dataset format %q", value)
	}
}

func ParseFormats(values []string) ([]Format, error) {
	formats := make([]Format, 0, len(values))
	seen := map[Format]bool{}
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		format, err := ParseFormat(value)
		if err != nil {
			return nil, err
		}
		if seen[format] {
			continue
		}
		seen[format] = true
		formats = append(formats, format)
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("at least one dataset format is required")
	}
	return formats, nil
}

func (f Format) Extension() string {
	return "." + string(f)
}

// Table is one logical table backed by a local file.
type Table struct {
	Name   string
	Path   string
	Format Format
}

// Layout describes a dataset that is readable from the local filesystem.
// Root is absolute; every Table.Path lives under it.
type Layout struct {
	Root   string
	Tables []Table
}

// Source makes a dataset available on the local filesystem. scratchDir is
// owned by the caller and removed after the query finishes.
type Source interface {
	Materialize(ctx context.Context, scratchDir string) (Layout, error)
}

func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

// ParseTables splits a comma separated table list. An empty list yields
// DefaultTables.
func ParseTables(raw string) ([]string, error) {
	tables := make([]string, 0)
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" || seen[name] {
			continue
		}
		if err := ValidateTableName(name); err != nil {
			return nil, err
		}
		seen[name] = true
		tables = append(tables, name)
	}
	if len(tables) == 0 {
		return append([]string(nil), DefaultTables...), nil
	}
	return tables, nil
}

func tablesOrDefault(tables []string) []string {
	if len(tables) == 0 {
		return DefaultTables
	}
	return tables
}
