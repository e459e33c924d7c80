package outcome

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/duckmesh/nlquery/internal/sqlfmt"
)

const (
	keySQL   = "sql"
	keyError = "error"
)

// ParseError reports a model response that does not carry exactly one valid
// outcome object.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse model response: %s: %v", e.Reason, e.Err)
	}
	return "parse model response: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var escapeReplacer = strings.NewReplacer(
	`\n`, " ",
	`\r`, " ",
	`\t`, " ",
	"\n", " ",
	"\r", " ",
	"\t", " ",
)

// Parse extracts the outcome object from a raw model response. The object
// may be wrapped in prose or code fences; everything between the first '{'
// and the last '}' is decoded as a single JSON object.
func Parse(response string) (Outcome, error) {
	normalized := normalize(response)

	open := strings.Index(normalized, "{")
	closing := strings.LastIndex(normalized, "}")
	if open < 0 || closing < 0 || closing < open {
		return Outcome{}, &ParseError{Reason: "no JSON object found"}
	}
	candidate := normalized[open : closing+1]

	fields, err := decodeObject(candidate)
	if err != nil {
		return Outcome{}, &ParseError{Reason: "invalid JSON object", Err: err}
	}

	rawSQL, hasSQL := fields[keySQL]
	rawError, hasError := fields[keyError]
	switch {
	case hasSQL && hasError:
		return Outcome{}, &ParseError{Reason: `object has both "sql" and "error" keys`}
	case hasSQL:
		sql, err := decodeString(rawSQL)
		if err != nil {
			return Outcome{}, &ParseError{Reason: `"sql" must be a string`, Err: err}
		}
		formatted := sqlfmt.Format(sql)
		if formatted == "" {
			return Outcome{}, &ParseError{Reason: `"sql" is empty`}
		}
		return Query(formatted), nil
	case hasError:
		message, err := decodeString(rawError)
		if err != nil {
			return Outcome{}, &ParseError{Reason: `"error" must be a string`, Err: err}
		}
		return Failure(message), nil
	default:
		return Outcome{}, &ParseError{Reason: `object has neither "sql" nor "error" key`}
	}
}

func normalize(response string) string {
	cleaned := escapeReplacer.Replace(response)
	cleaned = strings.ReplaceAll(cleaned, `\`, "")
	return strings.TrimSpace(cleaned)
}

func decodeObject(candidate string) (map[string]json.RawMessage, error) {
	decoder := json.NewDecoder(strings.NewReader(candidate))
	decoder.UseNumber()

	var fields map[string]json.RawMessage
	if err := decoder.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("top level is not an object")
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected content after object")
	}
	return fields, nil
}

func decodeString(raw json.RawMessage) (string, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte(`"`)) {
		return "", fmt.Errorf("got %s", strings.TrimSpace(string(raw)))
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", err
	}
	return value, nil
}
