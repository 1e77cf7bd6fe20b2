// Package envfile parses .env file content into ordered entries.
//
// Statement syntax (quotes, export prefix, inline comments, ${VAR}
// expansion) is delegated to github.com/joho/godotenv. This package adds
// what godotenv does not report: key order and the line number of a
// malformed statement. Values may not span multiple lines.
package envfile

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/joho/godotenv"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// Entry is a single parsed KEY=VALUE pair.
type Entry struct {
	Key   string
	Value string
	Line  int // 1-based line of the last assignment to Key
}

// SyntaxError reports a malformed statement.
type SyntaxError struct {
	Line int // 1-based; 0 when the line could not be determined
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Parse parses data and returns its entries in order of first appearance.
// A key assigned more than once keeps its first position and its last value.
func Parse(data []byte) ([]Entry, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	var entries []Entry
	index := make(map[string]int)

	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1
		stmt := strings.TrimSpace(line)
		if stmt == "" || strings.HasPrefix(stmt, "#") {
			continue
		}

		key, err := statementKey(stmt)
		if err != nil {
			return nil, &SyntaxError{Line: lineNo, Msg: err.Error()}
		}

		if pos, ok := index[key]; ok {
			entries[pos].Line = lineNo
			continue
		}
		index[key] = len(entries)
		entries = append(entries, Entry{Key: key, Line: lineNo})
	}

	// Values come from a whole-file parse so that ${VAR} references to
	// earlier keys expand the way godotenv expands them.
	values, err := godotenv.UnmarshalBytes([]byte(text))
	if err != nil {
		return nil, &SyntaxError{Msg: err.Error()}
	}
	for i := range entries {
		entries[i].Value = values[entries[i].Key]
	}

	return entries, nil
}

// statementKey validates a single statement and returns its key.
func statementKey(stmt string) (string, error) {
	if !strings.ContainsAny(stmt, "=:") {
		return "", fmt.Errorf("missing '=' in %q", stmt)
	}

	kv, err := godotenv.Unmarshal(stmt)
	if err != nil {
		return "", err
	}
	if _, ok := kv[""]; ok {
		if len(kv) == 1 {
			return "", fmt.Errorf("missing key in %q", stmt)
		}
		return "", fmt.Errorf("unexpected content after value in %q", stmt)
	}
	if len(kv) != 1 {
		return "", fmt.Errorf("more than one assignment in %q", stmt)
	}

	var key string
	for k := range kv {
		key = k
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return "", fmt.Errorf("key %q contains whitespace", key)
	}
	return key, nil
}
