package dotenv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Azhovan/dotenv/internal/normalize"
)

const redactedValue = "***redacted***"

// DumpOption configures dump behavior using the functional options pattern.
type DumpOption func(*dumpConfig)

type dumpFormat int

const (
	formatText dumpFormat = iota
	formatJSON
	formatYAML
	formatTOML
	formatDotenv
)

// dumpConfig holds options for DumpEffective and DumpReader.
type dumpConfig struct {
	withSources bool            // Include source attribution for each key
	format      dumpFormat      // Output format (default: text)
	indent      string          // Indentation for JSON/YAML output (default: "  ")
	redact      map[string]bool // Folded keys to redact in addition to secret fields
}

// WithSources includes source attribution for each key in the output.
// Ignored by AsDotenv.
func WithSources() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.withSources = true
	}
}

// AsJSON outputs JSON instead of text format.
func AsJSON() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.format = formatJSON
	}
}

// AsYAML outputs a YAML mapping in key order.
func AsYAML() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.format = formatYAML
	}
}

// AsTOML outputs a TOML document.
func AsTOML() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.format = formatTOML
	}
}

// AsDotenv outputs KEY="value" lines that Load can read back.
func AsDotenv() DumpOption {
	return func(cfg *dumpConfig) {
		cfg.format = formatDotenv
	}
}

// WithIndent sets the indentation for JSON and YAML output.
// Default is two spaces ("  ").
func WithIndent(indent string) DumpOption {
	return func(cfg *dumpConfig) {
		cfg.indent = indent
	}
}

// WithRedactedKeys redacts the given keys (case-insensitive).
func WithRedactedKeys(keys ...string) DumpOption {
	return func(cfg *dumpConfig) {
		for _, k := range keys {
			cfg.redact[normalize.Fold(k)] = true
		}
	}
}

// dumpEntry is one key of the dump, in output order.
type dumpEntry struct {
	key    string
	value  any    // Typed value for structured formats; nil when unset
	text   string // Display value for text format
	raw    string // Unquoted value for dotenv format
	source string
}

// DumpEffective writes bound settings keyed by the env keys their fields are
// loaded from. Secret fields are written as "***redacted***".
func DumpEffective[T any](w io.Writer, cfg *T, opts ...DumpOption) error {
	if cfg == nil {
		return fmt.Errorf("settings are nil")
	}

	config := newDumpConfig(opts)

	v := reflect.ValueOf(cfg).Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("settings must be a struct or pointer to struct")
	}

	provenanceMap := make(map[string]*FieldProvenance)
	if prov, ok := GetProvenance(cfg); ok && prov != nil {
		for i := range prov.Fields {
			provenanceMap[prov.Fields[i].FieldPath] = &prov.Fields[i]
		}
	}

	entries := collectFields(v, "", "", provenanceMap, config)
	return writeDump(w, entries, config)
}

// DumpReader writes a Reader's pairs in order.
func DumpReader(w io.Writer, r *Reader, opts ...DumpOption) error {
	if r == nil {
		return fmt.Errorf("reader is nil")
	}

	config := newDumpConfig(opts)

	var entries []dumpEntry
	r.Each(func(key, value string) bool {
		e := dumpEntry{
			key:    key,
			value:  value,
			text:   strconv.Quote(value),
			raw:    value,
			source: r.Source(key),
		}
		if config.redact[normalize.Fold(key)] {
			e.value, e.text, e.raw = redactedValue, redactedValue, redactedValue
		}
		entries = append(entries, e)
		return true
	})

	return writeDump(w, entries, config)
}

func newDumpConfig(opts []DumpOption) dumpConfig {
	config := dumpConfig{
		indent: "  ",
		redact: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

// collectFields walks settings in declaration order, mirroring how Bind
// derives keys, so the dump can be fed back to Load.
func collectFields(v reflect.Value, fieldPrefix, keyPrefix string, provenanceMap map[string]*FieldProvenance, config dumpConfig) []dumpEntry {
	var entries []dumpEntry

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !field.IsExported() {
			continue
		}

		tagCfg := parseTag(field.Tag.Get("conf"))
		if tagCfg.skip {
			continue
		}

		fieldPath := field.Name
		if fieldPrefix != "" {
			fieldPath = fieldPrefix + "." + field.Name
		}

		if isNestedStruct(field.Type) {
			entries = append(entries, collectFields(fieldValue, fieldPath, nestedKeyPrefix(field.Name, tagCfg, keyPrefix), provenanceMap, config)...)
			continue
		}

		// A nil *struct has nothing to dump.
		if isNestedStructPtr(field.Type) {
			if !fieldValue.IsNil() {
				entries = append(entries, collectFields(fieldValue.Elem(), fieldPath, nestedKeyPrefix(field.Name, tagCfg, keyPrefix), provenanceMap, config)...)
			}
			continue
		}

		prov := provenanceMap[fieldPath]

		key := keyCandidates(field.Name, tagCfg, keyPrefix)[0]
		if prov != nil && prov.KeyPath != "" {
			key = prov.KeyPath
		}

		e := dumpEntry{key: key}
		if prov != nil {
			e.source = prov.SourceName
		}

		value := fieldValue
		unset := false
		if isOptionalType(field.Type) {
			value = fieldValue.Field(0)
			unset = !fieldValue.Field(1).Bool()
		}

		switch {
		case tagCfg.secret || (prov != nil && prov.Secret) || config.redact[normalize.Fold(key)]:
			e.value, e.text, e.raw = redactedValue, redactedValue, redactedValue
		case unset || (value.Kind() == reflect.Ptr && value.IsNil()):
			e.value, e.text, e.raw = nil, "<not set>", ""
		default:
			e.value = typedValue(value)
			e.text = textValue(value)
			e.raw = rawValue(value)
		}

		entries = append(entries, e)
	}

	return entries
}

// writeDump renders entries in the configured format and writes them to w.
func writeDump(w io.Writer, entries []dumpEntry, config dumpConfig) error {
	var (
		data []byte
		err  error
	)

	switch config.format {
	case formatJSON:
		data, err = dumpJSON(entries, config)
	case formatYAML:
		data, err = dumpYAML(entries, config)
	case formatTOML:
		data, err = dumpTOML(entries, config)
	case formatDotenv:
		data, err = dumpDotenv(entries)
	default:
		data = dumpText(entries, config)
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	return nil
}

// dumpText outputs "KEY: value" lines.
func dumpText(entries []dumpEntry, config dumpConfig) []byte {
	var b bytes.Buffer
	for _, e := range entries {
		fmt.Fprintf(&b, "%s: %s", e.key, e.text)
		if config.withSources && e.source != "" {
			fmt.Fprintf(&b, " (source: %s)", e.source)
		}
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// dumpJSON outputs a JSON object. Keys are sorted by encoding/json.
func dumpJSON(entries []dumpEntry, config dumpConfig) ([]byte, error) {
	result := make(map[string]any, len(entries))
	for _, e := range entries {
		result[e.key] = structuredValue(e, config)
	}

	var (
		data []byte
		err  error
	)
	if config.indent != "" {
		data, err = json.MarshalIndent(result, "", config.indent)
	} else {
		data, err = json.Marshal(result)
	}
	if err != nil {
		return nil, fmt.Errorf("json marshal error: %w", err)
	}
	return append(data, '\n'), nil
}

// dumpYAML outputs a YAML mapping that keeps entry order.
func dumpYAML(entries []dumpEntry, config dumpConfig) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range entries {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.key}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(structuredValue(e, config)); err != nil {
			return nil, fmt.Errorf("yaml encode %s: %w", e.key, err)
		}
		root.Content = append(root.Content, keyNode, valueNode)
	}

	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(max(len(config.indent), 2))
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("yaml marshal error: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("yaml marshal error: %w", err)
	}
	return b.Bytes(), nil
}

// dumpTOML outputs a TOML document. Unset values are omitted; TOML has no null.
func dumpTOML(entries []dumpEntry, config dumpConfig) ([]byte, error) {
	result := make(map[string]any, len(entries))
	for _, e := range entries {
		if e.value == nil {
			continue
		}
		result[e.key] = structuredValue(e, config)
	}

	data, err := toml.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("toml marshal error: %w", err)
	}
	return data, nil
}

// dumpDotenv outputs sorted KEY="value" lines via godotenv.
func dumpDotenv(entries []dumpEntry) ([]byte, error) {
	sorted := make([]dumpEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].key < sorted[b].key })

	lines := make([]string, 0, len(sorted))
	for _, e := range sorted {
		// godotenv writes integers bare, which drops leading zeros and signs.
		if n, err := strconv.Atoi(e.raw); err == nil && strconv.Itoa(n) != e.raw {
			lines = append(lines, fmt.Sprintf("%s=%q", e.key, e.raw))
			continue
		}

		line, err := godotenv.Marshal(map[string]string{e.key: e.raw})
		if err != nil {
			return nil, fmt.Errorf("dotenv marshal error: %w", err)
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, nil
	}
	return []byte(strings.Join(lines, "\n") + "\n"), nil
}

// structuredValue wraps the value with its source when sources are requested.
func structuredValue(e dumpEntry, config dumpConfig) any {
	if !config.withSources {
		return e.value
	}
	out := map[string]any{"value": e.value}
	if e.source != "" {
		out["source"] = e.source
	}
	return out
}

// typedValue returns a field value in a form JSON, YAML and TOML encode
// naturally.
func typedValue(v reflect.Value) any {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.CanInterface() {
		if _, ok := v.Interface().(interface{ MarshalText() ([]byte, error) }); ok {
			return rawValue(v)
		}
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Type() == durationType {
			return time.Duration(v.Int()).String()
		}
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return string(v.Bytes())
		}
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			out[i] = typedValue(v.Index(i))
		}
		return out
	default:
		return rawValue(v)
	}
}

// textValue formats a field value for the text format (strings quoted).
func textValue(v reflect.Value) string {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() == reflect.String {
		return strconv.Quote(v.String())
	}
	if v.Kind() == reflect.Slice && v.Type().Elem().Kind() != reflect.Uint8 {
		return "[" + strings.Join(sliceStrings(v), ", ") + "]"
	}
	return rawValue(v)
}

// rawValue formats a field value the way Bind would read it back.
func rawValue(v reflect.Value) string {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	if v.CanInterface() {
		if t, ok := v.Interface().(time.Time); ok {
			return t.Format(time.RFC3339)
		}
		if m, ok := v.Interface().(interface{ MarshalText() ([]byte, error) }); ok {
			if text, err := m.MarshalText(); err == nil {
				return string(text)
			}
		}
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Type() == durationType {
			return time.Duration(v.Int()).String()
		}
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return string(v.Bytes())
		}
		return strings.Join(sliceStrings(v), ",")
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

func sliceStrings(v reflect.Value) []string {
	out := make([]string, v.Len())
	for i := 0; i < v.Len(); i++ {
		out[i] = rawValue(v.Index(i))
	}
	return out
}
