package dotenv

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Azhovan/dotenv/internal/normalize"
)

// ErrKeyNotFound is returned by typed Reader accessors for absent keys.
var ErrKeyNotFound = errors.New("dotenv: key not found")

// Reader is an immutable, ordered key/value view over loaded env files.
// Keys keep the position of their first appearance; values are those of the
// last file that defined them. Safe for concurrent reads.
type Reader struct {
	keys        []string
	values      map[string]string
	sources     map[string]string
	folded      map[string]string // Fold(key) -> first key in order
	files       []string
	environment string
}

// Value returns the value for key, or "" when the key is absent.
func (r *Reader) Value(key string) string {
	v, _ := r.Lookup(key)
	return v
}

// Lookup returns the value for key and whether it is present. Matching is exact.
func (r *Reader) Lookup(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key is present.
func (r *Reader) Has(key string) bool {
	_, ok := r.Lookup(key)
	return ok
}

// Len returns the number of keys.
func (r *Reader) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Keys returns the keys in order.
func (r *Reader) Keys() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Map returns a copy of the key/value pairs.
func (r *Reader) Map() map[string]string {
	out := make(map[string]string, r.Len())
	if r == nil {
		return out
	}
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Each calls fn for every pair in order until fn returns false.
func (r *Reader) Each(fn func(key, value string) bool) {
	if r == nil {
		return
	}
	for _, k := range r.keys {
		if !fn(k, r.values[k]) {
			return
		}
	}
}

// Source returns the name of the file or source that supplied key's value
// (e.g., "file:env_files/.env", "env").
func (r *Reader) Source(key string) string {
	if r == nil {
		return ""
	}
	return r.sources[key]
}

// Files returns the files that were read, in application order.
// Missing candidates are not included.
func (r *Reader) Files() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.files))
	copy(out, r.files)
	return out
}

// Environment returns the environment name resolved by LoadEnv.
// It is empty for readers produced by Load.
func (r *Reader) Environment() string {
	if r == nil {
		return ""
	}
	return r.environment
}

// Int parses key's value as a base-10 int.
func (r *Reader) Int(key string) (int, error) {
	v, ok := r.Lookup(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("dotenv: key %s: %w", key, err)
	}
	return n, nil
}

// Bool parses key's value with strconv.ParseBool.
func (r *Reader) Bool(key string) (bool, error) {
	v, ok := r.Lookup(key)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("dotenv: key %s: %w", key, err)
	}
	return b, nil
}

// Duration parses key's value with time.ParseDuration.
func (r *Reader) Duration(key string) (time.Duration, error) {
	v, ok := r.Lookup(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("dotenv: key %s: %w", key, err)
	}
	return d, nil
}

// lookupFold finds key case-insensitively. An exact match wins; otherwise the
// earliest key in order whose folded form matches.
func (r *Reader) lookupFold(key string) (string, string, bool) {
	if r == nil {
		return "", "", false
	}
	if v, ok := r.values[key]; ok {
		return key, v, true
	}
	if actual, ok := r.folded[normalize.Fold(key)]; ok {
		return actual, r.values[actual], true
	}
	return "", "", false
}

// readerBuilder accumulates pairs during a load. It is discarded once
// build returns, so the Reader has no mutation path.
type readerBuilder struct {
	r *Reader
}

func newReaderBuilder() *readerBuilder {
	return &readerBuilder{r: &Reader{
		values:  make(map[string]string),
		sources: make(map[string]string),
		folded:  make(map[string]string),
	}}
}

// set records a pair. A repeated key keeps its first position and takes
// the latest value and source.
func (b *readerBuilder) set(key, value, source string) {
	if _, ok := b.r.values[key]; !ok {
		b.r.keys = append(b.r.keys, key)
		if _, taken := b.r.folded[normalize.Fold(key)]; !taken {
			b.r.folded[normalize.Fold(key)] = key
		}
	}
	b.r.values[key] = value
	b.r.sources[key] = source
}

// addFile records a file that was actually read.
func (b *readerBuilder) addFile(path string) {
	b.r.files = append(b.r.files, path)
}

func (b *readerBuilder) build(environment string) *Reader {
	r := b.r
	r.environment = environment
	b.r = nil
	return r
}

// NewReader returns a Reader over pairs, ordered by key insertion in keys.
// Keys missing from pairs are skipped; pairs not listed in keys are ignored.
// Useful for tests and for callers assembling values by hand.
func NewReader(keys []string, pairs map[string]string) *Reader {
	b := newReaderBuilder()
	for _, k := range keys {
		if v, ok := pairs[k]; ok {
			b.set(k, v, "map")
		}
	}
	return b.build("")
}
