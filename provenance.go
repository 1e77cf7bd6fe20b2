package dotenv

import (
	"runtime"
	"sync"
	"unsafe"
)

// Provenance records where each bound field's value came from.
type Provenance struct {
	Fields []FieldProvenance
}

// FieldProvenance describes where a field's value came from.
type FieldProvenance struct {
	FieldPath  string // Dot notation (e.g., "Database.Host")
	KeyPath    string // Key the value was read from (e.g., "DATABASE_HOST")
	SourceName string // "file:<path>", a source name, or "default"
	Secret     bool   // Whether field is secret
}

// provenanceStore maps the address of bound settings to their provenance.
// Keys are addresses rather than pointers so the store does not keep
// settings alive; a finalizer removes the entry once they are collected.
var provenanceStore sync.Map

// GetProvenance returns provenance metadata for settings returned by Bind.
// Only fields that were set from a key or a default are listed. The entry
// lives as long as cfg does.
// Thread-safe.
func GetProvenance[T any](cfg *T) (*Provenance, bool) {
	if cfg == nil {
		return nil, false
	}

	value, ok := provenanceStore.Load(provenanceKey(cfg))
	if !ok {
		return nil, false
	}

	prov, ok := value.(*Provenance)
	return prov, ok
}

func storeProvenance[T any](cfg *T, prov *Provenance) {
	if cfg == nil || prov == nil {
		return
	}

	// Only the first store registers the finalizer; setting a second one panics.
	if _, loaded := provenanceStore.Swap(provenanceKey(cfg), prov); !loaded {
		runtime.SetFinalizer(cfg, func(c *T) {
			provenanceStore.Delete(provenanceKey(c))
		})
	}
}

func provenanceKey[T any](cfg *T) uintptr {
	return uintptr(unsafe.Pointer(cfg))
}
