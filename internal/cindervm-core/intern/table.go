// Package intern provides the append-only symbol tables backing CName,
// TweakDBID, and ResRef values. These tables are explicitly outside the
// collected heap: per the core's GC contract, interned entries are roots
// that are never swept, so ownership of them lives here rather than in
// the heap package.
package intern

import (
	"encoding/binary"
	"sync"

	"github.com/dolthub/swiss"
	"golang.org/x/crypto/blake2b"
)

// ID is an opaque interned symbol identifier. Two symbols with the same
// underlying bytes always resolve to the same ID within a table.
type ID uint64

// Table is a content-addressed, append-only symbol table. Interning is
// idempotent: interning the same bytes twice returns the same ID. Lookups
// hash the input with blake2b to a 64-bit key so that repeated interning
// across independently loaded constant pools is an O(1) map probe rather
// than a linear scan, without needing the symbol's text as the map key.
type Table struct {
	mu      sync.RWMutex
	byHash  *swiss.Map[uint64, ID]
	strings []string // ID -> original text, append-only, index == ID
}

// New creates an empty interning table.
func New() *Table {
	return &Table{
		byHash: swiss.NewMap[uint64, ID](64),
	}
}

// Intern returns the stable ID for name, allocating a new one the first
// time a given string is seen.
func (t *Table) Intern(name string) ID {
	h := hashString(name)

	t.mu.RLock()
	if id, ok := t.byHash.Get(h); ok && t.strings[id] == name {
		t.mu.RUnlock()
		return id
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	// Re-check under the write lock in case another caller interned the
	// same name first.
	if id, ok := t.byHash.Get(h); ok && t.strings[id] == name {
		return id
	}
	id := ID(len(t.strings))
	t.strings = append(t.strings, name)
	t.byHash.Put(h, id)
	return id
}

// Lookup returns the original text for an interned ID.
func (t *Table) Lookup(id ID) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(t.strings) {
		return "", false
	}
	return t.strings[id], true
}

// Len returns the number of distinct interned symbols.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.strings)
}

func hashString(s string) uint64 {
	sum := blake2b.Sum512([]byte(s))
	return binary.LittleEndian.Uint64(sum[:8])
}
