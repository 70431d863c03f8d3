package testutil

import (
	"strconv"
	"sync"
)

// SequentialIDs generates "<prefix>-1", "<prefix>-2", ... in call order.
//
// Unlike compile.UUIDv7Generator, the output is reproducible, which keeps
// golden logs byte-identical between runs. Reset restarts the sequence.
//
// Thread-safety: all methods are safe for concurrent use.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequentialIDs creates a generator. An empty prefix becomes "compile".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "compile"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return g.prefix + "-" + strconv.FormatInt(g.seq, 10)
}

// Reset restarts the sequence so the next ID ends in 1.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// FixedID returns the same ID on every call.
//
// Useful when concurrent compilations would otherwise draw IDs in a
// nondeterministic order.
type FixedID string

// Generate returns the fixed ID, or "compile-fixed" when empty.
func (id FixedID) Generate() string {
	if id == "" {
		return "compile-fixed"
	}
	return string(id)
}
