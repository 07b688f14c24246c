package compiler

import (
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// NameGenerator produces simple names for synthesized declarations:
// anonymous inline types, projection bodies and unnamed queries.
//
// Generated names must be unique within a session. They must also be valid
// simple names, so they never contain a dot.
type NameGenerator interface {
	Next(prefix string) string
}

// UUIDNames suffixes the prefix with a UUIDv7 (hyphens removed).
//
// UUIDv7 embeds a timestamp in the most significant bits, so names sort by
// creation time, which helps when reading dumps of large documents.
//
// Thread-safety: UUIDNames is stateless and safe for concurrent use.
type UUIDNames struct{}

// Next returns prefix$<uuid>.
func (UUIDNames) Next(prefix string) string {
	id := strings.ReplaceAll(uuid.Must(uuid.NewV7()).String(), "-", "")
	return prefix + "$" + id
}

// SequenceNames suffixes the prefix with a counter starting at 1.
//
// This enables deterministic compilation and golden snapshot comparison:
// the same sources compiled with a fresh SequenceNames produce
// byte-identical documents.
//
// Thread-safety: SequenceNames is safe for concurrent use via internal mutex.
type SequenceNames struct {
	mu sync.Mutex
	n  int
}

// NewSequenceNames creates a counter-based generator.
func NewSequenceNames() *SequenceNames {
	return &SequenceNames{}
}

// Next returns prefix$<n>.
func (g *SequenceNames) Next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return prefix + "$" + strconv.Itoa(g.n)
}
