// Package intern provides a process-wide string interner returning opaque
// integer handles, grounded on the teacher's toposort.SymbolTable
// bidirectional-mapping idiom. Looking up an already-interned string goes
// through a sync.Map without locking; inserting a new string, Lookup and
// Len take a mutex. Handles are plain integers.
package intern

import "sync"

// Handle is an opaque, process-wide string identifier. Handles are stable
// for the lifetime of the Table that produced them and are cheap to copy
// and compare.
type Handle int32

// Table interns strings into Handles using a lock-free map for reads and a
// double-checked insert path for writes, avoiding a single global mutex
// that would otherwise serialize every shingle/token seen by the clone
// detector.
type Table struct {
	forward sync.Map // string -> Handle
	mu      sync.Mutex
	back    []string
}

// New returns an empty interning table.
func New() *Table {
	return &Table{back: make([]string, 0, 1024)}
}

// Intern returns the Handle for s, assigning a new one on first sight.
func (t *Table) Intern(s string) Handle {
	if v, ok := t.forward.Load(s); ok {
		h, _ := v.(Handle)

		return h
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if v, ok := t.forward.Load(s); ok {
		h, _ := v.(Handle)

		return h
	}

	h := Handle(len(t.back))
	t.back = append(t.back, s)
	t.forward.Store(s, h)

	return h
}

// Lookup resolves a Handle back to its string, returning false if the
// handle was never issued by this table.
func (t *Table) Lookup(h Handle) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if int(h) < 0 || int(h) >= len(t.back) {
		return "", false
	}

	return t.back[h], true
}

// Len returns the number of distinct strings interned so far.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.back)
}
