// Package intern implements the per-message symbol table: an append-only,
// zero-indexed list of entries, each either an interned symbol or an
// interned record layout (an ordered list of symbol-table indices). Both
// the value codec and the generic driver build one of these per message
// and discard it when the message is done.
//
// The encode-side table accelerates "have I interned this text/layout
// already, and at what index" lookups with an xxhash-64 bucket per text,
// falling back to an exact compare on hash collision — adapted from mebo's
// internal/hash (xxhash-based identification) and internal/collision
// (hash-bucketed collision bookkeeping), but resolving the collision
// exactly instead of just flagging it, since two distinct symbols must
// never be treated as equal here.
package intern

import "github.com/cespare/xxhash/v2"

// Kind discriminates the two entry shapes a symbol-table slot can hold.
type Kind uint8

const (
	// SymKind entries hold interned text.
	SymKind Kind = iota
	// RecKind entries hold a record layout: an ordered list of indices,
	// each of which names a SymKind entry.
	RecKind
)

// Entry is one symbol-table slot.
type Entry struct {
	Kind   Kind
	Text   string // valid when Kind == SymKind
	Layout []int  // valid when Kind == RecKind; each element indexes a SymKind entry
}

// DecodeTable is the decode-side symbol table: entries are appended in the
// order they are read off the wire, and later references resolve by index.
type DecodeTable struct {
	entries []Entry
}

// PushSymbol appends a SymKind entry and returns its index.
func (t *DecodeTable) PushSymbol(text string) int {
	idx := len(t.entries)
	t.entries = append(t.entries, Entry{Kind: SymKind, Text: text})

	return idx
}

// PushLayout appends a RecKind entry and returns its index.
func (t *DecodeTable) PushLayout(layout []int) int {
	idx := len(t.entries)
	t.entries = append(t.entries, Entry{Kind: RecKind, Layout: layout})

	return idx
}

// Get resolves a wire reference index against the table.
func (t *DecodeTable) Get(i uint64) (Entry, bool) {
	if i >= uint64(len(t.entries)) {
		return Entry{}, false
	}

	return t.entries[int(i)], true
}

// Names resolves a RecKind entry's layout indices back into field names.
func (t *DecodeTable) Names(layout []int) []string {
	names := make([]string, len(layout))
	for i, symIdx := range layout {
		names[i] = t.entries[symIdx].Text
	}

	return names
}

// Len reports how many entries have been pushed.
func (t *DecodeTable) Len() int { return len(t.entries) }

// EncodeTable is the encode-side symbol table.
type EncodeTable struct {
	entries      []Entry
	symByHash    map[uint64][]int
	layoutByHash map[uint64][]int
}

// NewEncodeTable returns an empty encode-side table.
func NewEncodeTable() *EncodeTable {
	return &EncodeTable{
		symByHash:    make(map[uint64][]int),
		layoutByHash: make(map[uint64][]int),
	}
}

// InternSymbol returns text's table index, interning it on first sight.
// first reports whether this call interned a new entry (the caller must
// emit a Sym header and the text) or found an existing one (the caller
// must emit a Ref header to index).
func (t *EncodeTable) InternSymbol(text string) (index int, first bool) {
	h := xxhash.Sum64String(text)
	for _, i := range t.symByHash[h] {
		if t.entries[i].Kind == SymKind && t.entries[i].Text == text {
			return i, false
		}
	}

	idx := len(t.entries)
	t.entries = append(t.entries, Entry{Kind: SymKind, Text: text})
	t.symByHash[h] = append(t.symByHash[h], idx)

	return idx, true
}

// LookupLayout reports whether names has already been interned as a
// record layout, and at what index.
func (t *EncodeTable) LookupLayout(names []string) (index int, ok bool) {
	h := hashNames(names)
	for _, i := range t.layoutByHash[h] {
		if t.sameLayout(i, names) {
			return i, true
		}
	}

	return 0, false
}

// NewLayout interns names as symbols (reusing ones already known) and
// appends a fresh RecKind entry for their ordered sequence. keyIndex[i] is
// the table index of names[i]; keyFirst[i] reports whether names[i] was
// interned for the first time by this call.
func (t *EncodeTable) NewLayout(names []string) (index int, keyIndex []int, keyFirst []bool) {
	keyIndex = make([]int, len(names))
	keyFirst = make([]bool, len(names))

	for i, name := range names {
		idx, first := t.InternSymbol(name)
		keyIndex[i] = idx
		keyFirst[i] = first
	}

	idx := len(t.entries)
	t.entries = append(t.entries, Entry{Kind: RecKind, Layout: keyIndex})
	h := hashNames(names)
	t.layoutByHash[h] = append(t.layoutByHash[h], idx)

	return idx, keyIndex, keyFirst
}

func (t *EncodeTable) sameLayout(i int, names []string) bool {
	e := t.entries[i]
	if e.Kind != RecKind || len(e.Layout) != len(names) {
		return false
	}

	for k, symIdx := range e.Layout {
		if t.entries[symIdx].Text != names[k] {
			return false
		}
	}

	return true
}

func hashNames(names []string) uint64 {
	d := xxhash.New()
	for _, n := range names {
		_, _ = d.WriteString(n)
		_, _ = d.Write([]byte{0})
	}

	return d.Sum64()
}
