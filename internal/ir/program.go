package ir

// Program is the output of a successful compilation: the enabled streams in
// input order, each rewritten to dense compacted ids.
//
// Programs are never mutated after being returned by the compiler.
type Program struct {
	Entries []ProgramEntry

	// AllContinuous is true when every entry is a continuous stream.
	AllContinuous bool

	// Factor is the global rate multiplier applied at dispatch time.
	Factor float64
}

// ProgramEntry is one compiled stream.
type ProgramEntry struct {
	// OriginalID is the caller's sparse id, kept for decompilation.
	OriginalID int

	// Stream is a clone of the descriptor with ID and NextID compacted.
	Stream Stream
}

// Len returns the number of compiled streams.
func (p *Program) Len() int {
	return len(p.Entries)
}

// Lookup returns the entry with the given compacted id.
func (p *Program) Lookup(compactedID int) (ProgramEntry, bool) {
	if compactedID < 0 || compactedID >= len(p.Entries) {
		return ProgramEntry{}, false
	}
	e := p.Entries[compactedID]
	if e.Stream.ID != compactedID {
		return ProgramEntry{}, false
	}
	return e, true
}

// Decompile returns the original descriptor for a compacted id, with its
// caller-chosen id and next id restored.
func (p *Program) Decompile(compactedID int) (Stream, bool) {
	e, ok := p.Lookup(compactedID)
	if !ok {
		return Stream{}, false
	}
	next := NoNext
	if e.Stream.HasNext() {
		nextEntry, ok := p.Lookup(e.Stream.NextID)
		if !ok {
			return Stream{}, false
		}
		next = nextEntry.OriginalID
	}
	return e.Stream.WithIDs(e.OriginalID, next), true
}
