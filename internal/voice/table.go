package voice

import "sync"

// Table owns the per-source Params records. Unknown sources are lazily
// initialized from the default template, optionally cloned from the most
// recently edited source so newly introduced sources stay stylistically
// consistent with what the author last touched.
type Table struct {
	mu         sync.Mutex
	params     map[int]*Params
	lastEdited int
	hasEdited  bool
}

func NewTable() *Table {
	return &Table{params: make(map[int]*Params)}
}

// Get returns a copy of the params for source, creating the record on
// first reference. Handing out copies keeps render-side readers isolated
// from a concurrent Update on another goroutine.
func (t *Table) Get(source int) Params {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.getLocked(source)
}

func (t *Table) getLocked(source int) *Params {
	if p, ok := t.params[source]; ok {
		return p
	}
	var p Params
	if t.hasEdited {
		if src, ok := t.params[t.lastEdited]; ok {
			p = *src // copy the style of the last edited source
			p.Name = ""
			p.Category = CategoryUnset
		} else {
			p = Default()
		}
	} else {
		p = Default()
	}
	t.params[source] = &p
	return &p
}

// Peek returns a copy of the params for source without creating them.
func (t *Table) Peek(source int) (Params, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.params[source]; ok {
		return *p, true
	}
	return Params{}, false
}

// Update applies a named parameter to source's record (lazily created) and
// marks it as the most recently edited. Returns false for unknown names.
func (t *Table) Update(source int, name string, value any) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !Apply(t.getLocked(source), name, value) {
		return false
	}
	t.lastEdited = source
	t.hasEdited = true
	return true
}

// Remove retires a source's record.
func (t *Table) Remove(source int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.params, source)
}

// Len returns the number of known sources.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.params)
}
