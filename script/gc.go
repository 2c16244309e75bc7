// Copyright 2026 The Nothing Authors. All rights reserved.
// Use of this source code is governed by a BSD
// license that can be found in the LICENSE file.

package script

import (
	"fmt"
	"sync"
)

// A record is one slot of a Gc's pool. A slot whose kind is KindNil is free.
type record struct {
	kind   Kind
	gen    uint32
	marked bool
	car    Expr   // Conses.
	cdr    Expr   // Conses.
	name   string // Symbols.
}

// A Gc owns the records behind symbols and conses, the symbol table that
// interns them, and the root set that decides what survives Collect.
//
// A Gc admits one mutator at a time: every method takes the Gc's lock, and
// Collect holds it for the whole pass.
type Gc struct {
	mu        sync.Mutex
	label     string
	limit     int              // Maximum live records; 0 means no limit.
	records   []record         // The pool, indexed by handle.idx.
	free      []int32          // Free slots, reused last in first out.
	symbols   map[string]int32 // Interned names.
	roots     map[int32]int    // Root multiset.
	destroyed bool
	stats     Stats
}

// Stats describes the state of a Gc.
type Stats struct {
	Live        int // Records in use.
	Conses      int // Live cons records.
	Symbols     int // Live symbol records.
	Capacity    int // Slots in the pool, used or free.
	Roots       int // Distinct rooted records.
	Collections int // Collect passes run.
	Freed       int // Records freed over the Gc's lifetime.
	Marked      int // Records marked by the last pass.
	LastFreed   int // Records freed by the last pass.
}

func (s Stats) String() string {
	return fmt.Sprintf("live %d (conses %d, symbols %d) capacity %d roots %d; %d collections, %d freed",
		s.Live, s.Conses, s.Symbols, s.Capacity, s.Roots, s.Collections, s.Freed)
}

// An Option configures a Gc.
type Option func(*Gc)

// WithLimit bounds the number of live records. Allocating beyond it fails
// with ErrOutOfMemory. n <= 0 means no limit.
func WithLimit(n int) Option {
	return func(g *Gc) {
		if n < 0 {
			n = 0
		}
		g.limit = n
	}
}

// WithName labels the Gc in trace output.
func WithName(name string) Option {
	return func(g *Gc) {
		g.label = name
	}
}

// NewGc returns an empty Gc.
func NewGc(opts ...Option) *Gc {
	g := &Gc{
		label:   "gc",
		symbols: make(map[string]int32),
		roots:   make(map[int32]int),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Cons implements the Lisp function CONS. Both halves must be owned by g
// (or be Nil or scalars).
func (g *Gc) Cons(car, cdr Expr) (Expr, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.own(car); err != nil {
		return Nil, err
	}
	if err := g.own(cdr); err != nil {
		return Nil, err
	}
	idx, err := g.alloc(KindCons)
	if err != nil {
		return Nil, err
	}
	r := &g.records[idx]
	r.car, r.cdr = car, cdr
	return g.expr(KindCons, idx), nil
}

// Intern returns the symbol with the given name, creating it if the name
// is not yet interned in g. While the symbol is reachable, every call
// with the same name returns the same record.
func (g *Gc) Intern(name string) (Expr, error) {
	e, _, err := g.intern(name)
	return e, err
}

// intern is Intern that also reports whether the symbol is new.
func (g *Gc) intern(name string) (Expr, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.destroyed {
		return Nil, false, invalidf("intern %q: gc %s destroyed", name, g.label)
	}
	if idx, ok := g.symbols[name]; ok {
		return g.expr(KindSymbol, idx), false, nil
	}
	idx, err := g.alloc(KindSymbol)
	if err != nil {
		return Nil, false, err
	}
	g.records[idx].name = name
	g.symbols[name] = idx
	return g.expr(KindSymbol, idx), true, nil
}

// Root adds e to the root set. The root set counts: a value rooted twice
// stays rooted until it is unrooted twice. Rooting Nil or a scalar does
// nothing.
func (g *Gc) Root(e Expr) error {
	if !e.kind.heap() {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.own(e); err != nil {
		return err
	}
	g.roots[e.h.idx]++
	return nil
}

// Unroot removes one instance of e from the root set.
func (g *Gc) Unroot(e Expr) error {
	if !e.kind.heap() {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.own(e); err != nil {
		return err
	}
	n, ok := g.roots[e.h.idx]
	if !ok {
		return invalidf("unroot %s: not a root", e.kind)
	}
	if n <= 1 {
		delete(g.roots, e.h.idx)
	} else {
		g.roots[e.h.idx] = n - 1
	}
	return nil
}

// Collect frees every record not reachable from the root set and returns
// the resulting statistics. Handles to freed records go stale.
func (g *Gc) Collect() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.destroyed {
		return g.stats
	}
	marked := g.mark()
	freed := g.sweep()
	g.stats.Collections++
	g.stats.Marked = marked
	g.stats.LastFreed = freed
	g.stats.Freed += freed
	tracer().Debugf("%s: collection %d marked %d, freed %d, live %d",
		g.label, g.stats.Collections, marked, freed, g.stats.Live)
	return g.snapshot()
}

// mark sets the mark bit on every record reachable from a root and
// returns how many it marked. The work list is explicit and a record is
// pushed only once, so cyclic structure terminates.
func (g *Gc) mark() int {
	var work []int32
	push := func(e Expr) {
		if e.kind.heap() && !g.records[e.h.idx].marked {
			g.records[e.h.idx].marked = true
			work = append(work, e.h.idx)
		}
	}
	for idx := range g.roots {
		if !g.records[idx].marked {
			g.records[idx].marked = true
			work = append(work, idx)
		}
	}
	n := 0
	for len(work) > 0 {
		idx := work[len(work)-1]
		work = work[:len(work)-1]
		n++
		r := &g.records[idx]
		if r.kind == KindCons {
			push(r.car)
			push(r.cdr)
		}
	}
	return n
}

// sweep frees every unmarked record, clears the marks on the rest and
// returns how many it freed.
func (g *Gc) sweep() int {
	n := 0
	for i := range g.records {
		r := &g.records[i]
		switch r.kind {
		case KindNil:
			continue
		case KindSymbol, KindCons:
		default:
			panic(fmt.Sprintf("script: record %d has kind %s", i, r.kind))
		}
		if r.marked {
			r.marked = false
			continue
		}
		g.release(int32(i))
		n++
	}
	return n
}

// Live returns the number of records in use.
func (g *Gc) Live() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats.Live
}

// Stats returns the current statistics.
func (g *Gc) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

// Slot describes one slot of a Gc's pool.
type Slot struct {
	Kind   Kind // KindNil for a free slot.
	Rooted bool
}

// Slots returns the layout of the pool, in slot order.
func (g *Gc) Slots() []Slot {
	g.mu.Lock()
	defer g.mu.Unlock()
	slots := make([]Slot, len(g.records))
	for i := range g.records {
		_, rooted := g.roots[int32(i)]
		slots[i] = Slot{Kind: g.records[i].kind, Rooted: rooted}
	}
	return slots
}

// Destroy releases every record. Afterwards all handles into g are stale
// and allocation fails.
func (g *Gc) Destroy() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.destroyed {
		return
	}
	tracer().Debugf("%s: destroyed with %d live records", g.label, g.stats.Live)
	g.destroyed = true
	g.records = nil
	g.free = nil
	g.symbols = nil
	g.roots = nil
	g.stats.Live, g.stats.Conses, g.stats.Symbols = 0, 0, 0
}

// snapshot returns the statistics. The caller holds g.mu.
func (g *Gc) snapshot() Stats {
	s := g.stats
	s.Capacity = len(g.records)
	s.Roots = len(g.roots)
	return s
}

// alloc claims a slot for a record of the given kind. On failure g is
// unchanged. The caller holds g.mu.
func (g *Gc) alloc(kind Kind) (int32, error) {
	if g.destroyed {
		return 0, invalidf("allocate %s: gc %s destroyed", kind, g.label)
	}
	if g.limit > 0 && g.stats.Live >= g.limit {
		tracer().Infof("%s: out of memory allocating %s (limit %d)", g.label, kind, g.limit)
		return 0, fmt.Errorf("allocate %s: %w", kind, ErrOutOfMemory)
	}
	var idx int32
	if n := len(g.free); n > 0 {
		idx = g.free[n-1]
		g.free = g.free[:n-1]
	} else {
		if len(g.records) == maxRecords {
			return 0, fmt.Errorf("allocate %s: %w", kind, ErrOutOfMemory)
		}
		g.records = append(g.records, record{})
		idx = int32(len(g.records) - 1)
	}
	g.records[idx].kind = kind
	g.count(kind, 1)
	return idx, nil
}

const maxRecords = 1<<31 - 1

// release frees the record at idx. The generation moves on so handles to
// the old occupant go stale. The caller holds g.mu.
func (g *Gc) release(idx int32) {
	r := &g.records[idx]
	if r.kind == KindSymbol {
		delete(g.symbols, r.name)
	}
	delete(g.roots, idx)
	g.count(r.kind, -1)
	*r = record{gen: r.gen + 1}
	g.free = append(g.free, idx)
}

// available reports how many more records can be allocated. The caller
// holds g.mu.
func (g *Gc) available() int {
	if g.destroyed {
		return 0
	}
	if g.limit <= 0 {
		return maxRecords - g.stats.Live
	}
	return g.limit - g.stats.Live
}

func (g *Gc) count(kind Kind, n int) {
	g.stats.Live += n
	switch kind {
	case KindCons:
		g.stats.Conses += n
	case KindSymbol:
		g.stats.Symbols += n
	}
}

func (g *Gc) expr(kind Kind, idx int32) Expr {
	return Expr{kind: kind, h: handle{gc: g, idx: idx, gen: g.records[idx].gen}}
}

// own checks that e may be stored in g: scalars and Nil always may,
// symbols and conses only if they are live records of g. The caller holds
// g.mu.
func (g *Gc) own(e Expr) error {
	if !e.kind.heap() {
		return nil
	}
	if e.h.gc != g {
		return invalidf("%s belongs to another gc", e.kind)
	}
	_, err := g.lookup(e)
	return err
}

// lookup returns the record for e. The caller holds g.mu.
func (g *Gc) lookup(e Expr) (*record, error) {
	if g.destroyed {
		return nil, invalidf("%s in destroyed gc %s", e.kind, g.label)
	}
	if e.h.idx < 0 || int(e.h.idx) >= len(g.records) {
		return nil, invalidf("%s handle out of range", e.kind)
	}
	r := &g.records[e.h.idx]
	if r.gen != e.h.gen || r.kind != e.kind {
		return nil, invalidf("stale %s", e.kind)
	}
	return r, nil
}

func (g *Gc) cell(e Expr) (car, cdr Expr, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, err := g.lookup(e)
	if err != nil {
		return Nil, Nil, err
	}
	return r.car, r.cdr, nil
}

func (g *Gc) name(e Expr) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, err := g.lookup(e)
	if err != nil {
		return "", err
	}
	return r.name, nil
}

func (g *Gc) set(e, v Expr, car bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, err := g.lookup(e)
	if err != nil {
		return err
	}
	if err := g.own(v); err != nil {
		return err
	}
	if car {
		r.car = v
	} else {
		r.cdr = v
	}
	return nil
}

// list allocates the cells of a proper list holding vs. Either every
// cell is allocated or, on error, none is.
func (g *Gc) list(vs []Expr) (Expr, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, v := range vs {
		if err := g.own(v); err != nil {
			return Nil, err
		}
	}
	if g.destroyed {
		return Nil, invalidf("list: gc %s destroyed", g.label)
	}
	if n := g.available(); n < len(vs) {
		tracer().Infof("%s: out of memory building list of %d (room for %d)", g.label, len(vs), n)
		return Nil, fmt.Errorf("list of %d: %w", len(vs), ErrOutOfMemory)
	}
	list := Nil
	for i := len(vs) - 1; i >= 0; i-- {
		idx, err := g.alloc(KindCons)
		if err != nil {
			g.unwind(list)
			return Nil, err
		}
		r := &g.records[idx]
		r.car, r.cdr = vs[i], list
		list = g.expr(KindCons, idx)
	}
	return list, nil
}

// unwind releases the spine of a partly built list. The caller holds g.mu.
func (g *Gc) unwind(list Expr) {
	for list.kind == KindCons {
		r, err := g.lookup(list)
		if err != nil {
			return
		}
		next := r.cdr
		g.release(list.h.idx)
		list = next
	}
}

// discard releases the records behind es, newest first, skipping any that
// are stale or rooted. It undoes allocations nothing else has seen.
func (g *Gc) discard(es []Expr) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(es) - 1; i >= 0; i-- {
		e := es[i]
		if _, err := g.lookup(e); err != nil {
			continue
		}
		if g.roots[e.h.idx] > 0 {
			continue
		}
		g.release(e.h.idx)
	}
	tracer().Debugf("%s: discarded %d records, live %d", g.label, len(es), g.stats.Live)
}
