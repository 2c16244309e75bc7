// Copyright 2020 Rob Pike. All rights reserved.
// Use of this source code is governed by a BSD
// license that can be found in the LICENSE file.

// This file contains the builtin functions over expressions:
// predicates, equality, association lists and list construction.

package script

// NilP reports whether e is Nil.
func NilP(e Expr) bool { return e.kind == KindNil }

// SymbolP reports whether e is a symbol.
func SymbolP(e Expr) bool { return e.kind == KindSymbol }

// ConsP reports whether e is a cons.
func ConsP(e Expr) bool { return e.kind == KindCons }

// NumberP reports whether e is a number.
func NumberP(e Expr) bool { return e.kind == KindNumber }

// StringP reports whether e is a string.
func StringP(e Expr) bool { return e.kind == KindString }

// ListP reports whether e is a proper list: Nil, or a finite chain of
// conses ending in Nil.
func ListP(e Expr) bool {
	_, err := Length(e)
	return err == nil
}

// Equal reports whether a and b are structurally equal. Conses are equal
// when their cars and cdrs are; symbols when their names are, even across
// Gcs; numbers and strings when their values are.
//
// Pairs of conses already under comparison are taken to be equal, so
// cyclic structures terminate: two cycles of the same shape are equal and
// a cycle never equals a finite structure.
func Equal(a, b Expr) bool {
	type pair struct{ a, b handle }
	var seen map[pair]bool
	work := []Expr{a, b}
	for len(work) > 0 {
		n := len(work)
		a, b = work[n-2], work[n-1]
		work = work[:n-2]
		if a.kind != b.kind {
			return false
		}
		switch a.kind {
		case KindNil:
		case KindSymbol, KindNumber, KindString:
			if !Eq(a, b) {
				return false
			}
		case KindCons:
			if a.h == b.h {
				continue
			}
			p := pair{a.h, b.h}
			if seen[p] {
				continue
			}
			if seen == nil {
				seen = make(map[pair]bool)
			}
			seen[p] = true
			acar, acdr, err := cell(a)
			if err != nil {
				return false
			}
			bcar, bcdr, err := cell(b)
			if err != nil {
				return false
			}
			// Cars are compared before cdrs.
			work = append(work, acdr, bcdr, acar, bcar)
		default:
			return false
		}
	}
	return true
}

// Assoc returns the first pair in alist whose car is Equal to key, or Nil
// if there is none. Nil elements are skipped. An element that is not a
// pair, a tail that is not Nil, or a cyclic spine is ErrMalformedList.
func Assoc(key, alist Expr) (Expr, error) {
	var seen map[handle]bool
	for e := alist; ; {
		switch e.kind {
		case KindNil:
			return Nil, nil
		case KindCons:
		default:
			return Nil, malformedf("assoc: list ends in %s %s", e.kind, e)
		}
		if seen[e.h] {
			return Nil, malformedf("assoc: cyclic list")
		}
		if seen == nil {
			seen = make(map[handle]bool)
		}
		seen[e.h] = true
		entry, rest, err := cell(e)
		if err != nil {
			return Nil, err
		}
		switch entry.kind {
		case KindNil:
		case KindCons:
			k, err := Car(entry)
			if err != nil {
				return Nil, err
			}
			if Equal(k, key) {
				return entry, nil
			}
		default:
			return Nil, malformedf("assoc: element %s is not a pair", entry)
		}
		e = rest
	}
}

// List returns a proper list of vs, in order, allocated in gc. With no
// values it returns Nil and allocates nothing. If gc cannot hold the whole
// list, List fails with ErrOutOfMemory having allocated nothing.
func List(gc *Gc, vs ...Expr) (Expr, error) {
	if len(vs) == 0 {
		return Nil, nil
	}
	if gc == nil {
		return Nil, invalidf("list: nil gc")
	}
	return gc.list(vs)
}

// Length returns the number of elements of the proper list e.
func Length(e Expr) (int, error) {
	n := 0
	err := walk(e, func(Expr) { n++ })
	return n, err
}

// ToSlice returns the elements of the proper list e.
func ToSlice(e Expr) ([]Expr, error) {
	var vs []Expr
	if err := walk(e, func(v Expr) { vs = append(vs, v) }); err != nil {
		return nil, err
	}
	return vs, nil
}

// walk calls fn on each element of the proper list e.
func walk(e Expr, fn func(Expr)) error {
	var seen map[handle]bool
	for e.kind == KindCons {
		if seen[e.h] {
			return malformedf("cyclic list")
		}
		if seen == nil {
			seen = make(map[handle]bool)
		}
		seen[e.h] = true
		car, cdr, err := cell(e)
		if err != nil {
			return err
		}
		fn(car)
		e = cdr
	}
	if !e.IsNil() {
		return malformedf("list ends in %s %s", e.kind, e)
	}
	return nil
}
