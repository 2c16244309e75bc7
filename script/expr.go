// Copyright 2020 Rob Pike. All rights reserved.
// Use of this source code is governed by a BSD
// license that can be found in the LICENSE file.

package script // import "github.com/zhouong/nothing/script"

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/nukata/goarith"
)

// Kind is the tag of an Expr.
type Kind uint8

const (
	KindNil Kind = iota
	KindSymbol
	KindCons
	KindNumber
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindSymbol:
		return "symbol"
	case KindCons:
		return "cons"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// heap reports whether values of the kind live in a Gc.
func (k Kind) heap() bool {
	return k == KindSymbol || k == KindCons
}

// A handle addresses a record in a Gc. The generation must match the
// record's for the handle to be live.
type handle struct {
	gc  *Gc
	idx int32
	gen uint32
}

// Expr represents an arbitrary expression. Symbols and conses refer to
// records owned by a Gc; numbers and strings carry their value.
// The zero Expr is Nil.
type Expr struct {
	kind Kind
	h    handle         // Symbols and conses.
	num  goarith.Number // Numbers.
	str  string         // Strings.
}

// Nil is the empty list. It is the only value of KindNil.
var Nil Expr

// Kind returns the tag of the expression.
func (e Expr) Kind() Kind {
	return e.kind
}

// IsNil reports whether e is Nil.
func (e Expr) IsNil() bool {
	return e.kind == KindNil
}

// Gc returns the Gc that owns e, or nil if e is not heap-resident.
func (e Expr) Gc() *Gc {
	if !e.kind.heap() {
		return nil
	}
	return e.h.gc
}

// Str returns a string value.
func Str(s string) Expr {
	return Expr{kind: KindString, str: s}
}

// Int returns an integer value.
func Int(i int64) Expr {
	return Expr{kind: KindNumber, num: goarith.AsNumber(big.NewInt(i))}
}

// Number returns a number value holding v, which may be any Go integer or
// float type, a *big.Int, or a goarith.Number. Infinities and NaN have no
// printed form that reads back and are refused.
func Number(v interface{}) (Expr, error) {
	var n goarith.Number
	switch v := v.(type) {
	case goarith.Number:
		// Goarith prints infinities as +Inf.0 and -Inf.0.
		if s := fmt.Sprint(v); strings.Contains(s, "Inf") || strings.Contains(s, "NaN") {
			return Nil, invalidf("non-finite number %s", s)
		}
		n = v
	case *big.Int:
		if v == nil {
			return Nil, invalidf("nil *big.Int")
		}
		n = goarith.AsNumber(new(big.Int).Set(v))
	case int:
		n = goarith.AsNumber(big.NewInt(int64(v)))
	case int8:
		n = goarith.AsNumber(big.NewInt(int64(v)))
	case int16:
		n = goarith.AsNumber(big.NewInt(int64(v)))
	case int32:
		n = goarith.AsNumber(big.NewInt(int64(v)))
	case int64:
		n = goarith.AsNumber(big.NewInt(v))
	case uint:
		n = goarith.AsNumber(new(big.Int).SetUint64(uint64(v)))
	case uint8:
		n = goarith.AsNumber(new(big.Int).SetUint64(uint64(v)))
	case uint16:
		n = goarith.AsNumber(new(big.Int).SetUint64(uint64(v)))
	case uint32:
		n = goarith.AsNumber(new(big.Int).SetUint64(uint64(v)))
	case uint64:
		n = goarith.AsNumber(new(big.Int).SetUint64(v))
	case float32:
		if !finite(float64(v)) {
			return Nil, invalidf("non-finite number %v", v)
		}
		n = goarith.AsNumber(float64(v))
	case float64:
		if !finite(v) {
			return Nil, invalidf("non-finite number %v", v)
		}
		n = goarith.AsNumber(v)
	}
	if n == nil {
		return Nil, invalidf("%T is not a number", v)
	}
	return Expr{kind: KindNumber, num: n}, nil
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// NumberValue returns the number held by e.
func NumberValue(e Expr) (goarith.Number, error) {
	if e.kind != KindNumber {
		return nil, invalidf("number of %s", e.kind)
	}
	return e.num, nil
}

// StringValue returns the string held by e.
func StringValue(e Expr) (string, error) {
	if e.kind != KindString {
		return "", invalidf("string of %s", e.kind)
	}
	return e.str, nil
}

// Name returns the name of the symbol e.
func Name(e Expr) (string, error) {
	if e.kind != KindSymbol {
		return "", invalidf("name of %s", e.kind)
	}
	return e.h.gc.name(e)
}

// Car implements the Lisp function CAR. It is defined only for conses.
// Car and Cdr are functions not methods so (CADR X) reads Car(Cdr(x)).
func Car(e Expr) (Expr, error) {
	car, _, err := cell(e)
	return car, err
}

// Cdr implements the Lisp function CDR.
func Cdr(e Expr) (Expr, error) {
	_, cdr, err := cell(e)
	return cdr, err
}

// cell returns both halves of the cons e.
func cell(e Expr) (car, cdr Expr, err error) {
	if e.kind != KindCons {
		return Nil, Nil, invalidf("car/cdr of %s", e.kind)
	}
	return e.h.gc.cell(e)
}

// SetCar replaces the car of the cons e.
func SetCar(e, v Expr) error {
	if e.kind != KindCons {
		return invalidf("set car of %s", e.kind)
	}
	return e.h.gc.set(e, v, true)
}

// SetCdr replaces the cdr of the cons e.
func SetCdr(e, v Expr) error {
	if e.kind != KindCons {
		return invalidf("set cdr of %s", e.kind)
	}
	return e.h.gc.set(e, v, false)
}

// Eq reports whether a and b are the same value: the same record for
// conses, the same name for symbols, equal scalars for numbers and strings.
func Eq(a, b Expr) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindCons:
		return a.h == b.h
	case KindSymbol:
		if a.h == b.h {
			return true
		}
		na, err := Name(a)
		if err != nil {
			return false
		}
		nb, err := Name(b)
		return err == nil && na == nb
	case KindNumber:
		return a.num.Cmp(b.num) == 0
	case KindString:
		return a.str == b.str
	}
	return false
}

// SExprString returns the expression as a fully dotted S-Expression.
func (e Expr) SExprString() string {
	var b strings.Builder
	e.buildSExpr(&b, make(map[handle]bool))
	return b.String()
}

func (e Expr) buildSExpr(b *strings.Builder, path map[handle]bool) {
	if e.kind != KindCons {
		e.buildAtom(b)
		return
	}
	if path[e.h] {
		b.WriteString("...")
		return
	}
	car, cdr, err := cell(e)
	if err != nil {
		b.WriteString("#<stale>")
		return
	}
	path[e.h] = true
	b.WriteByte('(')
	car.buildSExpr(b, path)
	b.WriteString(" . ")
	cdr.buildSExpr(b, path)
	b.WriteByte(')')
	delete(path, e.h)
}

// String returns the expression as a formatted list. A cons that is
// already being printed further out is shown as "...".
func (e Expr) String() string {
	var b strings.Builder
	e.buildString(&b, make(map[handle]bool))
	return b.String()
}

// buildString is the internals of the String method. path holds the
// conses on the way down, so cyclic structures print finitely.
func (e Expr) buildString(b *strings.Builder, path map[handle]bool) {
	if e.kind != KindCons {
		e.buildAtom(b)
		return
	}
	if path[e.h] {
		b.WriteString("...")
		return
	}
	// Simplify (quote a) to 'a.
	if car, cdr, err := cell(e); err == nil && car.kind == KindSymbol && cdr.kind == KindCons {
		if name, _ := Name(car); name == "quote" {
			if arg, rest, err := cell(cdr); err == nil && rest.IsNil() {
				path[e.h] = true
				b.WriteByte('\'')
				arg.buildString(b, path)
				delete(path, e.h)
				return
			}
		}
	}
	var spine []handle
	b.WriteByte('(')
	for {
		car, cdr, err := cell(e)
		if err != nil {
			b.WriteString("#<stale>")
			break
		}
		path[e.h] = true
		spine = append(spine, e.h)
		car.buildString(b, path)
		if cdr.IsNil() {
			break
		}
		if cdr.kind != KindCons {
			b.WriteString(" . ")
			cdr.buildString(b, path)
			break
		}
		if path[cdr.h] {
			b.WriteString(" ...")
			break
		}
		b.WriteByte(' ')
		e = cdr
	}
	b.WriteByte(')')
	for _, h := range spine {
		delete(path, h)
	}
}

func (e Expr) buildAtom(b *strings.Builder) {
	switch e.kind {
	case KindNil:
		b.WriteString("nil")
	case KindSymbol:
		name, err := Name(e)
		if err != nil {
			b.WriteString("#<stale>")
			return
		}
		b.WriteString(name)
	case KindNumber:
		b.WriteString(fmt.Sprint(e.num))
	case KindString:
		b.WriteString(strconv.Quote(e.str))
	default:
		fmt.Fprintf(b, "#<%s>", e.kind)
	}
}
