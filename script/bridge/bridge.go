// Copyright 2026 The Nothing Authors. All rights reserved.
// Use of this source code is governed by a BSD
// license that can be found in the LICENSE file.

// Package bridge converts between script expressions and golisp data, so
// host code that embeds golisp can hand values to and from a script.Gc.
package bridge // import "github.com/zhouong/nothing/script/bridge"

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/steelseries/golisp"
	"github.com/zhouong/nothing/script"
)

// ToGolisp returns e as golisp data. Integers that fit in int64 become
// golisp integers and other numbers golisp floats; a number golisp cannot
// hold exactly is script.ErrInvalidOperand. Cyclic structure cannot be
// represented and is reported as script.ErrMalformedList.
func ToGolisp(e script.Expr) (*golisp.Data, error) {
	return toGolisp(e, make(map[script.Expr]bool))
}

func toGolisp(e script.Expr, path map[script.Expr]bool) (*golisp.Data, error) {
	switch e.Kind() {
	case script.KindNil:
		return golisp.EmptyCons(), nil
	case script.KindSymbol:
		name, err := script.Name(e)
		if err != nil {
			return nil, err
		}
		return golisp.Intern(name), nil
	case script.KindString:
		s, err := script.StringValue(e)
		if err != nil {
			return nil, err
		}
		return golisp.StringWithValue(s), nil
	case script.KindNumber:
		return number(e)
	case script.KindCons:
		if path[e] {
			return nil, fmt.Errorf("to golisp: %w: cyclic structure", script.ErrMalformedList)
		}
		path[e] = true
		defer delete(path, e)
		car, err := script.Car(e)
		if err != nil {
			return nil, err
		}
		cdr, err := script.Cdr(e)
		if err != nil {
			return nil, err
		}
		a, err := toGolisp(car, path)
		if err != nil {
			return nil, err
		}
		d, err := toGolisp(cdr, path)
		if err != nil {
			return nil, err
		}
		return golisp.Cons(a, d), nil
	}
	return nil, fmt.Errorf("to golisp: %w: kind %s", script.ErrInvalidOperand, e.Kind())
}

func number(e script.Expr) (*golisp.Data, error) {
	n, err := script.NumberValue(e)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprint(n)
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return golisp.IntegerWithValue(i), nil
	}
	if _, ok := new(big.Int).SetString(text, 10); ok {
		return nil, fmt.Errorf("to golisp: %w: integer %s out of range", script.ErrInvalidOperand, text)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("to golisp: %w: number %s out of range", script.ErrInvalidOperand, text)
	}
	// Golisp floats are float32.
	f32 := float32(f)
	if math.IsInf(float64(f32), 0) || float64(f32) != f {
		return nil, fmt.Errorf("to golisp: %w: float %s not exact in golisp", script.ErrInvalidOperand, text)
	}
	return golisp.FloatWithValue(f32), nil
}

// FromGolisp returns d as an expression allocated in gc. Lists, symbols,
// strings, integers, floats and booleans are supported; booleans become
// the symbols t and nil as in Lisp 1.5. Cyclic golisp lists are reported
// as script.ErrMalformedList.
func FromGolisp(gc *script.Gc, d *golisp.Data) (script.Expr, error) {
	return fromGolisp(gc, d, make(map[*golisp.Data]bool))
}

// fromGolisp converts d. Path holds the pairs of every list being
// converted around d; meeting one again means d is cyclic.
func fromGolisp(gc *script.Gc, d *golisp.Data, path map[*golisp.Data]bool) (script.Expr, error) {
	switch {
	case golisp.NilP(d):
		return script.Nil, nil
	case golisp.PairP(d):
		var spine []*golisp.Data
		defer func() {
			for _, p := range spine {
				delete(path, p)
			}
		}()
		var cars []script.Expr
		for ; golisp.PairP(d) && !golisp.NilP(d); d = golisp.Cdr(d) {
			if path[d] {
				return script.Nil, fmt.Errorf("from golisp: %w: cyclic structure", script.ErrMalformedList)
			}
			path[d] = true
			spine = append(spine, d)
			car, err := fromGolisp(gc, golisp.Car(d), path)
			if err != nil {
				return script.Nil, err
			}
			cars = append(cars, car)
		}
		list, err := fromGolisp(gc, d, path)
		if err != nil {
			return script.Nil, err
		}
		for i := len(cars) - 1; i >= 0; i-- {
			if list, err = gc.Cons(cars[i], list); err != nil {
				return script.Nil, err
			}
		}
		return list, nil
	case golisp.SymbolP(d):
		name := golisp.StringValue(d)
		if name == "nil" {
			return script.Nil, nil
		}
		return gc.Intern(name)
	case golisp.StringP(d):
		return script.Str(golisp.StringValue(d)), nil
	case golisp.IntegerP(d):
		return script.Int(int64(golisp.IntegerValue(d))), nil
	case golisp.FloatP(d):
		return script.Number(float64(golisp.FloatValue(d)))
	case golisp.BooleanP(d):
		if golisp.BooleanValue(d) {
			return gc.Intern("t")
		}
		return script.Nil, nil
	}
	return script.Nil, fmt.Errorf("from golisp: %w: %s", script.ErrInvalidOperand, golisp.String(d))
}
