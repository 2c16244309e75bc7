// Copyright 2020 Rob Pike. All rights reserved.
// Use of this source code is governed by a BSD
// license that can be found in the LICENSE file.

package script

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// A Reader reads expressions from text, allocating them in its Gc.
// The values it returns are not rooted; a caller that wants them to
// survive a collection must Root them. A Reader must not be used while
// its Gc is collecting. If an allocation fails partway through a datum,
// the records already made for that datum are freed again.
type Reader struct {
	gc      *Gc
	lex     *lexer
	peekTok *token
	fresh   []Expr // Records allocated for the datum being read.
}

// allocFailure carries an allocation error out of the parser.
type allocFailure struct{ err error }

// Read returns a Reader that reads from r.
func (g *Gc) Read(r io.RuneReader) *Reader {
	return &Reader{
		gc:  g,
		lex: newLexer(r),
	}
}

// ReadString reads the single expression in s. On error nothing it
// allocated stays live.
func (g *Gc) ReadString(s string) (Expr, error) {
	rd := g.Read(strings.NewReader(s))
	e, err := rd.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Nil, fmt.Errorf("%w: no expression in %q", ErrSyntax, s)
		}
		return Nil, err
	}
	made := append([]Expr(nil), rd.fresh...)
	if _, err := rd.Next(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = fmt.Errorf("%w: trailing input after %s", ErrSyntax, e)
		}
		g.discard(append(made, rd.fresh...))
		return Nil, err
	}
	return e, nil
}

// Next reads the next expression. It returns io.EOF when the input is
// exhausted between expressions.
func (r *Reader) Next() (e Expr, err error) {
	r.fresh = r.fresh[:0]
	defer func() {
		switch x := recover().(type) {
		case nil:
		case syntaxError:
			r.gc.discard(r.fresh)
			e, err = Nil, fmt.Errorf("%w: %s", ErrSyntax, string(x))
		case allocFailure:
			r.gc.discard(r.fresh)
			e, err = Nil, x.err
		default:
			panic(x)
		}
	}()
	tok := r.next()
	if tok.typ == tokenEOF {
		return Nil, io.EOF
	}
	r.back(tok)
	return r.list(), nil
}

func (r *Reader) next() token {
	if tok := r.peekTok; tok != nil {
		r.peekTok = nil
		return *tok
	}
	return r.lex.next()
}

func (r *Reader) back(tok token) {
	r.peekTok = &tok
}

func (r *Reader) cons(car, cdr Expr) Expr {
	e, err := r.gc.Cons(car, cdr)
	if err != nil {
		panic(allocFailure{err})
	}
	r.fresh = append(r.fresh, e)
	return e
}

func (r *Reader) intern(name string) Expr {
	e, created, err := r.gc.intern(name)
	if err != nil {
		panic(allocFailure{err})
	}
	if created {
		r.fresh = append(r.fresh, e)
	}
	return e
}

// quote parses a quoted expression. The leading quote has been consumed.
func (r *Reader) quote() Expr {
	q := r.intern("quote")
	return r.cons(q, r.cons(r.list(), Nil))
}

// list parses one expression.
func (r *Reader) list() Expr {
	tok := r.next()
	switch tok.typ {
	case tokenEOF:
		errorf("unexpected EOF")
	case tokenQuote:
		return r.quote()
	case tokenSymbol:
		if tok.text == "nil" {
			return Nil
		}
		return r.intern(tok.text)
	case tokenNumber:
		return Expr{kind: KindNumber, num: tok.num}
	case tokenString:
		return Str(tok.text)
	case tokenLpar:
		expr := r.lparList()
		tok = r.next()
		if tok.typ == tokenRpar {
			return expr
		}
	}
	errorf("unexpected %s", tok)
	panic("not reached")
}

// lparList parses the innards of a list, up to the closing paren.
// The opening paren has been consumed.
func (r *Reader) lparList() Expr {
	tok := r.next()
	switch tok.typ {
	case tokenEOF:
		errorf("unexpected EOF in list")
	case tokenDot:
		return r.list()
	case tokenRpar:
		r.back(tok)
		return Nil
	}
	r.back(tok)
	car := r.list()
	return r.cons(car, r.lparList())
}
