// Copyright 2020 Rob Pike. All rights reserved.
// Use of this source code is governed by a BSD
// license that can be found in the LICENSE file.

package script

import (
	"bytes"
	"io"
	"math/big"
	"strconv"
	"unicode"

	"github.com/nukata/goarith"
)

type tokType int

const (
	tokenError tokType = iota
	tokenEOF
	tokenSymbol
	tokenNumber
	tokenString
	tokenLpar
	tokenRpar
	tokenDot
	tokenQuote
)

const eofRune rune = -1

// A token is one lexical item. Numbers carry their value, strings their
// unquoted text.
type token struct {
	typ  tokType
	text string
	num  goarith.Number
}

func (t token) String() string {
	switch t.typ {
	case tokenEOF:
		return "EOF"
	case tokenString:
		return strconv.Quote(t.text)
	}
	return t.text
}

type lexer struct {
	rd       io.RuneReader
	peeking  bool
	peekRune rune
	buf      bytes.Buffer
}

func newLexer(rd io.RuneReader) *lexer {
	return &lexer{
		rd: rd,
	}
}

func (l *lexer) next() token {
	for {
		r := l.read()
		switch {
		case isSpace(r):
		case r == ';':
			l.skipToNewline()
		case r == eofRune:
			return token{typ: tokenEOF}
		case r == '(':
			return token{typ: tokenLpar, text: "("}
		case r == ')':
			return token{typ: tokenRpar, text: ")"}
		case r == '\'':
			return token{typ: tokenQuote, text: "'"}
		case r == '"':
			return l.str()
		case r == '.':
			if !isSymbolRune(l.peek()) {
				return token{typ: tokenDot, text: "."}
			}
			return l.atom(r)
		default:
			return l.atom(r)
		}
	}
}

func (l *lexer) read() rune {
	if l.peeking {
		l.peeking = false
		return l.peekRune
	}
	r, _, err := l.rd.ReadRune()
	if err != nil {
		if err != io.EOF {
			errorf("read: %v", err)
		}
		r = eofRune
	}
	return r
}

func (l *lexer) peek() rune {
	if l.peeking {
		return l.peekRune
	}
	r := l.read()
	l.back(r)
	return r
}

func (l *lexer) back(r rune) {
	l.peeking = true
	l.peekRune = r
}

func (l *lexer) skipToNewline() {
	for {
		r := l.read()
		if r == '\n' || r == eofRune {
			return
		}
	}
}

// atom lexes a number or a symbol starting with r.
func (l *lexer) atom(r rune) token {
	l.buf.Reset()
	for {
		l.buf.WriteRune(r)
		r = l.read()
		if r == eofRune {
			break
		}
		if !isSymbolRune(r) {
			l.back(r)
			break
		}
	}
	text := l.buf.String()
	if looksNumeric(text) {
		return token{typ: tokenNumber, text: text, num: parseNumber(text)}
	}
	return token{typ: tokenSymbol, text: text}
}

// str lexes a string literal. The opening quote has been consumed.
// Escapes follow Go syntax.
func (l *lexer) str() token {
	l.buf.Reset()
	l.buf.WriteByte('"')
	for {
		r := l.read()
		switch r {
		case eofRune:
			errorf("unterminated string")
		case '\\':
			l.buf.WriteRune(r)
			r = l.read()
			if r == eofRune {
				errorf("unterminated string")
			}
		case '"':
			l.buf.WriteByte('"')
			s, err := strconv.Unquote(l.buf.String())
			if err != nil {
				errorf("bad string %s: %v", &l.buf, err)
			}
			return token{typ: tokenString, text: s}
		}
		l.buf.WriteRune(r)
	}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f'
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

// isSymbolRune reports whether r can continue an atom.
func isSymbolRune(r rune) bool {
	switch r {
	case '(', ')', '\'', '"', ';', eofRune:
		return false
	}
	return !isSpace(r) && unicode.IsPrint(r)
}

// looksNumeric reports whether an atom must be read as a number: it starts
// with a digit, or with a sign or point followed by a digit.
func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
	}
	return i < len(s) && isDigit(rune(s[i]))
}

// parseNumber converts numeric text, as an integer of any size if it is
// one and otherwise as a float.
func parseNumber(text string) goarith.Number {
	var z big.Int
	if _, ok := z.SetString(text, 0); ok {
		return goarith.AsNumber(&z)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		errorf("bad number syntax: %s", text)
	}
	return goarith.AsNumber(f)
}
