// Copyright 2026 The Nothing Authors. All rights reserved.
// Use of this source code is governed by a BSD
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/zhouong/nothing/script"
)

var errQuit = errors.New("quit")

// A session holds the heap and the names bound in it. Every bound value
// is rooted exactly once, by its name.
type session struct {
	gc    *script.Gc
	out   io.Writer
	names map[string]script.Expr
	seq   int // Last $n used.
}

func newSession(gc *script.Gc, out io.Writer) *session {
	return &session{
		gc:    gc,
		out:   out,
		names: make(map[string]script.Expr),
	}
}

// exec runs one line of input.
func (s *session) exec(line string) error {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, ":") {
		e, err := s.gc.ReadString(line)
		if err != nil {
			return err
		}
		return s.bindNext(s.resolve(e))
	}
	cmd, rest, _ := strings.Cut(line, " ")
	switch cmd {
	case ":quit":
		return errQuit
	case ":def":
		name, text, _ := strings.Cut(strings.TrimSpace(rest), " ")
		if name == "" || strings.HasPrefix(name, "$") {
			return fmt.Errorf(":def: bad name %q", name)
		}
		args, err := s.args(text, 1)
		if err != nil {
			return err
		}
		if err := s.bind(name, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s = %s\n", name, args[0])
	case ":drop":
		name := strings.TrimSpace(rest)
		e, ok := s.names[name]
		if !ok {
			return fmt.Errorf(":drop: %s is not bound", name)
		}
		delete(s.names, name)
		return s.gc.Unroot(e)
	case ":assoc":
		args, err := s.args(rest, 2)
		if err != nil {
			return err
		}
		pair, err := script.Assoc(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, pair)
	case ":equal":
		args, err := s.args(rest, 2)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, truth(script.Equal(args[0], args[1])))
	case ":list":
		args, err := s.args(rest, -1)
		if err != nil {
			return err
		}
		l, err := script.List(s.gc, args...)
		if err != nil {
			return err
		}
		return s.bindNext(l)
	case ":gc":
		fmt.Fprintln(s.out, s.gc.Collect())
	case ":stats":
		fmt.Fprintln(s.out, s.gc.Stats())
	case ":names":
		names := make([]string, 0, len(s.names))
		for name := range s.names {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(s.out, "%s = %s\n", name, s.names[name])
		}
	default:
		return fmt.Errorf("unknown command %s", cmd)
	}
	return nil
}

// args reads the expressions in text, resolving bound names. If n is not
// negative there must be exactly n of them.
func (s *session) args(text string, n int) ([]script.Expr, error) {
	rd := s.gc.Read(strings.NewReader(text))
	var args []script.Expr
	for {
		e, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		args = append(args, s.resolve(e))
	}
	if n >= 0 && len(args) != n {
		return nil, fmt.Errorf("want %d arguments, have %d", n, len(args))
	}
	return args, nil
}

// resolve replaces a symbol that names a bound value by the value.
func (s *session) resolve(e script.Expr) script.Expr {
	if !script.SymbolP(e) {
		return e
	}
	name, err := script.Name(e)
	if err != nil {
		return e
	}
	if v, ok := s.names[name]; ok {
		return v
	}
	return e
}

// bindNext binds e to the next $n name and prints it.
func (s *session) bindNext(e script.Expr) error {
	name := "$" + strconv.Itoa(s.seq+1)
	if err := s.bind(name, e); err != nil {
		return err
	}
	s.seq++
	fmt.Fprintf(s.out, "%s = %s\n", name, e)
	return nil
}

// bind roots e under name, unrooting any value the name held.
func (s *session) bind(name string, e script.Expr) error {
	if err := s.gc.Root(e); err != nil {
		return err
	}
	if old, ok := s.names[name]; ok {
		if err := s.gc.Unroot(old); err != nil {
			return err
		}
	}
	s.names[name] = e
	return nil
}

func truth(b bool) string {
	if b {
		return "T"
	}
	return "F"
}
