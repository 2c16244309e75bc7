// Copyright 2020 Rob Pike. All rights reserved.
// Use of this source code is governed by a BSD
// license that can be found in the LICENSE file.

// Nothing-script is an interactive shell over the scripting runtime of the
// nothing game engine. It reads data into a garbage-collected heap, keeps
// named values rooted, and lets the user query them with the builtins and
// run the collector by hand.
//
// Each file named on the command line is read first; every expression in
// it is bound to the next $n name and rooted, as if typed at the prompt.
// Then, unless -view is set, it reads commands from the terminal:
//
//	datum              read, bind to $n, root and print
//	:def name datum    bind datum to name and root it
//	:drop name         unbind name and unroot its value
//	:assoc key alist   look key up in alist
//	:equal a b         structural equality
//	:list a b ...      build a list of the values
//	:gc                run a collection
//	:stats             print heap statistics
//	:names             list bound names
//	:quit              exit
//
// Wherever a datum is expected, a bound name stands for its value.
//
// With -view the heap map is drawn on the terminal for -hold and the
// program exits.
package main // import "github.com/zhouong/nothing"

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/npillmayer/schuko/tracing"
	"github.com/peterh/liner"
	"github.com/zhouong/nothing/script"
)

var (
	prompt  = flag.String("prompt", "> ", "interactive prompt")
	limit   = flag.Int("limit", 0, "maximum live heap records; 0 means no limit")
	trace   = flag.String("trace", "Error", "trace level: Error, Info or Debug")
	view    = flag.Bool("view", false, "draw the heap map after loading files, then exit")
	hold    = flag.Duration("hold", defaultHold, "how long -view keeps the map on screen")
	history = flag.String("history", "", "history file for interactive input")
)

func main() {
	flag.Parse()
	tracing.Select(script.TraceKey).SetTraceLevel(tracing.TraceLevelFromString(*trace))
	s := newSession(script.NewGc(script.WithLimit(*limit), script.WithName("heap")), os.Stdout)
	defer s.gc.Destroy()
	for _, file := range flag.Args() {
		if err := load(s, file); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *view {
		if err := showHeap(s.gc, *hold); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	interactive(s)
}

// load reads the named data file into the session.
func load(s *session, file string) error {
	fd, err := os.Open(file)
	if err != nil {
		return err
	}
	defer fd.Close()
	rd := s.gc.Read(bufio.NewReader(fd))
	for {
		e, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		if err := s.bindNext(e); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
	}
}

// interactive runs the command loop to EOF or :quit.
func interactive(s *session) {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if *history != "" {
		if f, err := os.Open(*history); err == nil {
			_, _ = ln.ReadHistory(f)
			f.Close()
		}
		defer func() {
			if f, err := os.Create(*history); err == nil {
				_, _ = ln.WriteHistory(f)
				f.Close()
			}
		}()
	}
	for {
		line, err := ln.Prompt(*prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Println()
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		if err := s.exec(line); err != nil {
			if errors.Is(err, errQuit) {
				return
			}
			fmt.Fprintln(os.Stderr, err)
		}
	}
}
