// Copyright 2026 The Nothing Authors. All rights reserved.
// Use of this source code is governed by a BSD
// license that can be found in the LICENSE file.

package script

import (
	"errors"
	"sync"
	"testing"
)

func mustIntern(t *testing.T, gc *Gc, name string) Expr {
	t.Helper()
	e, err := gc.Intern(name)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func mustCons(t *testing.T, gc *Gc, car, cdr Expr) Expr {
	t.Helper()
	e, err := gc.Cons(car, cdr)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func mustRead(t *testing.T, gc *Gc, text string) Expr {
	t.Helper()
	e, err := gc.ReadString(text)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestCons(t *testing.T) {
	gc := NewGc()
	a := mustIntern(t, gc, "a")
	b := mustIntern(t, gc, "b")
	c := mustCons(t, gc, a, b)
	if str := c.SExprString(); str != "(a . b)" {
		t.Errorf("cons(a, b) = %s", str)
	}
	c = mustCons(t, gc, c, mustIntern(t, gc, "c"))
	if str := c.SExprString(); str != "((a . b) . c)" {
		t.Errorf("cons((a . b), c) = %s", str)
	}
	car, err := Car(c)
	if err != nil {
		t.Fatal(err)
	}
	if car.String() != "(a . b)" {
		t.Errorf("car = %s", car)
	}
}

func TestCarOfAtom(t *testing.T) {
	gc := NewGc()
	for _, e := range []Expr{Nil, mustIntern(t, gc, "a"), Int(1), Str("s")} {
		if _, err := Car(e); !errors.Is(err, ErrInvalidOperand) {
			t.Errorf("car of %s: %v", e, err)
		}
		if _, err := Cdr(e); !errors.Is(err, ErrInvalidOperand) {
			t.Errorf("cdr of %s: %v", e, err)
		}
		if err := SetCdr(e, Nil); !errors.Is(err, ErrInvalidOperand) {
			t.Errorf("set cdr of %s: %v", e, err)
		}
	}
	if _, err := Name(Int(3)); !errors.Is(err, ErrInvalidOperand) {
		t.Errorf("name of number: %v", err)
	}
}

func TestIntern(t *testing.T) {
	gc := NewGc()
	a1 := mustIntern(t, gc, "player")
	a2 := mustIntern(t, gc, "player")
	if a1.h != a2.h || !Eq(a1, a2) || !Equal(a1, a2) {
		t.Fatal("interning twice gave different symbols")
	}
	if gc.Live() != 1 {
		t.Fatalf("live %d after interning one name", gc.Live())
	}
	other := NewGc()
	b := mustIntern(t, other, "player")
	if b.h == a1.h {
		t.Fatal("symbols of different gcs share a record")
	}
	if !Eq(a1, b) || !Equal(a1, b) {
		t.Fatal("same name in different gcs is not equal")
	}
}

func TestCollectChain(t *testing.T) {
	gc := NewGc()
	keep := mustRead(t, gc, "(level (width . 10))")
	if err := gc.Root(keep); err != nil {
		t.Fatal(err)
	}
	before := gc.Live()
	chain := Nil
	for i := 0; i < 100; i++ {
		chain = mustCons(t, gc, Int(int64(i)), chain)
	}
	if gc.Live() != before+100 {
		t.Fatalf("live %d, expected %d", gc.Live(), before+100)
	}
	st := gc.Collect()
	if st.Live != before || gc.Live() != before {
		t.Fatalf("after collect live %d, expected %d", gc.Live(), before)
	}
	if st.LastFreed != 100 {
		t.Fatalf("freed %d, expected 100", st.LastFreed)
	}
	if keep.String() != "(level (width . 10))" {
		t.Fatalf("rooted value damaged: %s", keep)
	}
	if _, err := Car(chain); !errors.Is(err, ErrInvalidOperand) {
		t.Fatalf("car of freed cons: %v", err)
	}
}

func TestCollectCycle(t *testing.T) {
	gc := NewGc()
	before := gc.Live()
	a := mustIntern(t, gc, "a")
	c := mustCons(t, gc, a, Nil)
	d := mustCons(t, gc, Int(1), c)
	if err := SetCdr(c, d); err != nil {
		t.Fatal(err)
	}
	if err := gc.Root(c); err != nil {
		t.Fatal(err)
	}
	st := gc.Collect()
	if st.LastFreed != 0 || st.Marked != 3 {
		t.Fatalf("rooted cycle: %+v", st)
	}
	if err := gc.Unroot(c); err != nil {
		t.Fatal(err)
	}
	st = gc.Collect()
	if st.LastFreed != 3 || gc.Live() != before {
		t.Fatalf("unrooted cycle: %+v", st)
	}
}

func TestRootCounts(t *testing.T) {
	gc := NewGc()
	e := mustRead(t, gc, "(a b)")
	for i := 0; i < 2; i++ {
		if err := gc.Root(e); err != nil {
			t.Fatal(err)
		}
	}
	if err := gc.Unroot(e); err != nil {
		t.Fatal(err)
	}
	if gc.Collect().LastFreed != 0 {
		t.Fatal("value rooted twice and unrooted once was freed")
	}
	if err := gc.Unroot(e); err != nil {
		t.Fatal(err)
	}
	if err := gc.Unroot(e); !errors.Is(err, ErrInvalidOperand) {
		t.Fatalf("unroot of non-root: %v", err)
	}
	if gc.Collect().Live != 0 {
		t.Fatal("unrooted value survived")
	}
	if err := gc.Root(Int(4)); err != nil {
		t.Fatalf("root of scalar: %v", err)
	}
}

func TestSymbolsCollected(t *testing.T) {
	gc := NewGc()
	old := mustIntern(t, gc, "ghost")
	gc.Collect()
	if _, err := Name(old); !errors.Is(err, ErrInvalidOperand) {
		t.Fatalf("name of collected symbol: %v", err)
	}
	fresh := mustIntern(t, gc, "ghost")
	if fresh.h.idx != old.h.idx || fresh.h.gen == old.h.gen {
		t.Fatalf("slot not reused with new generation: old %+v fresh %+v", old.h, fresh.h)
	}
	if Eq(old, fresh) {
		t.Fatal("stale symbol is identical to its successor")
	}
	if _, err := gc.Cons(old, Nil); !errors.Is(err, ErrInvalidOperand) {
		t.Fatalf("cons of stale symbol: %v", err)
	}
}

func TestOutOfMemory(t *testing.T) {
	gc := NewGc(WithLimit(3))
	a := mustIntern(t, gc, "a")
	mustCons(t, gc, a, Nil)
	mustCons(t, gc, a, Nil)
	before := gc.Stats()
	if _, err := gc.Cons(a, Nil); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("cons past limit: %v", err)
	}
	if _, err := gc.Intern("b"); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("intern past limit: %v", err)
	}
	if after := gc.Stats(); after != before {
		t.Fatalf("failed allocation changed gc: %+v -> %+v", before, after)
	}
	// Interning an existing name needs no room.
	if _, err := gc.Intern("a"); err != nil {
		t.Fatal(err)
	}
	// The caller may collect and retry.
	if err := gc.Root(a); err != nil {
		t.Fatal(err)
	}
	gc.Collect()
	if _, err := gc.Cons(a, Nil); err != nil {
		t.Fatalf("cons after collect: %v", err)
	}
}

func TestForeignGc(t *testing.T) {
	g1, g2 := NewGc(), NewGc()
	a := mustIntern(t, g1, "a")
	if _, err := g2.Cons(a, Nil); !errors.Is(err, ErrInvalidOperand) {
		t.Fatalf("cons of foreign symbol: %v", err)
	}
	if err := g2.Root(a); !errors.Is(err, ErrInvalidOperand) {
		t.Fatalf("root of foreign symbol: %v", err)
	}
	c := mustCons(t, g2, Int(1), Nil)
	if err := SetCar(c, a); !errors.Is(err, ErrInvalidOperand) {
		t.Fatalf("set car to foreign symbol: %v", err)
	}
}

func TestDestroy(t *testing.T) {
	gc := NewGc()
	e := mustRead(t, gc, "(a b c)")
	if err := gc.Root(e); err != nil {
		t.Fatal(err)
	}
	gc.Destroy()
	if gc.Live() != 0 {
		t.Fatalf("live %d after destroy", gc.Live())
	}
	if _, err := Car(e); !errors.Is(err, ErrInvalidOperand) {
		t.Fatalf("car after destroy: %v", err)
	}
	if _, err := gc.Intern("a"); !errors.Is(err, ErrInvalidOperand) {
		t.Fatalf("intern after destroy: %v", err)
	}
	if _, err := List(gc, Int(1)); !errors.Is(err, ErrInvalidOperand) {
		t.Fatalf("list after destroy: %v", err)
	}
	gc.Destroy()
}

func TestSlots(t *testing.T) {
	gc := NewGc()
	a := mustIntern(t, gc, "a")
	c := mustCons(t, gc, a, Nil)
	mustCons(t, gc, a, c)
	if err := gc.Root(c); err != nil {
		t.Fatal(err)
	}
	gc.Collect()
	want := []Slot{{KindSymbol, false}, {KindCons, true}, {KindNil, false}}
	got := gc.Slots()
	if len(got) != len(want) {
		t.Fatalf("slots %v, expected %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot %d = %+v, expected %+v", i, got[i], want[i])
		}
	}
}

func TestConcurrentMutators(t *testing.T) {
	gc := NewGc()
	root := mustRead(t, gc, "(root)")
	if err := gc.Root(root); err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if _, err := gc.Cons(Int(int64(i)), Nil); err != nil {
					t.Error(err)
					return
				}
				if i%50 == 0 {
					gc.Collect()
				}
			}
		}()
	}
	wg.Wait()
	gc.Collect()
	if root.String() != "(root)" {
		t.Fatalf("root damaged: %s", root)
	}
	if gc.Live() != 2 {
		t.Fatalf("live %d, expected 2", gc.Live())
	}
}
