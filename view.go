// Copyright 2026 The Nothing Authors. All rights reserved.
// Use of this source code is governed by a BSD
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"time"

	"github.com/xyproto/vt"
	"github.com/zhouong/nothing/script"
)

const defaultHold = 5 * time.Second

// showHeap draws the heap map on the terminal and leaves it up for hold.
func showHeap(gc *script.Gc, hold time.Duration) error {
	tty, err := vt.NewTTY()
	if err != nil {
		return fmt.Errorf("heap view: %w", err)
	}
	defer tty.Close()

	vt.Init()
	defer func() {
		vt.Close()
		fmt.Print(vt.Stop())
		fmt.Println()
	}()

	c := vt.NewCanvas()
	c.HideCursor()
	drawHeap(c, gc.Slots(), gc.Stats())
	time.Sleep(hold)
	return nil
}

// drawHeap draws one cell per pool slot, row by row, with a status line
// at the bottom. Slots that do not fit are counted in the status line.
func drawHeap(c *vt.Canvas, slots []script.Slot, stats script.Stats) {
	c.Clear()
	w, h := c.Size()
	if w == 0 || h == 0 {
		c.Draw()
		return
	}
	rows := h - 1
	shown := 0
	for i, slot := range slots {
		x, y := uint(i)%w, uint(i)/w
		if y >= rows {
			break
		}
		r, fg := slotStyle(slot)
		c.WriteRune(x, y, fg, vt.DefaultBackground, r)
		shown++
	}
	status := stats.String()
	if hidden := len(slots) - shown; hidden > 0 {
		status += fmt.Sprintf(" (%d slots not shown)", hidden)
	}
	if len(status) > int(w) {
		status = status[:w]
	}
	c.WriteString(0, h-1, vt.LightGray, vt.DefaultBackground, status)
	c.Draw()
}

// slotStyle returns the rune and colour for a slot: free slots are dots,
// conses C and symbols S, rooted records are highlighted.
func slotStyle(slot script.Slot) (rune, vt.AttributeColor) {
	switch slot.Kind {
	case script.KindCons:
		if slot.Rooted {
			return 'C', vt.LightGreen
		}
		return 'c', vt.Green
	case script.KindSymbol:
		if slot.Rooted {
			return 'S', vt.Yellow
		}
		return 's', vt.Cyan
	}
	return '.', vt.LightGray
}
