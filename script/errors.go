// Copyright 2020 Rob Pike. All rights reserved.
// Use of this source code is governed by a BSD
// license that can be found in the LICENSE file.

package script

import (
	"errors"
	"fmt"
)

// Conditions reported by the runtime. Operations wrap them with context,
// so callers should test with errors.Is.
var (
	// ErrOutOfMemory is returned when a Gc cannot allocate another record.
	ErrOutOfMemory = errors.New("out of memory")
	// ErrInvalidOperand is returned when a value has the wrong kind for
	// an operation, is stale, or belongs to another Gc.
	ErrInvalidOperand = errors.New("invalid operand")
	// ErrMalformedList is returned when a list walk meets a non-pair
	// element, a non-nil terminator or a cycle.
	ErrMalformedList = errors.New("malformed list")
	// ErrSyntax is returned by the reader.
	ErrSyntax = errors.New("syntax error")
)

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperand, fmt.Sprintf(format, args...))
}

func malformedf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedList, fmt.Sprintf(format, args...))
}

// syntaxError is raised by panic inside the reader and turned into an
// error wrapping ErrSyntax at the reader's exported entry points.
type syntaxError string

func (e syntaxError) Error() string { return string(e) }

func errorf(format string, args ...interface{}) {
	panic(syntaxError(fmt.Sprintf(format, args...)))
}
