// Copyright 2026 The Nothing Authors. All rights reserved.
// Use of this source code is governed by a BSD
// license that can be found in the LICENSE file.

package script

import (
	"github.com/npillmayer/schuko/tracing"
)

// TraceKey selects the tracer used by this package.
const TraceKey = "nothing.script"

// tracer traces with key 'nothing.script'.
func tracer() tracing.Trace {
	return tracing.Select(TraceKey)
}
