// SPDX-FileCopyrightText: Copyright (C) 2024  The loki-network authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package nettime provides the network time representation used by
// signed structures: a millisecond-precision offset from the UNIX
// epoch, carried as a time.Duration so that timestamps and intervals
// share one arithmetic.  Verification and expiry checks never read a
// clock themselves; the caller supplies "now", normally from this
// package on the node that owns the clock.
package nettime

import "time"

// Now returns the current network time at millisecond precision.
func Now() time.Duration {
	return time.Duration(time.Now().UnixMilli()) * time.Millisecond
}

// FromMilliseconds converts a wire-format millisecond count to a
// network time.
func FromMilliseconds(ms uint64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// Milliseconds converts a network time to its wire-format millisecond
// count.
func Milliseconds(t time.Duration) uint64 {
	return uint64(t / time.Millisecond)
}
