// SPDX-FileCopyrightText: Copyright (C) 2024  The loki-network authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package version carries the router software version and the overlay
// protocol version.
package version

import "fmt"

const (
	Major = 0
	Minor = 9
	Patch = 1

	// Protocol is the overlay wire protocol version advertised in
	// router descriptors.
	Protocol = 0
)

// GitRev is the git revision the binary was built from, injected at
// build time via -ldflags.
var GitRev = ""

// String returns the full human readable version.
func String() string {
	if GitRev == "" {
		return fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
	}
	return fmt.Sprintf("%d.%d.%d-%s", Major, Minor, Patch, GitRev)
}
