// SPDX-FileCopyrightText: Copyright (C) 2024  The loki-network authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package netutil implements address policy checks for advertised
// reachability: an address in a private, reserved, or otherwise
// non-routable ("bogon") range must never appear in a public router
// descriptor.
package netutil

import "net/netip"

var bogonRanges = []netip.Prefix{
	// v4
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.0.2.0/24"),
	netip.MustParsePrefix("192.88.99.0/24"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("198.51.100.0/24"),
	netip.MustParsePrefix("203.0.113.0/24"),
	netip.MustParsePrefix("224.0.0.0/4"),
	netip.MustParsePrefix("240.0.0.0/4"),
	// v6
	netip.MustParsePrefix("::/128"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
	netip.MustParsePrefix("ff00::/8"),
}

// IsBogon returns true if addr falls in a non-routable range.  IPv4
// mapped IPv6 addresses are checked as their IPv4 form.
func IsBogon(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range bogonRanges {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// IsBogonString parses s as an IP address and applies IsBogon.
// Unparseable addresses are treated as bogons.
func IsBogonString(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return true
	}
	return IsBogon(addr)
}
