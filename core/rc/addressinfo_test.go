// SPDX-FileCopyrightText: Copyright (C) 2024  The loki-network authors
// SPDX-License-Identifier: AGPL-3.0-only

package rc

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tewinget/loki-network/core/bencode"
	"github.com/tewinget/loki-network/core/crypto"
)

func testAddressInfo() AddressInfo {
	var link crypto.PubKey
	for i := range link {
		link[i] = byte(i)
	}
	return AddressInfo{
		Rank:    10,
		Dialect: "iwp",
		LinkKey: link,
		IP:      netip.MustParseAddr("10.1.2.3"),
		Port:    1090,
		Version: 1,
	}
}

func TestAddressInfoRoundtrip(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	for _, ip := range []string{"10.1.2.3", "2001:db8::1"} {
		ai := testAddressInfo()
		ai.IP = netip.MustParseAddr(ip)

		var buf [256]byte
		e := bencode.NewEncoder(buf[:])
		require.NoError(t, ai.BEncode(e))

		var decoded AddressInfo
		require.NoError(t, decoded.BDecode(bencode.NewDecoder(e.Bytes())))
		assert.True(ai.Equal(&decoded))
	}
}

func TestAddressInfoMalformed(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	// Port out of range.
	var decoded AddressInfo
	bad := bencode.NewDecoder([]byte("d1:ci10e1:d3:iwp1:pi70000ee"))
	assert.ErrorIs(decoded.BDecode(bad), ErrBadAddressInfo)

	// Unparseable address.
	bad = bencode.NewDecoder([]byte("d1:i9:not-an-ipe"))
	assert.ErrorIs(decoded.BDecode(bad), ErrBadAddressInfo)

	// Wrong sized link key.
	bad = bencode.NewDecoder([]byte("d1:e3:abce"))
	assert.ErrorIs(decoded.BDecode(bad), ErrBadAddressInfo)

	// Unknown keys are skipped.
	ok := bencode.NewDecoder([]byte("d1:ci1e1:zi99ee"))
	var partial AddressInfo
	require.NoError(t, partial.BDecode(ok))
	assert.Equal(uint16(1), partial.Rank)
}

func TestAddressInfoHostPort(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	ai := testAddressInfo()
	assert.Equal("10.1.2.3:1090", ai.HostPort())
	assert.Equal("10.1.2.3:1090", ai.String())

	ai.IP = netip.MustParseAddr("2001:db8::1")
	assert.Equal("[2001:db8::1]:1090", ai.HostPort())
}
