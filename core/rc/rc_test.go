// SPDX-FileCopyrightText: Copyright (C) 2024  The loki-network authors
// SPDX-License-Identifier: AGPL-3.0-only

package rc

import (
	"net/netip"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tewinget/loki-network/core/bencode"
	"github.com/tewinget/loki-network/core/crypto"
	"github.com/tewinget/loki-network/core/nettime"
)

func newProvider(t *testing.T) crypto.Crypto {
	c, err := crypto.NewProvider()
	require.NoError(t, err)
	return c
}

// newTestRC builds a plausible unsigned descriptor with one publicly
// routable address.
func newTestRC(t *testing.T, c crypto.Crypto) (*RouterContact, *crypto.SecretKey) {
	ident, err := c.IdentityKeygen()
	require.NoError(t, err)
	enc, err := c.EncryptionKeygen()
	require.NoError(t, err)

	link, err := c.EncryptionKeygen()
	require.NoError(t, err)

	rc := &RouterContact{
		Addrs: []AddressInfo{
			{
				Rank:    1,
				Dialect: "iwp",
				LinkKey: link.PublicKey(),
				IP:      netip.MustParseAddr("1.2.3.4"),
				Port:    1090,
			},
		},
		NetID:         DefaultNetID(),
		EncKey:        enc.PublicKey(),
		RouterVersion: CurrentRouterVersion(),
	}
	return rc, ident
}

func TestRouterContactSignVerify(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	c := newProvider(t)

	rc, ident := newTestRC(t, c)
	assert.True(rc.Signature.IsZero())
	require.NoError(t, rc.Sign(c, ident))

	assert.False(rc.Signature.IsZero())
	assert.Equal(uint64(CurrentVersion), rc.Version)
	assert.Equal(ident.PublicKey(), rc.PubKey)
	assert.True(rc.VerifySignature(c))

	netID := DefaultNetID()
	assert.NoError(rc.Verify(c, &netID, rc.LastUpdated, false))
}

func TestRouterContactTamperedNickname(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	c := newProvider(t)

	rc, ident := newTestRC(t, c)
	rc.SetNick("fluffy")
	require.NoError(t, rc.Sign(c, ident))
	assert.True(rc.VerifySignature(c))

	b, err := rc.EncodeBytes()
	require.NoError(t, err)

	var decoded RouterContact
	require.NoError(t, decoded.DecodeBytes(b))
	assert.True(decoded.VerifySignature(c))

	// Mutating a signed field without re-signing must invalidate the
	// descriptor on the wire.
	rc.Nickname[0] ^= 0x01
	tampered, err := rc.EncodeBytes()
	require.NoError(t, err)
	var decoded2 RouterContact
	require.NoError(t, decoded2.DecodeBytes(tampered))
	// The retained signed section is unchanged, so only a fresh
	// encoding exposes the tamper.
	assert.Equal("fluffy", decoded2.Nick())

	rc.signedSection = nil
	tampered, err = rc.EncodeBytes()
	require.NoError(t, err)
	var decoded3 RouterContact
	require.NoError(t, decoded3.DecodeBytes(tampered))
	assert.False(decoded3.VerifySignature(c))
}

func TestRouterContactRoundtrip(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	c := newProvider(t)

	rc, ident := newTestRC(t, c)
	rc.SetNick("roundtrip")
	require.NoError(t, rc.Sign(c, ident))

	b, err := rc.EncodeBytes()
	require.NoError(t, err)
	assert.LessOrEqual(len(b), MaxSize)
	assert.Equal(byte('l'), b[0])

	var decoded RouterContact
	require.NoError(t, decoded.DecodeBytes(b))
	assert.True(rc.Equal(&decoded))
	assert.Equal(rc.SignedSection(), decoded.SignedSection())
	assert.True(decoded.VerifySignature(c))
	assert.NotNil(decoded.RouterVersion)
	assert.Equal(rc.RouterVersion.String(), decoded.RouterVersion.String())

	// Re-encoding a decoded descriptor is byte stable.
	b2, err := decoded.EncodeBytes()
	require.NoError(t, err)
	assert.Equal(b, b2)
}

// signVersion0 signs a legacy descriptor in place: the signature
// covers the bare dictionary with a zeroed "z" entry.
func signVersion0(t *testing.T, c crypto.Crypto, rc *RouterContact, sk *crypto.SecretKey) {
	rc.Version = 0
	rc.PubKey = sk.PublicKey()
	rc.Signature.Zero()
	rc.LastUpdated = nettime.Now()

	var tmp [MaxSize]byte
	e := bencode.NewEncoder(tmp[:])
	require.NoError(t, rc.bencodeSignedSection(e))
	sig, err := c.Sign(sk, e.Bytes())
	require.NoError(t, err)
	rc.Signature = *sig
}

func TestRouterContactVersion0(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	c := newProvider(t)

	rc, ident := newTestRC(t, c)
	rc.RouterVersion = nil
	signVersion0(t, c, rc, ident)

	b, err := rc.EncodeBytes()
	require.NoError(t, err)
	assert.Equal(byte('d'), b[0])

	var decoded RouterContact
	require.NoError(t, decoded.DecodeBytes(b))
	assert.Equal(uint64(0), decoded.Version)
	assert.True(rc.Equal(&decoded))
	assert.True(decoded.VerifySignature(c))

	netID := DefaultNetID()
	assert.NoError(decoded.Verify(c, &netID, decoded.LastUpdated, false))

	// Corrupting any signed field breaks legacy verification too.
	decoded.LastUpdated++
	assert.False(decoded.VerifySignature(c))
}

func TestRouterContactNetIDMismatch(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	c := newProvider(t)

	rc, ident := newTestRC(t, c)
	require.NoError(t, rc.Sign(c, ident))

	other, err := NetIDFromString("gamma")
	require.NoError(t, err)
	assert.ErrorIs(rc.Verify(c, &other, rc.LastUpdated, false), ErrNetIDMismatch)
}

func TestRouterContactExpiry(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	c := newProvider(t)

	rc, ident := newTestRC(t, c)
	require.NoError(t, rc.Sign(c, ident))
	t0 := rc.LastUpdated

	assert.False(rc.IsExpired(t0))
	assert.False(rc.IsExpired(t0 + Lifetime - time.Millisecond))
	assert.True(rc.IsExpired(t0 + Lifetime))
	assert.True(rc.IsExpired(t0 + Lifetime + time.Hour))

	assert.Equal(Lifetime, rc.TimeUntilExpires(t0))
	assert.Equal(time.Duration(0), rc.TimeUntilExpires(t0+Lifetime))
	assert.Equal(time.Duration(0), rc.TimeUntilExpires(t0+2*Lifetime))

	assert.False(rc.ExpiresSoon(t0, DefaultExpiresSoonDelta))
	assert.True(rc.ExpiresSoon(t0+Lifetime-time.Second, DefaultExpiresSoonDelta))
	assert.True(rc.ExpiresSoon(t0+Lifetime, DefaultExpiresSoonDelta))

	netID := DefaultNetID()
	assert.ErrorIs(rc.Verify(c, &netID, t0+Lifetime, false), ErrExpired)
	// Expired descriptors are still accepted when the caller opts in,
	// as during bootstrap from a stale but trusted snapshot.
	assert.NoError(rc.Verify(c, &netID, t0+Lifetime, true))
}

func TestRouterContactBogonAddress(t *testing.T) {
	// Mutates the package-wide bogon policy; not parallel.
	assert := assert.New(t)
	c := newProvider(t)

	rc, ident := newTestRC(t, c)
	rc.Addrs[0].IP = netip.MustParseAddr("127.0.0.1")
	require.NoError(t, rc.Sign(c, ident))

	netID := DefaultNetID()
	assert.ErrorIs(rc.Verify(c, &netID, rc.LastUpdated, false), ErrBogonAddress)

	defer func(v bool) { BlockBogons = v }(BlockBogons)
	BlockBogons = false
	assert.NoError(rc.Verify(c, &netID, rc.LastUpdated, false))
}

func TestRouterContactOtherIsNewer(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	older := &RouterContact{LastUpdated: nettime.FromMilliseconds(1000)}
	newer := &RouterContact{LastUpdated: nettime.FromMilliseconds(2000)}

	assert.True(older.OtherIsNewer(newer))
	assert.False(newer.OtherIsNewer(older))
	assert.False(older.OtherIsNewer(older))
}

func TestRouterContactNickname(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	var rc RouterContact
	assert.False(rc.HasNick())
	assert.Equal("", rc.Nick())

	rc.SetNick("lokinet-router")
	assert.True(rc.HasNick())
	assert.Equal("lokinet-router", rc.Nick())

	long := "this nickname is far longer than the field can possibly hold"
	rc.SetNick(long)
	assert.Equal(long[:NicknameSize], rc.Nick())

	rc.SetNick("")
	assert.False(rc.HasNick())
}

func TestRouterContactFileRoundtrip(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	c := newProvider(t)

	rc, ident := newTestRC(t, c)
	path := filepath.Join(t.TempDir(), "self.signed")

	assert.ErrorIs(rc.Write(path), ErrUnsigned)

	require.NoError(t, rc.Sign(c, ident))
	require.NoError(t, rc.Write(path))

	var loaded RouterContact
	require.NoError(t, loaded.Read(path))
	assert.True(rc.Equal(&loaded))
	assert.True(loaded.VerifySignature(c))
}

func TestRouterContactUnknownVersionRejected(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	c := newProvider(t)

	rc, ident := newTestRC(t, c)
	require.NoError(t, rc.Sign(c, ident))

	var buf [MaxSize]byte
	e := bencode.NewEncoder(buf[:])
	require.NoError(t, e.BeginList())
	require.NoError(t, e.WriteUint64(2))
	require.NoError(t, e.WriteBytes(rc.Signature[:]))
	require.NoError(t, e.WriteRaw(rc.SignedSection()))
	require.NoError(t, e.End())

	var decoded RouterContact
	assert.ErrorIs(decoded.DecodeBytes(e.Bytes()), ErrUnknownVersion)
}

func TestRouterContactUnknownKeysIgnored(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	c := newProvider(t)

	ident, err := c.IdentityKeygen()
	require.NoError(t, err)
	pub := ident.PublicKey()

	// Hand-build a signed dictionary containing a key we do not
	// understand; the signature covers it, and decode must tolerate
	// it while keeping verification intact.
	var dict [MaxSize]byte
	de := bencode.NewEncoder(dict[:])
	require.NoError(t, de.BeginDict())
	require.NoError(t, de.WriteString("a"))
	require.NoError(t, de.BeginList())
	require.NoError(t, de.End())
	require.NoError(t, de.WriteString("i"))
	require.NoError(t, de.WriteString(DefaultNetIDString))
	require.NoError(t, de.WriteDictBytes("k", pub[:]))
	require.NoError(t, de.WriteDictBytes("p", make([]byte, crypto.PubKeySize)))
	require.NoError(t, de.WriteDictBytes("q", []byte("from the future")))
	require.NoError(t, de.WriteDictUint64("u", 12345))
	require.NoError(t, de.WriteDictUint64("v", CurrentVersion))
	require.NoError(t, de.WriteString("x"))
	require.NoError(t, de.BeginList())
	require.NoError(t, de.End())
	require.NoError(t, de.End())

	sig, err := c.Sign(ident, de.Bytes())
	require.NoError(t, err)

	var buf [MaxSize]byte
	e := bencode.NewEncoder(buf[:])
	require.NoError(t, e.BeginList())
	require.NoError(t, e.WriteUint64(CurrentVersion))
	require.NoError(t, e.WriteBytes(sig[:]))
	require.NoError(t, e.WriteRaw(de.Bytes()))
	require.NoError(t, e.End())

	var decoded RouterContact
	require.NoError(t, decoded.DecodeBytes(e.Bytes()))
	assert.Equal(pub, decoded.PubKey)
	assert.Equal(uint64(12345), nettime.Milliseconds(decoded.LastUpdated))
	assert.True(decoded.VerifySignature(c))
}

func TestRouterContactTooBig(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	var rc RouterContact
	assert.ErrorIs(rc.DecodeBytes(make([]byte, MaxSize+1)), ErrTooBig)
}

func TestRouterContactIsPublicRouter(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	c := newProvider(t)

	rc, _ := newTestRC(t, c)
	assert.True(rc.IsPublicRouter())

	noVersion := *rc
	noVersion.RouterVersion = nil
	assert.False(noVersion.IsPublicRouter())

	noAddrs := *rc
	noAddrs.Addrs = nil
	assert.False(noAddrs.IsPublicRouter())
}
