// SPDX-FileCopyrightText: Copyright (C) 2024  The loki-network authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package rc implements the Router Contact: the signed, versioned
// descriptor a network participant publishes describing its identity
// keys, reachable addresses, and capabilities.
//
// An RC is either unsigned (freshly constructed) or signed; mutating
// any signed field without re-signing makes it invalid on the next
// verify.  Decoding retains the exact signed-section bytes so that
// verification operates on precisely what was signed, never on a
// re-serialization.
package rc

import (
	"errors"
	"os"
	"time"

	"gopkg.in/op/go-logging.v1"

	"github.com/tewinget/loki-network/core/bencode"
	"github.com/tewinget/loki-network/core/crypto"
	"github.com/tewinget/loki-network/core/nettime"
	"github.com/tewinget/loki-network/core/netutil"
)

const (
	// MaxSize is the hard bound on an encoded RC.  Producers must stay
	// under it and consumers enforce it as a decode limit.
	MaxSize = 1024

	// NicknameSize is the fixed size of the display name field.
	NicknameSize = 32

	// CurrentVersion is the only descriptor format version ever
	// produced.  Version 0 remains decodable for backward
	// compatibility.
	CurrentVersion = 1
)

var (
	// BlockBogons rejects descriptors advertising non-routable
	// addresses at verification time.  Disabled on test networks.
	BlockBogons = true

	// Lifetime is how long a descriptor stays valid after its
	// lastUpdated stamp.
	Lifetime = 24 * time.Hour

	// StaleInsertionAge is the age past which a descriptor is too
	// stale to insert into the routing table.
	StaleInsertionAge = 4 * time.Hour

	// UpdateInterval is how often a router re-signs and republishes,
	// comfortably before its previous descriptor goes stale.
	UpdateInterval = StaleInsertionAge - 5*time.Minute

	// DefaultExpiresSoonDelta is the lookahead used by ExpiresSoon
	// when the caller has no specific deadline.
	DefaultExpiresSoonDelta = time.Minute
)

var (
	ErrTooBig           = errors.New("rc: encoding exceeds maximum size")
	ErrUnknownVersion   = errors.New("rc: unknown descriptor format version")
	ErrNetIDMismatch    = errors.New("rc: netid mismatch")
	ErrExpired          = errors.New("rc: descriptor is expired")
	ErrBogonAddress     = errors.New("rc: descriptor advertises a bogon address")
	ErrInvalidSignature = errors.New("rc: invalid signature")
	ErrUnsigned         = errors.New("rc: descriptor is not signed")
)

var log = logging.MustGetLogger("rc")

// RouterContact is a router descriptor.
type RouterContact struct {
	// Addrs are the advertised reachable endpoints, in canonical
	// order.
	Addrs []AddressInfo

	// NetID identifies the network this descriptor belongs to.
	NetID NetID

	// EncKey is the long-term public encryption key.
	EncKey crypto.PubKey

	// PubKey is the public signing key; the identity under which the
	// descriptor is signed.
	PubKey crypto.PubKey

	// Signature covers the canonical encoding of every other field.
	Signature crypto.Signature

	// Nickname is the optional NUL padded display name.
	Nickname [NicknameSize]byte

	// LastUpdated is the network time at which the descriptor was
	// signed.
	LastUpdated time.Duration

	// Version is the descriptor format version.
	Version uint64

	// RouterVersion is the advertised software version; only present
	// in format version 1.
	RouterVersion *RouterVersion

	// signedSection holds the exact bytes the signature covers,
	// retained from Sign or decode so verification never depends on
	// re-encoding.
	signedSection []byte
}

// Clear resets the descriptor to an empty unsigned state.
func (rc *RouterContact) Clear() {
	*rc = RouterContact{Version: CurrentVersion}
}

// SignedSection returns the exact bytes covered by the signature, or
// nil if the descriptor has never been signed or decoded.
func (rc *RouterContact) SignedSection() []byte {
	return rc.signedSection
}

// bencodeSignedSection writes the canonical signed dictionary: every
// field except the signature, keys in lexicographic order.  Format
// version 0 additionally carried the signature inside the dictionary
// under "z"; it is zeroed during signing.
func (rc *RouterContact) bencodeSignedSection(e *bencode.Encoder) error {
	if err := e.BeginDict(); err != nil {
		return err
	}

	if err := e.WriteString("a"); err != nil {
		return err
	}
	if err := e.BeginList(); err != nil {
		return err
	}
	for i := range rc.Addrs {
		if err := rc.Addrs[i].BEncode(e); err != nil {
			return err
		}
	}
	if err := e.End(); err != nil {
		return err
	}

	if err := e.WriteString("i"); err != nil {
		return err
	}
	if err := rc.NetID.BEncode(e); err != nil {
		return err
	}

	if err := e.WriteDictBytes("k", rc.PubKey[:]); err != nil {
		return err
	}

	if nick := rc.Nick(); nick != "" {
		if err := e.WriteString("n"); err != nil {
			return err
		}
		if err := e.WriteString(nick); err != nil {
			return err
		}
	}

	if err := e.WriteDictBytes("p", rc.EncKey[:]); err != nil {
		return err
	}

	if rc.RouterVersion != nil {
		if err := e.WriteString("r"); err != nil {
			return err
		}
		if err := rc.RouterVersion.BEncode(e); err != nil {
			return err
		}
	}

	if err := e.WriteDictUint64("u", nettime.Milliseconds(rc.LastUpdated)); err != nil {
		return err
	}

	if err := e.WriteDictUint64("v", rc.Version); err != nil {
		return err
	}

	// Exit advertisement slot, kept empty for wire compatibility.
	if err := e.WriteString("x"); err != nil {
		return err
	}
	if err := e.BeginList(); err != nil {
		return err
	}
	if err := e.End(); err != nil {
		return err
	}

	if rc.Version == 0 {
		if err := e.WriteDictBytes("z", rc.Signature[:]); err != nil {
			return err
		}
	}

	return e.End()
}

// BEncode writes the full wire encoding for the descriptor's format
// version: version 1 is a list of the version tag, the detached
// signature, and the signed dictionary; version 0 is the bare signed
// dictionary.
func (rc *RouterContact) BEncode(e *bencode.Encoder) error {
	switch rc.Version {
	case 0:
		return rc.bencodeSignedSection(e)
	case CurrentVersion:
		if err := e.BeginList(); err != nil {
			return err
		}
		if err := e.WriteUint64(rc.Version); err != nil {
			return err
		}
		if err := e.WriteBytes(rc.Signature[:]); err != nil {
			return err
		}
		sect := rc.signedSection
		if len(sect) == 0 {
			var tmp [MaxSize]byte
			se := bencode.NewEncoder(tmp[:])
			if err := rc.bencodeSignedSection(se); err != nil {
				return err
			}
			sect = se.Bytes()
		}
		if err := e.WriteRaw(sect); err != nil {
			return err
		}
		return e.End()
	default:
		return ErrUnknownVersion
	}
}

// EncodeBytes returns the wire encoding, enforcing the size bound.
func (rc *RouterContact) EncodeBytes() ([]byte, error) {
	var tmp [MaxSize]byte
	e := bencode.NewEncoder(tmp[:])
	if err := rc.BEncode(e); err != nil {
		if err == bencode.ErrBufferFull {
			return nil, ErrTooBig
		}
		return nil, err
	}
	out := make([]byte, e.Len())
	copy(out, e.Bytes())
	return out, nil
}

// DecodeBytes decodes a descriptor from its wire encoding, enforcing
// the size bound.  Decoding does not imply trust; the caller must
// Verify before using any field.
func (rc *RouterContact) DecodeBytes(b []byte) error {
	if len(b) > MaxSize {
		return ErrTooBig
	}
	return rc.BDecode(bencode.NewDecoder(b))
}

// BDecode decodes a descriptor, dispatching on the format version tag.
// Unknown future versions are rejected rather than guessed at.
func (rc *RouterContact) BDecode(d *bencode.Decoder) error {
	rc.Clear()

	c, err := d.Peek()
	if err != nil {
		return err
	}
	switch c {
	case 'd':
		return rc.decodeVersion0(d)
	case 'l':
		return rc.decodeVersioned(d)
	default:
		return bencode.ErrBadFraming
	}
}

func (rc *RouterContact) decodeVersion0(d *bencode.Decoder) error {
	raw, err := d.ReadRaw()
	if err != nil {
		return err
	}
	rc.signedSection = append([]byte(nil), raw...)
	return rc.decodeSignedSection(raw)
}

func (rc *RouterContact) decodeVersioned(d *bencode.Decoder) error {
	var (
		idx     int
		sigBuf  []byte
		rawDict []byte
	)
	err := d.ReadList(func(d *bencode.Decoder) error {
		defer func() { idx++ }()
		switch idx {
		case 0:
			outer, err := d.ReadUint64()
			if err != nil {
				return err
			}
			if outer != CurrentVersion {
				log.Warningf("received descriptor with unknown version %d", outer)
				return ErrUnknownVersion
			}
			return nil
		case 1:
			b, err := d.ReadBytes()
			if err != nil {
				return err
			}
			sigBuf = b
			return nil
		case 2:
			b, err := d.ReadRaw()
			if err != nil {
				return err
			}
			rawDict = b
			return nil
		default:
			// The list shape is fixed by the format.
			return bencode.ErrBadFraming
		}
	})
	if err != nil {
		return err
	}
	if idx != 3 {
		return bencode.ErrBadFraming
	}
	if err := rc.Signature.FromBytes(sigBuf); err != nil {
		log.Debugf("descriptor signature had invalid length %d", len(sigBuf))
		return err
	}
	rc.signedSection = append([]byte(nil), rawDict...)
	return rc.decodeSignedSection(rawDict)
}

// decodeSignedSection decodes the inner dictionary shared by both
// format versions.  Unknown keys are skipped for forward
// compatibility.
func (rc *RouterContact) decodeSignedSection(b []byte) error {
	d := bencode.NewDecoder(b)
	return d.ReadDict(func(key []byte, d *bencode.Decoder) error {
		switch string(key) {
		case "a":
			return d.ReadList(func(d *bencode.Decoder) error {
				var ai AddressInfo
				if err := ai.BDecode(d); err != nil {
					return err
				}
				rc.Addrs = append(rc.Addrs, ai)
				return nil
			})
		case "i":
			return rc.NetID.BDecode(d)
		case "k":
			v, err := d.ReadBytes()
			if err != nil {
				return err
			}
			return rc.PubKey.FromBytes(v)
		case "n":
			v, err := d.ReadBytes()
			if err != nil {
				return err
			}
			if len(v) > NicknameSize {
				return bencode.ErrBadFraming
			}
			rc.Nickname = [NicknameSize]byte{}
			copy(rc.Nickname[:], v)
			return nil
		case "p":
			v, err := d.ReadBytes()
			if err != nil {
				return err
			}
			return rc.EncKey.FromBytes(v)
		case "r":
			var rv RouterVersion
			if err := rv.BDecode(d); err != nil {
				return err
			}
			rc.RouterVersion = &rv
			return nil
		case "u":
			v, err := d.ReadUint64()
			if err != nil {
				return err
			}
			rc.LastUpdated = nettime.FromMilliseconds(v)
			return nil
		case "v":
			v, err := d.ReadUint64()
			if err != nil {
				return err
			}
			rc.Version = v
			return nil
		case "z":
			v, err := d.ReadBytes()
			if err != nil {
				return err
			}
			return rc.Signature.FromBytes(v)
		default:
			return d.Discard()
		}
	})
}

// Sign stamps, canonically encodes, and signs the descriptor with the
// given identity key.  Any previous signature is discarded and the
// descriptor is brought to the current format version.
func (rc *RouterContact) Sign(c crypto.Crypto, sk *crypto.SecretKey) error {
	rc.PubKey = sk.PublicKey()
	rc.Version = CurrentVersion
	rc.Signature.Zero()
	rc.LastUpdated = nettime.Now()

	var tmp [MaxSize]byte
	e := bencode.NewEncoder(tmp[:])
	if err := rc.bencodeSignedSection(e); err != nil {
		if err == bencode.ErrBufferFull {
			return ErrTooBig
		}
		return err
	}
	rc.signedSection = append([]byte(nil), e.Bytes()...)

	sig, err := c.Sign(sk, rc.signedSection)
	if err != nil {
		return err
	}
	rc.Signature = *sig
	return nil
}

// VerifySignature checks only the signature, using the retained signed
// bytes when available.
func (rc *RouterContact) VerifySignature(c crypto.Crypto) bool {
	switch rc.Version {
	case 0:
		// Version 0 signed over the dictionary with a zeroed "z"
		// entry; reconstruct it from the decoded fields.
		cp := *rc
		cp.Signature.Zero()
		var tmp [MaxSize]byte
		e := bencode.NewEncoder(tmp[:])
		if err := cp.bencodeSignedSection(e); err != nil {
			log.Debugf("re-encoding v0 descriptor failed: %v", err)
			return false
		}
		return c.Verify(&rc.PubKey, e.Bytes(), &rc.Signature)
	case CurrentVersion:
		sect := rc.signedSection
		if len(sect) == 0 {
			var tmp [MaxSize]byte
			e := bencode.NewEncoder(tmp[:])
			if err := rc.bencodeSignedSection(e); err != nil {
				return false
			}
			sect = e.Bytes()
		}
		return c.Verify(&rc.PubKey, sect, &rc.Signature)
	default:
		return false
	}
}

// Verify runs the full acceptance checks against the expected network:
// netID match, expiry (tolerated when allowExpired is set), address
// policy, and the signature.  Any failure rejects the whole
// descriptor.
func (rc *RouterContact) Verify(c crypto.Crypto, expected *NetID, now time.Duration, allowExpired bool) error {
	if !rc.NetID.Equal(expected) {
		log.Errorf("netid mismatch: '%s' (theirs) != '%s' (ours)", rc.NetID, expected)
		return ErrNetIDMismatch
	}
	if rc.IsExpired(now) {
		if !allowExpired {
			log.Errorf("descriptor for %s is expired", rc.PubKey)
			return ErrExpired
		}
		log.Warningf("accepting expired descriptor for %s", rc.PubKey)
	}
	if BlockBogons {
		for i := range rc.Addrs {
			if netutil.IsBogon(rc.Addrs[i].IP) {
				log.Errorf("invalid address info: %s", rc.Addrs[i])
				return ErrBogonAddress
			}
		}
	}
	if !rc.VerifySignature(c) {
		log.Errorf("invalid signature on descriptor for %s", rc.PubKey)
		return ErrInvalidSignature
	}
	return nil
}

// Age returns how old the descriptor is at the given network time.
func (rc *RouterContact) Age(now time.Duration) time.Duration {
	if now > rc.LastUpdated {
		return now - rc.LastUpdated
	}
	return 0
}

// IsExpired returns true once the descriptor has outlived Lifetime.
func (rc *RouterContact) IsExpired(now time.Duration) bool {
	return rc.Age(now) >= Lifetime
}

// TimeUntilExpires returns the remaining validity, or zero if already
// expired.
func (rc *RouterContact) TimeUntilExpires(now time.Duration) time.Duration {
	expiresAt := rc.LastUpdated + Lifetime
	if now < expiresAt {
		return expiresAt - now
	}
	return 0
}

// ExpiresSoon returns true if the descriptor expires within dlt of
// now.
func (rc *RouterContact) ExpiresSoon(now, dlt time.Duration) bool {
	return rc.TimeUntilExpires(now) <= dlt
}

// OtherIsNewer reports whether other supersedes this descriptor;
// callers reconciling duplicates keep the newer one.
func (rc *RouterContact) OtherIsNewer(other *RouterContact) bool {
	return rc.LastUpdated < other.LastUpdated
}

// Equal compares descriptor identity: addresses, keys, signature,
// nickname, timestamp, and netID.  Format metadata is excluded.
func (rc *RouterContact) Equal(other *RouterContact) bool {
	if len(rc.Addrs) != len(other.Addrs) {
		return false
	}
	for i := range rc.Addrs {
		if !rc.Addrs[i].Equal(&other.Addrs[i]) {
			return false
		}
	}
	return rc.EncKey == other.EncKey &&
		rc.PubKey == other.PubKey &&
		rc.Signature == other.Signature &&
		rc.Nickname == other.Nickname &&
		rc.LastUpdated == other.LastUpdated &&
		rc.NetID.Equal(&other.NetID)
}

// IsPublicRouter reports whether the descriptor advertises a publicly
// reachable router.
func (rc *RouterContact) IsPublicRouter() bool {
	return rc.RouterVersion != nil && len(rc.Addrs) > 0
}

// HasNick reports whether a display name is set.
func (rc *RouterContact) HasNick() bool {
	return rc.Nickname[0] != 0
}

// Nick returns the display name up to the first NUL.
func (rc *RouterContact) Nick() string {
	for i, b := range rc.Nickname {
		if b == 0 {
			return string(rc.Nickname[:i])
		}
	}
	return string(rc.Nickname[:])
}

// SetNick sets the display name, truncating to NicknameSize.
func (rc *RouterContact) SetNick(nick string) {
	rc.Nickname = [NicknameSize]byte{}
	copy(rc.Nickname[:], nick)
}

// Write persists the wire encoding to a file.  Unsigned descriptors
// are refused; persistence is for publishable state only.
func (rc *RouterContact) Write(path string) error {
	if rc.Signature.IsZero() {
		return ErrUnsigned
	}
	b, err := rc.EncodeBytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0600)
}

// Read loads and decodes a descriptor from a file.  The caller must
// still Verify it.
func (rc *RouterContact) Read(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(b) > MaxSize {
		return ErrTooBig
	}
	return rc.DecodeBytes(b)
}

func (rc RouterContact) String() string {
	nick := ""
	if rc.HasNick() {
		nick = " nick=" + rc.Nick()
	}
	s := "{" + rc.PubKey.String() + " netid=" + rc.NetID.String() + nick
	for _, a := range rc.Addrs {
		s += " " + a.String()
	}
	return s + "}"
}
