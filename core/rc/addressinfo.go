// SPDX-FileCopyrightText: Copyright (C) 2024  The loki-network authors
// SPDX-License-Identifier: AGPL-3.0-only

package rc

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/tewinget/loki-network/core/bencode"
	"github.com/tewinget/loki-network/core/crypto"
)

// ErrBadAddressInfo is returned when a decoded address record is
// malformed.
var ErrBadAddressInfo = errors.New("rc: malformed address info")

// AddressInfo is one advertised reachable endpoint of a router,
// together with its transport metadata.
type AddressInfo struct {
	// Rank orders this address against the router's other addresses.
	Rank uint16

	// Dialect names the link transport protocol spoken at this
	// address.
	Dialect string

	// LinkKey is the link-layer public encryption key for this
	// address.
	LinkKey crypto.PubKey

	// IP is the advertised address.
	IP netip.Addr

	// Port is the advertised port.
	Port uint16

	// Version is the link protocol version.
	Version uint64
}

// Equal compares all fields.
func (a *AddressInfo) Equal(other *AddressInfo) bool {
	return a.Rank == other.Rank &&
		a.Dialect == other.Dialect &&
		a.LinkKey == other.LinkKey &&
		a.IP == other.IP &&
		a.Port == other.Port &&
		a.Version == other.Version
}

func (a AddressInfo) String() string {
	return fmt.Sprintf("%s:%d", a.IP, a.Port)
}

// BEncode writes the address record as a sorted dictionary.
func (a *AddressInfo) BEncode(e *bencode.Encoder) error {
	if err := e.BeginDict(); err != nil {
		return err
	}
	if err := e.WriteDictUint64("c", uint64(a.Rank)); err != nil {
		return err
	}
	if err := e.WriteString("d"); err != nil {
		return err
	}
	if err := e.WriteString(a.Dialect); err != nil {
		return err
	}
	if err := e.WriteDictBytes("e", a.LinkKey[:]); err != nil {
		return err
	}
	if err := e.WriteDictBytes("i", []byte(a.IP.String())); err != nil {
		return err
	}
	if err := e.WriteDictUint64("p", uint64(a.Port)); err != nil {
		return err
	}
	if err := e.WriteDictUint64("v", a.Version); err != nil {
		return err
	}
	return e.End()
}

// BDecode reads an address record dictionary.  Unknown keys are
// ignored for forward compatibility.
func (a *AddressInfo) BDecode(d *bencode.Decoder) error {
	return d.ReadDict(func(key []byte, d *bencode.Decoder) error {
		switch string(key) {
		case "c":
			v, err := d.ReadUint64()
			if err != nil {
				return err
			}
			if v > 65535 {
				return ErrBadAddressInfo
			}
			a.Rank = uint16(v)
		case "d":
			b, err := d.ReadBytes()
			if err != nil {
				return err
			}
			a.Dialect = string(b)
		case "e":
			b, err := d.ReadBytes()
			if err != nil {
				return err
			}
			if err := a.LinkKey.FromBytes(b); err != nil {
				return ErrBadAddressInfo
			}
		case "i":
			b, err := d.ReadBytes()
			if err != nil {
				return err
			}
			addr, err := netip.ParseAddr(string(b))
			if err != nil {
				return ErrBadAddressInfo
			}
			a.IP = addr
		case "p":
			v, err := d.ReadUint64()
			if err != nil {
				return err
			}
			if v > 65535 {
				return ErrBadAddressInfo
			}
			a.Port = uint16(v)
		case "v":
			v, err := d.ReadUint64()
			if err != nil {
				return err
			}
			a.Version = v
		default:
			return d.Discard()
		}
		return nil
	})
}

// HostPort returns the address in host:port form, suitable for
// dialing.
func (a *AddressInfo) HostPort() string {
	return netip.AddrPortFrom(a.IP, a.Port).String()
}
