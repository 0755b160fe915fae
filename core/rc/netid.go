// SPDX-FileCopyrightText: Copyright (C) 2024  The loki-network authors
// SPDX-License-Identifier: AGPL-3.0-only

package rc

import (
	"bytes"
	"errors"

	"github.com/tewinget/loki-network/core/bencode"
)

// NetIDSize is the size of the network identifier field.
const NetIDSize = 8

// DefaultNetIDString names the production network.  Deployments select
// their network at startup through the config.
const DefaultNetIDString = "lokinet"

// NetID identifies which logical network a descriptor belongs to, so
// that test network descriptors can never be accepted on the production
// network or vice versa.  It holds a NUL padded ASCII tag.
type NetID [NetIDSize]byte

// ErrNetIDTooLong is returned for a network tag longer than NetIDSize.
var ErrNetIDTooLong = errors.New("rc: netid too long")

// DefaultNetID returns the production network identifier.
func DefaultNetID() NetID {
	id, err := NetIDFromString(DefaultNetIDString)
	if err != nil {
		panic(err)
	}
	return id
}

// NetIDFromString builds a NetID from a tag of at most NetIDSize bytes.
func NetIDFromString(s string) (NetID, error) {
	var id NetID
	if len(s) > NetIDSize {
		return id, ErrNetIDTooLong
	}
	copy(id[:], s)
	return id, nil
}

// trimmed returns the tag bytes up to the first NUL.
func (n *NetID) trimmed() []byte {
	if i := bytes.IndexByte(n[:], 0); i >= 0 {
		return n[:i]
	}
	return n[:]
}

func (n NetID) String() string {
	return string(n.trimmed())
}

// Equal compares the tags, ignoring padding.
func (n *NetID) Equal(other *NetID) bool {
	return bytes.Equal(n.trimmed(), other.trimmed())
}

// BEncode writes the trimmed tag as a byte string.
func (n *NetID) BEncode(e *bencode.Encoder) error {
	return e.WriteBytes(n.trimmed())
}

// BDecode reads a byte string of at most NetIDSize bytes and NUL pads
// it.
func (n *NetID) BDecode(d *bencode.Decoder) error {
	b, err := d.ReadBytes()
	if err != nil {
		return err
	}
	if len(b) > NetIDSize {
		return ErrNetIDTooLong
	}
	*n = NetID{}
	copy(n[:], b)
	return nil
}
