// SPDX-FileCopyrightText: Copyright (C) 2024  The loki-network authors
// SPDX-License-Identifier: AGPL-3.0-only

package rc

import (
	"errors"
	"fmt"

	"github.com/tewinget/loki-network/core/bencode"
	"github.com/tewinget/loki-network/version"
)

// ErrBadRouterVersion is returned when a decoded router version record
// is malformed.
var ErrBadRouterVersion = errors.New("rc: malformed router version")

// RouterVersion is the structured software version a router advertises
// in format version 1 descriptors: the protocol version followed by the
// semantic version triple.
type RouterVersion struct {
	Proto   uint64
	Version [3]uint16
}

// CurrentRouterVersion returns the version record for this build.
func CurrentRouterVersion() *RouterVersion {
	return &RouterVersion{
		Proto:   version.Protocol,
		Version: [3]uint16{version.Major, version.Minor, version.Patch},
	}
}

func (v RouterVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Version[0], v.Version[1], v.Version[2])
}

// BEncode writes the version record as a list of four integers.
func (v *RouterVersion) BEncode(e *bencode.Encoder) error {
	if err := e.BeginList(); err != nil {
		return err
	}
	if err := e.WriteUint64(v.Proto); err != nil {
		return err
	}
	for _, part := range v.Version {
		if err := e.WriteUint64(uint64(part)); err != nil {
			return err
		}
	}
	return e.End()
}

// BDecode reads a version record list of exactly four integers.
func (v *RouterVersion) BDecode(d *bencode.Decoder) error {
	var got []uint64
	err := d.ReadList(func(d *bencode.Decoder) error {
		i, err := d.ReadUint64()
		if err != nil {
			return err
		}
		got = append(got, i)
		return nil
	})
	if err != nil {
		return err
	}
	if len(got) != 4 {
		return ErrBadRouterVersion
	}
	for _, part := range got[1:] {
		if part > 65535 {
			return ErrBadRouterVersion
		}
	}
	v.Proto = got[0]
	v.Version = [3]uint16{uint16(got[1]), uint16(got[2]), uint16(got[3])}
	return nil
}
