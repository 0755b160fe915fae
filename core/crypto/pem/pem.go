// SPDX-FileCopyrightText: Copyright (C) 2024  The loki-network authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package pem persists key material as typed PEM files.
package pem

import (
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tewinget/loki-network/core/utils"
)

// KeyMaterial is any fixed-size key that can be persisted.
type KeyMaterial interface {
	FromBytes([]byte) error

	Bytes() []byte

	KeyType() string
}

// ToFile writes key to f as a PEM block typed after the key.  Writing
// scrubbed (all zero) key material is refused; a zeroed key on disk is
// never what anyone wants.
func ToFile(f string, key KeyMaterial) error {
	keyType := strings.ToUpper(key.KeyType())

	if utils.CtIsZero(key.Bytes()) {
		return fmt.Errorf("pem: %s: attempted to serialize scrubbed key", keyType)
	}
	blk := &pem.Block{
		Type:  keyType,
		Bytes: key.Bytes(),
	}
	out, err := os.OpenFile(f, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	outBuf := pem.EncodeToMemory(blk)
	writeCount, err := out.Write(outBuf)
	if err != nil {
		return err
	}
	if writeCount != len(outBuf) {
		return errors.New("pem: partial write failure")
	}
	if err = out.Sync(); err != nil {
		return err
	}
	return out.Close()
}

// FromFile reads a PEM block from f into key, rejecting a block whose
// type does not match the key's.
func FromFile(f string, key KeyMaterial) error {
	buf, err := os.ReadFile(f)
	if err != nil {
		return fmt.Errorf("pem: %v", err)
	}
	blk, _ := pem.Decode(buf)
	if blk == nil {
		return fmt.Errorf("pem: failed to decode PEM file %v", f)
	}
	keyType := strings.ToUpper(key.KeyType())
	if blk.Type != keyType {
		return fmt.Errorf("pem: wrong key type %v != %v", blk.Type, keyType)
	}
	return key.FromBytes(blk.Bytes)
}
