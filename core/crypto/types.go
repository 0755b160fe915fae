// SPDX-FileCopyrightText: Copyright (C) 2024  The loki-network authors
// SPDX-License-Identifier: AGPL-3.0-only

package crypto

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"

	"filippo.io/edwards25519"
	sntrup "github.com/katzenpost/sntrup4591761"

	"github.com/tewinget/loki-network/core/utils"
)

const (
	// PubKeySize is the size of an Ed25519 identity public key or a
	// Curve25519 encryption public key.
	PubKeySize = 32

	// SecretKeySize is the size of a seed-form secret key: a 32 byte
	// secret followed by the 32 byte public key derived from it.
	SecretKeySize = 64

	// PrivateKeySize is the size of a raw Ed25519 scalar.  Unlike a
	// SecretKey it has no recoverable seed; it is only ever produced by
	// subkey derivation.
	PrivateKeySize = 32

	// IdentitySecretSize is the size of an Ed25519 keypair seed.
	IdentitySecretSize = 32

	// SharedSecretSize is the size of a DH or KEM shared secret.
	SharedSecretSize = 32

	// SignatureSize is the size of a detached Ed25519 signature, R||S.
	SignatureSize = 64

	// NonceSize is the size of a tunnel nonce, which doubles as the
	// XChaCha20 nonce.
	NonceSize = 24

	// ShortHashSize is the output size of the short hash and the keyed
	// hash.
	ShortHashSize = 32

	// LongHashSize is the output size of the long hash.
	LongHashSize = 64

	// PQPubKeySize is the size of a Streamlined NTRU Prime public key.
	PQPubKeySize = sntrup.PublicKeySize

	// PQSecretKeySize is the size of a Streamlined NTRU Prime secret key.
	PQSecretKeySize = sntrup.PrivateKeySize

	// PQCipherBlockSize is the size of a Streamlined NTRU Prime KEM
	// ciphertext.
	PQCipherBlockSize = sntrup.CiphertextSize

	// PQKeyPairSize is the size of a PQ keypair blob: the secret key
	// followed by the public key.
	PQKeyPairSize = PQSecretKeySize + PQPubKeySize
)

// ErrBadKeySize is returned when key material of the wrong length is
// presented to a fixed-size type.
var ErrBadKeySize = errors.New("crypto: invalid key material size")

// PubKey is an Ed25519 identity public key or a Curve25519 encryption
// public key, depending on role.
type PubKey [PubKeySize]byte

// FromBytes copies b into the key.  b must be exactly PubKeySize bytes.
func (k *PubKey) FromBytes(b []byte) error {
	if len(b) != PubKeySize {
		return ErrBadKeySize
	}
	copy(k[:], b)
	return nil
}

// Bytes returns the raw key bytes.
func (k *PubKey) Bytes() []byte {
	return k[:]
}

// IsZero returns true if the key is all zeroes.
func (k *PubKey) IsZero() bool {
	return utils.CtIsZero(k[:])
}

// KeyType implements pem.KeyMaterial.
func (k *PubKey) KeyType() string {
	return "public key"
}

func (k PubKey) String() string {
	return hex.EncodeToString(k[:])
}

// SecretKey is a seed-form secret key: the 32 byte secret half followed
// by its derived 32 byte public half.  For identity keys the secret half
// is an Ed25519 seed; for encryption keys it is a raw Curve25519 scalar.
type SecretKey [SecretKeySize]byte

// FromBytes copies b into the key.  b must be exactly SecretKeySize
// bytes.
func (k *SecretKey) FromBytes(b []byte) error {
	if len(b) != SecretKeySize {
		return ErrBadKeySize
	}
	copy(k[:], b)
	return nil
}

// Bytes returns the raw key bytes.
func (k *SecretKey) Bytes() []byte {
	return k[:]
}

// IsZero returns true if the key is all zeroes.
func (k *SecretKey) IsZero() bool {
	return utils.CtIsZero(k[:])
}

// KeyType implements pem.KeyMaterial.
func (k *SecretKey) KeyType() string {
	return "secret key"
}

// PublicKey returns the stored public half of the key.
func (k *SecretKey) PublicKey() (pk PubKey) {
	copy(pk[:], k[32:])
	return
}

// ToPrivate expands the Ed25519 seed half into the raw private scalar
// that actually signs: clamp(SHA-512(seed)[:32]).  Only meaningful for
// identity keys.
func (k *SecretKey) ToPrivate() *PrivateKey {
	h := sha512.Sum512(k[:32])
	s, err := new(edwards25519.Scalar).SetBytesWithClamping(h[:32])
	if err != nil {
		// Only possible with a wrong-length input, which the fixed
		// array rules out.
		panic(err)
	}
	priv := new(PrivateKey)
	copy(priv[:], s.Bytes())
	return priv
}

// Zero scrubs the key material.
func (k *SecretKey) Zero() {
	for i := range k {
		k[i] = 0
	}
}

// PrivateKey is a raw Ed25519 scalar with no recoverable seed.  It is
// produced only by derivation (SecretKey.ToPrivate or subkey
// derivation), never by key generation, and signs via the derived-key
// signing path.
type PrivateKey [PrivateKeySize]byte

// FromBytes copies b into the key.  b must be exactly PrivateKeySize
// bytes.
func (k *PrivateKey) FromBytes(b []byte) error {
	if len(b) != PrivateKeySize {
		return ErrBadKeySize
	}
	copy(k[:], b)
	return nil
}

// Bytes returns the raw scalar bytes.
func (k *PrivateKey) Bytes() []byte {
	return k[:]
}

// KeyType implements pem.KeyMaterial.
func (k *PrivateKey) KeyType() string {
	return "private key"
}

// ToPublic computes the public key corresponding to the scalar,
// A = a*B, without any clamping; the scalar is already in its final
// form.
func (k *PrivateKey) ToPublic() (*PubKey, error) {
	s, err := scalarFromRaw(k[:])
	if err != nil {
		return nil, err
	}
	pk := new(PubKey)
	copy(pk[:], new(edwards25519.Point).ScalarBaseMult(s).Bytes())
	return pk, nil
}

// Zero scrubs the key material.
func (k *PrivateKey) Zero() {
	for i := range k {
		k[i] = 0
	}
}

// IdentitySecret is an Ed25519 keypair seed.
type IdentitySecret [IdentitySecretSize]byte

// FromBytes copies b into the seed.  b must be exactly
// IdentitySecretSize bytes.
func (s *IdentitySecret) FromBytes(b []byte) error {
	if len(b) != IdentitySecretSize {
		return ErrBadKeySize
	}
	copy(s[:], b)
	return nil
}

// Bytes returns the raw seed bytes.
func (s *IdentitySecret) Bytes() []byte {
	return s[:]
}

// KeyType implements pem.KeyMaterial.
func (s *IdentitySecret) KeyType() string {
	return "identity seed"
}

// SharedSecret is the symmetric key output of a DH exchange or a KEM.
type SharedSecret [SharedSecretSize]byte

// FromBytes copies b into the secret.  b must be exactly
// SharedSecretSize bytes.
func (s *SharedSecret) FromBytes(b []byte) error {
	if len(b) != SharedSecretSize {
		return ErrBadKeySize
	}
	copy(s[:], b)
	return nil
}

// Bytes returns the raw secret bytes.
func (s *SharedSecret) Bytes() []byte {
	return s[:]
}

// Zero scrubs the secret.
func (s *SharedSecret) Zero() {
	for i := range s {
		s[i] = 0
	}
}

// Signature is a detached Ed25519 signature, R||S.
type Signature [SignatureSize]byte

// FromBytes copies b into the signature.  b must be exactly
// SignatureSize bytes.
func (s *Signature) FromBytes(b []byte) error {
	if len(b) != SignatureSize {
		return ErrBadKeySize
	}
	copy(s[:], b)
	return nil
}

// Bytes returns the raw signature bytes.
func (s *Signature) Bytes() []byte {
	return s[:]
}

// IsZero returns true if the signature is all zeroes.
func (s *Signature) IsZero() bool {
	return utils.CtIsZero(s[:])
}

// Zero clears the signature.
func (s *Signature) Zero() {
	for i := range s {
		s[i] = 0
	}
}

// Nonce is a tunnel nonce; its first 24 bytes are also the XChaCha20
// nonce.
type Nonce [NonceSize]byte

// FromBytes copies b into the nonce.  b must be exactly NonceSize bytes.
func (n *Nonce) FromBytes(b []byte) error {
	if len(b) != NonceSize {
		return ErrBadKeySize
	}
	copy(n[:], b)
	return nil
}

// Bytes returns the raw nonce bytes.
func (n *Nonce) Bytes() []byte {
	return n[:]
}

// ShortHash is the output of the short hash and the keyed hash.
type ShortHash [ShortHashSize]byte

// LongHash is the output of the long hash.
type LongHash [LongHashSize]byte

// PQPubKey is a Streamlined NTRU Prime public key.
type PQPubKey [PQPubKeySize]byte

// FromBytes copies b into the key.  b must be exactly PQPubKeySize
// bytes.
func (k *PQPubKey) FromBytes(b []byte) error {
	if len(b) != PQPubKeySize {
		return ErrBadKeySize
	}
	copy(k[:], b)
	return nil
}

// Bytes returns the raw key bytes.
func (k *PQPubKey) Bytes() []byte {
	return k[:]
}

// KeyType implements pem.KeyMaterial.
func (k *PQPubKey) KeyType() string {
	return "pq public key"
}

// PQCipherBlock is a Streamlined NTRU Prime KEM ciphertext.
type PQCipherBlock [PQCipherBlockSize]byte

// FromBytes copies b into the block.  b must be exactly
// PQCipherBlockSize bytes.
func (c *PQCipherBlock) FromBytes(b []byte) error {
	if len(b) != PQCipherBlockSize {
		return ErrBadKeySize
	}
	copy(c[:], b)
	return nil
}

// Bytes returns the raw ciphertext bytes.
func (c *PQCipherBlock) Bytes() []byte {
	return c[:]
}

// PQKeyPair is a PQ KEM keypair blob: the secret key followed by the
// public key.
type PQKeyPair [PQKeyPairSize]byte

// FromBytes copies b into the keypair.  b must be exactly PQKeyPairSize
// bytes.
func (k *PQKeyPair) FromBytes(b []byte) error {
	if len(b) != PQKeyPairSize {
		return ErrBadKeySize
	}
	copy(k[:], b)
	return nil
}

// Bytes returns the raw keypair bytes.
func (k *PQKeyPair) Bytes() []byte {
	return k[:]
}

// KeyType implements pem.KeyMaterial.
func (k *PQKeyPair) KeyType() string {
	return "pq keypair"
}

// Public returns a copy of the public half of the keypair.
func (k *PQKeyPair) Public() (pk PQPubKey) {
	copy(pk[:], k[PQSecretKeySize:])
	return
}

// Zero scrubs the keypair.
func (k *PQKeyPair) Zero() {
	for i := range k {
		k[i] = 0
	}
}

// scalarFromRaw initializes a Scalar from 32 raw bytes without any
// clamping.  SetUniformBytes wants 64 uniformly random bytes which it
// reduces mod L; feeding the 32 scalar bytes as the low half with a zero
// high half initializes the scalar verbatim (the scalar arithmetic is
// mod L regardless).
func scalarFromRaw(b []byte) (*edwards25519.Scalar, error) {
	var wide [64]byte
	copy(wide[:32], b)
	return new(edwards25519.Scalar).SetUniformBytes(wide[:])
}
