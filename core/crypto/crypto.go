// SPDX-FileCopyrightText: Copyright (C) 2024  The loki-network authors
// SPDX-License-Identifier: AGPL-3.0-only

// Package crypto provides the cryptographic primitives the overlay
// network is built on: key agreement, onion-layer symmetric encryption,
// hashing, signing with both seed-form and derived keys, identity
// blinding via subkey derivation, and a post-quantum KEM.
//
// All operations are synchronous, CPU bound, and safe for concurrent
// use once a provider has been constructed.  Cryptographic rejection
// (invalid point, bad signature, short buffer) is an expected outcome
// signalled through the error return; on error the output values are
// undefined and must not be used.
package crypto

// Crypto is the capability set every consumer of cryptographic material
// depends on.  Exactly one production implementation exists (Provider);
// the interface boundary is kept so tests can substitute a double.
type Crypto interface {
	// DHClient computes the client-side shared secret for a path or
	// transport session with the holder of pk, bound to the session
	// nonce n.
	DHClient(pk *PubKey, sk *SecretKey, n *Nonce) (*SharedSecret, error)

	// DHServer computes the server-side shared secret, matching what
	// the client derived from our public key.
	DHServer(pk *PubKey, sk *SecretKey, n *Nonce) (*SharedSecret, error)

	// TransportDHClient is the client-side transport session variant.
	TransportDHClient(pk *PubKey, sk *SecretKey, n *Nonce) (*SharedSecret, error)

	// TransportDHServer is the server-side transport session variant.
	TransportDHServer(pk *PubKey, sk *SecretKey, n *Nonce) (*SharedSecret, error)

	// XChaCha20 applies the XChaCha20 keystream to buf in place.
	// Encryption and decryption are the same operation.
	XChaCha20(buf []byte, k *SharedSecret, n *Nonce) error

	// XChaCha20Alt applies the keystream to src, writing the result to
	// dst.  Fails if dst is smaller than src.
	XChaCha20Alt(dst, src []byte, k *SharedSecret, n *Nonce) error

	// ShortHash computes the unkeyed short hash of buf.
	ShortHash(buf []byte) (*ShortHash, error)

	// HMAC computes the keyed hash of buf under secret.
	HMAC(buf []byte, secret *SharedSecret) (*ShortHash, error)

	// Sign produces a detached signature over buf with a seed-form
	// secret key.
	Sign(sk *SecretKey, buf []byte) (*Signature, error)

	// SignPrivate produces a detached signature over buf with a raw
	// derived scalar.  The result verifies with Verify under the
	// scalar's public key.
	SignPrivate(sk *PrivateKey, buf []byte) (*Signature, error)

	// Verify reports whether sig is a valid signature over buf by pk.
	// It accepts signatures from both signing paths.
	Verify(pk *PubKey, buf []byte, sig *Signature) bool

	// DeriveSubkey computes the blinded public identity of root at
	// index n.  If precomputed is non-nil it is used as the blinding
	// hash instead of deriving one.
	DeriveSubkey(root *PubKey, n uint64, precomputed []byte) (*PubKey, error)

	// DeriveSubkeyPrivate computes the private scalar matching
	// DeriveSubkey(root.PublicKey(), n) so that the derived pair signs
	// and verifies consistently.
	DeriveSubkeyPrivate(root *SecretKey, n uint64, precomputed []byte) (*PrivateKey, error)

	// SeedToSecretKey expands an identity seed into a seed-form secret
	// key.
	SeedToSecretKey(seed *IdentitySecret) (*SecretKey, error)

	// IdentityKeygen generates a fresh Ed25519 identity keypair.
	IdentityKeygen() (*SecretKey, error)

	// EncryptionKeygen generates a fresh Curve25519 encryption keypair.
	EncryptionKeygen() (*SecretKey, error)

	// CheckIdentityPrivkey re-derives the keypair from the stored seed
	// and reports whether the stored public half is consistent.
	CheckIdentityPrivkey(sk *SecretKey) bool

	// PQKeyGen generates a post-quantum KEM keypair.
	PQKeyGen() (*PQKeyPair, error)

	// PQEncrypt encapsulates a fresh shared secret to pk.
	PQEncrypt(pk *PQPubKey) (*PQCipherBlock, *SharedSecret, error)

	// PQDecrypt recovers the shared secret from ct with our keypair.
	PQDecrypt(ct *PQCipherBlock, keypair *PQKeyPair) (*SharedSecret, error)

	// Randomize fills b with random bytes.
	Randomize(b []byte) error

	// RandInt returns a random unsigned 64 bit integer.
	RandInt() (uint64, error)
}
