// SPDX-FileCopyrightText: Copyright (C) 2024  The loki-network authors
// SPDX-License-Identifier: AGPL-3.0-only

package crypto

import (
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"io"
	"sync"

	"filippo.io/edwards25519"
	"github.com/katzenpost/hpqc/rand"
	sntrup "github.com/katzenpost/sntrup4591761"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/curve25519"
)

var (
	// ErrDHDegenerate is returned when a key agreement yields the
	// identity point, which happens for small-order or otherwise
	// invalid peer public keys.
	ErrDHDegenerate = errors.New("crypto: degenerate DH result")

	// ErrBufferTooSmall is returned when a cipher destination buffer
	// cannot hold the source.
	ErrBufferTooSmall = errors.New("crypto: destination buffer too small")

	// ErrInvalidPoint is returned when bytes that should encode a curve
	// point do not.
	ErrInvalidPoint = errors.New("crypto: invalid curve point")

	// ErrBadBlindingHash is returned when a caller-supplied precomputed
	// blinding hash has the wrong length.
	ErrBadBlindingHash = errors.New("crypto: precomputed blinding hash must be 32 bytes")
)

var (
	initOnce sync.Once
	initErr  error
)

// initialize performs the process-wide one-time setup: it probes the
// hardened system entropy source so that a broken RNG is caught at
// startup instead of at first use.  Vector acceleration for the hash
// and cipher primitives is selected by the runtime from CPU features
// and needs no explicit setup here.
func initialize() {
	var probe [8]byte
	if _, err := io.ReadFull(rand.Reader, probe[:]); err != nil {
		initErr = errors.New("crypto: entropy source unavailable: " + err.Error())
	}
}

// Provider is the production Crypto implementation, built on
// curve25519/ed25519, BLAKE2b, XChaCha20, and the Streamlined NTRU
// Prime KEM.  It is stateless and safe for concurrent use.
type Provider struct{}

var _ Crypto = (*Provider)(nil)

// NewProvider returns the production provider after running the
// process-wide one-time initialization.  Initialization failure is
// fatal to the caller: no provider is returned and no operation may be
// attempted.
func NewProvider() (*Provider, error) {
	initOnce.Do(initialize)
	if initErr != nil {
		return nil, initErr
	}
	return &Provider{}, nil
}

// dh computes the raw X25519 shared point between usSec and themPub and
// hashes it together with both sides' identities so that client and
// server agree on the same output regardless of which side computes it.
func dh(clientPK, serverPK *PubKey, themPub []byte, usSec *SecretKey) (*SharedSecret, error) {
	point, err := curve25519.X25519(usSec[:32], themPub)
	if err != nil {
		return nil, ErrDHDegenerate
	}
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	h.Write(clientPK[:])
	h.Write(serverPK[:])
	h.Write(point)
	out := new(SharedSecret)
	copy(out[:], h.Sum(nil))
	return out, nil
}

// dhSessionKey folds the session nonce into the raw shared secret with
// a keyed hash, binding the session key to its nonce.
func dhSessionKey(raw *SharedSecret, n *Nonce) (*SharedSecret, error) {
	h, err := blake2b.New256(raw[:])
	if err != nil {
		return nil, err
	}
	h.Write(n[:])
	out := new(SharedSecret)
	copy(out[:], h.Sum(nil))
	raw.Zero()
	return out, nil
}

func dhClient(pk *PubKey, sk *SecretKey, n *Nonce) (*SharedSecret, error) {
	us := sk.PublicKey()
	raw, err := dh(&us, pk, pk[:], sk)
	if err != nil {
		return nil, err
	}
	return dhSessionKey(raw, n)
}

func dhServer(pk *PubKey, sk *SecretKey, n *Nonce) (*SharedSecret, error) {
	us := sk.PublicKey()
	raw, err := dh(pk, &us, pk[:], sk)
	if err != nil {
		return nil, err
	}
	return dhSessionKey(raw, n)
}

// DHClient implements Crypto.
func (p *Provider) DHClient(pk *PubKey, sk *SecretKey, n *Nonce) (*SharedSecret, error) {
	return dhClient(pk, sk, n)
}

// DHServer implements Crypto.
func (p *Provider) DHServer(pk *PubKey, sk *SecretKey, n *Nonce) (*SharedSecret, error) {
	return dhServer(pk, sk, n)
}

// TransportDHClient implements Crypto.
func (p *Provider) TransportDHClient(pk *PubKey, sk *SecretKey, n *Nonce) (*SharedSecret, error) {
	return dhClient(pk, sk, n)
}

// TransportDHServer implements Crypto.
func (p *Provider) TransportDHServer(pk *PubKey, sk *SecretKey, n *Nonce) (*SharedSecret, error) {
	return dhServer(pk, sk, n)
}

// XChaCha20 implements Crypto.
func (p *Provider) XChaCha20(buf []byte, k *SharedSecret, n *Nonce) error {
	c, err := chacha20.NewUnauthenticatedCipher(k[:], n[:])
	if err != nil {
		return err
	}
	c.XORKeyStream(buf, buf)
	return nil
}

// XChaCha20Alt implements Crypto.
func (p *Provider) XChaCha20Alt(dst, src []byte, k *SharedSecret, n *Nonce) error {
	if len(src) > len(dst) {
		return ErrBufferTooSmall
	}
	c, err := chacha20.NewUnauthenticatedCipher(k[:], n[:])
	if err != nil {
		return err
	}
	c.XORKeyStream(dst[:len(src)], src)
	return nil
}

// ShortHash implements Crypto.
func (p *Provider) ShortHash(buf []byte) (*ShortHash, error) {
	sum := blake2b.Sum256(buf)
	out := new(ShortHash)
	copy(out[:], sum[:])
	return out, nil
}

// HMAC implements Crypto.
func (p *Provider) HMAC(buf []byte, secret *SharedSecret) (*ShortHash, error) {
	h, err := blake2b.New256(secret[:])
	if err != nil {
		return nil, err
	}
	h.Write(buf)
	out := new(ShortHash)
	copy(out[:], h.Sum(nil))
	return out, nil
}

// Sign implements Crypto.
func (p *Provider) Sign(sk *SecretKey, buf []byte) (*Signature, error) {
	sig := new(Signature)
	copy(sig[:], ed25519.Sign(ed25519.PrivateKey(sk[:]), buf))
	return sig, nil
}

// SignPrivate implements Crypto.
//
// A derived scalar has no seed, so the standard signing routine cannot
// be used; the signature equation is computed directly:
//
//	r = H(random || M) mod L
//	R = r*B
//	c = H(R || A || M) mod L
//	S = r + c*a mod L
//
// which the standard verification routine accepts under A = a*B.
func (p *Provider) SignPrivate(sk *PrivateKey, buf []byte) (*Signature, error) {
	a, err := scalarFromRaw(sk[:])
	if err != nil {
		return nil, err
	}
	pub, err := sk.ToPublic()
	if err != nil {
		return nil, err
	}

	var seed [32]byte
	if _, err := io.ReadFull(rand.Reader, seed[:]); err != nil {
		return nil, err
	}
	h := sha512.New()
	h.Write(seed[:])
	h.Write(buf)
	nonceDigest := h.Sum(nil)
	r, err := new(edwards25519.Scalar).SetUniformBytes(nonceDigest)
	if err != nil {
		return nil, err
	}

	encodedR := new(edwards25519.Point).ScalarBaseMult(r).Bytes()

	h.Reset()
	h.Write(encodedR)
	h.Write(pub[:])
	h.Write(buf)
	hram := h.Sum(nil)
	c, err := new(edwards25519.Scalar).SetUniformBytes(hram)
	if err != nil {
		return nil, err
	}

	s := new(edwards25519.Scalar).MultiplyAdd(c, a, r)

	sig := new(Signature)
	copy(sig[:32], encodedR)
	copy(sig[32:], s.Bytes())

	// The nonce derivation inputs would let anyone recover the private
	// scalar from the signature.
	for i := range seed {
		seed[i] = 0
	}
	for i := range nonceDigest {
		nonceDigest[i] = 0
	}
	return sig, nil
}

// Verify implements Crypto.
func (p *Provider) Verify(pk *PubKey, buf []byte, sig *Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(pk[:]), buf, sig[:])
}

// blindingHash derives the blinding scalar bytes for index n of the
// root key: the 64 byte hash of LE64(n) || root reduced mod L.  The
// clamping that both derivation paths apply happens at use.
func blindingHash(root *PubKey, n uint64) ([]byte, error) {
	var buf [8 + PubKeySize]byte
	binary.LittleEndian.PutUint64(buf[:8], n)
	copy(buf[8:], root[:])
	sum := LongHash(blake2b.Sum512(buf[:]))
	h, err := new(edwards25519.Scalar).SetUniformBytes(sum[:])
	if err != nil {
		return nil, err
	}
	return h.Bytes(), nil
}

func blindingScalar(root *PubKey, n uint64, precomputed []byte) (*edwards25519.Scalar, error) {
	hb := precomputed
	if hb == nil {
		var err error
		hb, err = blindingHash(root, n)
		if err != nil {
			return nil, err
		}
	} else if len(hb) != 32 {
		return nil, ErrBadBlindingHash
	}
	return new(edwards25519.Scalar).SetBytesWithClamping(hb)
}

// DeriveSubkey implements Crypto.
func (p *Provider) DeriveSubkey(root *PubKey, n uint64, precomputed []byte) (*PubKey, error) {
	h, err := blindingScalar(root, n, precomputed)
	if err != nil {
		return nil, err
	}
	point, err := new(edwards25519.Point).SetBytes(root[:])
	if err != nil {
		return nil, ErrInvalidPoint
	}
	point.ScalarMult(h, point)
	if point.Equal(edwards25519.NewIdentityPoint()) == 1 {
		return nil, ErrInvalidPoint
	}
	out := new(PubKey)
	copy(out[:], point.Bytes())
	return out, nil
}

// DeriveSubkeyPrivate implements Crypto.
func (p *Provider) DeriveSubkeyPrivate(root *SecretKey, n uint64, precomputed []byte) (*PrivateKey, error) {
	rootPub := root.PublicKey()
	h, err := blindingScalar(&rootPub, n, precomputed)
	if err != nil {
		return nil, err
	}
	a, err := scalarFromRaw(root.ToPrivate()[:])
	if err != nil {
		return nil, err
	}
	out := new(PrivateKey)
	copy(out[:], new(edwards25519.Scalar).Multiply(h, a).Bytes())
	return out, nil
}

// SeedToSecretKey implements Crypto.
func (p *Provider) SeedToSecretKey(seed *IdentitySecret) (*SecretKey, error) {
	sk := new(SecretKey)
	copy(sk[:], ed25519.NewKeyFromSeed(seed[:]))
	return sk, nil
}

// IdentityKeygen implements Crypto.
func (p *Provider) IdentityKeygen() (*SecretKey, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	sk := new(SecretKey)
	copy(sk[:], priv)
	return sk, nil
}

// EncryptionKeygen implements Crypto.
func (p *Provider) EncryptionKeygen() (*SecretKey, error) {
	sk := new(SecretKey)
	if _, err := io.ReadFull(rand.Reader, sk[:32]); err != nil {
		return nil, err
	}
	pub, err := curve25519.X25519(sk[:32], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	copy(sk[32:], pub)
	return sk, nil
}

// CheckIdentityPrivkey implements Crypto.
func (p *Provider) CheckIdentityPrivkey(sk *SecretKey) bool {
	derived := ed25519.NewKeyFromSeed(sk[:32])
	var check SecretKey
	copy(check[:], derived)
	return check == *sk
}

// PQKeyGen implements Crypto.
func (p *Provider) PQKeyGen() (*PQKeyPair, error) {
	pk, sk, err := sntrup.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	keypair := new(PQKeyPair)
	copy(keypair[:PQSecretKeySize], sk[:])
	copy(keypair[PQSecretKeySize:], pk[:])
	return keypair, nil
}

// PQEncrypt implements Crypto.
func (p *Provider) PQEncrypt(pk *PQPubKey) (*PQCipherBlock, *SharedSecret, error) {
	ct, ss, err := sntrup.Encapsulate(rand.Reader, (*sntrup.PublicKey)(pk))
	if err != nil {
		return nil, nil, err
	}
	block := new(PQCipherBlock)
	copy(block[:], ct[:])
	shared := new(SharedSecret)
	copy(shared[:], ss[:])
	return block, shared, nil
}

// PQDecrypt implements Crypto.
func (p *Provider) PQDecrypt(ct *PQCipherBlock, keypair *PQKeyPair) (*SharedSecret, error) {
	var sk sntrup.PrivateKey
	copy(sk[:], keypair[:PQSecretKeySize])
	ss, ok := sntrup.Decapsulate((*sntrup.Ciphertext)(ct), &sk)
	if ok != 1 {
		return nil, errors.New("crypto: pq decapsulation failed")
	}
	shared := new(SharedSecret)
	copy(shared[:], ss[:])
	return shared, nil
}

// Randomize implements Crypto.
func (p *Provider) Randomize(b []byte) error {
	_, err := io.ReadFull(rand.Reader, b)
	return err
}

// RandInt implements Crypto.
func (p *Provider) RandInt() (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
