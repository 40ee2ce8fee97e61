package signer

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/jagbag/dvoting/chit"
)

// ErrNotReady is returned when asked to sign before a key pair exists.
var ErrNotReady = errors.New("no signing key")

const keyBits = 2048

// Signer holds one RSA key pair and signs already-blinded integers with raw
// private-key exponentiation. Blinding and unblinding happen client-side, so
// the signer never learns what it signed. The key lives only in memory and
// is never persisted; the private exponent never leaves this package.
type Signer struct {
	key *rsa.PrivateKey
}

// New generates a fresh, independent key pair.
func New() (*Signer, error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signing key: %w", err)
	}
	return &Signer{key: key}, nil
}

// Ready reports whether a key pair exists to sign with.
func (s *Signer) Ready() bool {
	return s != nil && s.key != nil
}

// Sign computes blinded^d mod n.
func (s *Signer) Sign(blinded *big.Int) (*big.Int, error) {
	if !s.Ready() {
		return nil, ErrNotReady
	}
	return new(big.Int).Exp(blinded, s.key.D, s.key.N), nil
}

// SignText signs a blinded value in its base-36 wire form. Signing is
// deterministic: the same input always yields the same signature.
func (s *Signer) SignText(blindedText string) (string, error) {
	blinded, err := chit.Decode(blindedText)
	if err != nil {
		return "", fmt.Errorf("undecodable blinded chit: %w", err)
	}
	signed, err := s.Sign(blinded)
	if err != nil {
		return "", err
	}
	return chit.Encode(signed), nil
}

// Verify computes signature^e mod n and compares it against the integer
// encoding of the plaintext's raw bytes.
func (s *Signer) Verify(plaintext []byte, signature *big.Int) bool {
	if !s.Ready() {
		return false
	}
	m := new(big.Int).SetBytes(plaintext)
	e := big.NewInt(int64(s.key.PublicKey.E))
	alleged := new(big.Int).Exp(signature, e, s.key.PublicKey.N)
	return alleged.Cmp(m) == 0
}

// ConfirmSignature verifies a signed chit in its wire form against the
// plaintext chit.
func (s *Signer) ConfirmSignature(chitText, signedText string) bool {
	signature, err := chit.Decode(signedText)
	if err != nil {
		return false
	}
	return s.Verify([]byte(chitText), signature)
}

// PublicKey returns the modulus and public exponent as decimal strings, the
// only key material ever exposed outward.
func (s *Signer) PublicKey() (modulus, exponent string) {
	if !s.Ready() {
		return "", ""
	}
	return s.key.PublicKey.N.String(), fmt.Sprintf("%d", s.key.PublicKey.E)
}

// Modulus returns the raw modulus for callers that need to blind against it.
func (s *Signer) Modulus() *big.Int {
	if !s.Ready() {
		return nil
	}
	return new(big.Int).Set(s.key.PublicKey.N)
}

// Exponent returns the raw public exponent.
func (s *Signer) Exponent() *big.Int {
	if !s.Ready() {
		return nil
	}
	return big.NewInt(int64(s.key.PublicKey.E))
}
