// Package crypto implements BlockChat's signing primitives: RSA-1024
// keypairs, PSS signatures, and the canonical SHA-256 hash used for
// transaction and block identifiers.
//
// RSA-1024 + PSS is mandated by the BlockChat wire format itself (every
// sender/receiver address is a PEM-encoded RSA public key); none of the
// example blockchains in the reference corpus sign with RSA (they use
// secp256k1/ed25519/BLS for EVM-style accounts), so this package is built
// directly on crypto/rsa rather than adapting a teacher signer.
package crypto

import (
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
)

// KeyBits is the RSA modulus size mandated by spec.md §3.
const KeyBits = 1024

// CoinbaseAddress is the sentinel sender/receiver value meaning "no
// account" (genesis coinbase sender, or "stake update" receiver). It is
// never a valid PEM-encoded public key and must never be looked up in the
// ring.
const CoinbaseAddress = "0"

var (
	// ErrInvalidPEM is returned when a public-key string cannot be parsed.
	ErrInvalidPEM = errors.New("crypto: invalid PEM-encoded public key")
	// ErrVerification is returned when a signature fails verification.
	ErrVerification = errors.New("crypto: signature verification failed")
)

// GenerateKey produces a fresh RSA-1024 keypair, as the original wallet's
// Crypto.PublicKey.RSA.generate(1024) does.
func GenerateKey() (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, KeyBits)
	if err != nil {
		return nil, fmt.Errorf("crypto: generate key: %w", err)
	}
	return key, nil
}

// EncodePublicKey renders a public key as a PEM string, the node's address
// on the wire.
func EncodePublicKey(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("crypto: marshal public key: %w", err)
	}
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return string(pem.EncodeToMemory(block)), nil
}

// DecodePublicKey parses a PEM-encoded RSA public key, such as a
// sender_address/receiver_address field. The coinbase sentinel "0" is
// rejected: callers must special-case it before reaching here.
func DecodePublicKey(s string) (*rsa.PublicKey, error) {
	if s == CoinbaseAddress {
		return nil, fmt.Errorf("%w: coinbase sentinel is not a key", ErrInvalidPEM)
	}
	block, _ := pem.Decode([]byte(s))
	if block == nil {
		return nil, ErrInvalidPEM
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPEM, err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidPEM)
	}
	return rsaPub, nil
}

// Hash256 returns the hex-encoded SHA-256 digest of data. Used for both
// transaction_id and current_hash, per spec.md §4.1/§3.
func Hash256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Sign produces a hex-encoded PSS signature over the raw bytes of a hex
// digest (e.g. a transaction_id), mirroring transaction.py's
// sign_transaction: it re-hashes bytes.fromhex(transaction_id) with
// SHA-256 before signing, so the signed digest is SHA-256(hexDecode(hash)).
func Sign(priv *rsa.PrivateKey, hexDigest string) (string, error) {
	raw, err := hex.DecodeString(hexDigest)
	if err != nil {
		return "", fmt.Errorf("crypto: decode digest: %w", err)
	}
	digest := sha256.Sum256(raw)
	sig, err := rsa.SignPSS(rand.Reader, priv, stdcrypto.SHA256, digest[:], nil)
	if err != nil {
		return "", fmt.Errorf("crypto: sign: %w", err)
	}
	return hex.EncodeToString(sig), nil
}

// Verify checks a hex-encoded PSS signature over hexDigest under pub,
// mirroring transaction.py's verify_signature.
func Verify(pub *rsa.PublicKey, hexDigest string, hexSignature string) bool {
	raw, err := hex.DecodeString(hexDigest)
	if err != nil {
		return false
	}
	sig, err := hex.DecodeString(hexSignature)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(raw)
	return rsa.VerifyPSS(pub, stdcrypto.SHA256, digest[:], sig, nil) == nil
}
