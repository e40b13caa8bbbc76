// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, Ed25519 keys, token
// signing) from the domain logic. It acts as an Infrastructure service
// injected into the Application layer via constructors.
package sec

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
)

// SeedHexLength is the expected length of the HUB_PRIVATE_KEY value:
// a 32-byte Ed25519 seed encoded as hex.
const SeedHexLength = 2 * ed25519.SeedSize

// Keys holds the hub's Ed25519 keypair together with the precomputed public
// key encodings served by /pubkey.
//
// # Immutability
//
// Keys is constructed once at startup and shared read-only across all
// request handlers. Key generation never happens on the request path.
type Keys struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey

	// PublicHex is the raw 32-byte public key as lowercase hex.
	PublicHex string
	// PublicPEM is the public key as a PEM-encoded SubjectPublicKeyInfo block.
	PublicPEM string
}

// NewKeys derives a [Keys] from a 32-byte Ed25519 seed and precomputes the
// exported public key encodings.
func NewKeys(seed []byte) (*Keys, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("sec: invalid seed length %d (want %d)", len(seed), ed25519.SeedSize)
	}

	private := ed25519.NewKeyFromSeed(seed)
	public := private.Public().(ed25519.PublicKey)

	// SubjectPublicKeyInfo encoding cannot fail for a well-formed Ed25519 key.
	spki, err := x509.MarshalPKIXPublicKey(public)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to encode public key: %w", err)
	}

	return &Keys{
		private:   private,
		public:    public,
		PublicHex: hex.EncodeToString(public),
		PublicPEM: string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: spki})),
	}, nil
}

// KeysFromSeedHex builds a [Keys] from the configured hex seed (HUB_PRIVATE_KEY).
func KeysFromSeedHex(seedHex string) (*Keys, error) {
	if len(seedHex) != SeedHexLength {
		return nil, fmt.Errorf("sec: private key must be %d hex characters, got %d", SeedHexLength, len(seedHex))
	}

	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("sec: private key is not valid hex: %w", err)
	}

	return NewKeys(seed)
}

// GenerateKeys creates a [Keys] from a fresh random seed.
//
// Intended for startup without a configured HUB_PRIVATE_KEY: previously
// issued tokens become unverifiable after a restart.
func GenerateKeys() (*Keys, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("sec: failed to generate seed: %w", err)
	}
	return NewKeys(seed)
}

// Signer returns the private key used by the token codec.
func (k *Keys) Signer() ed25519.PrivateKey { return k.private }

// Verifier returns the public key used by the token codec.
func (k *Keys) Verifier() ed25519.PublicKey { return k.public }
