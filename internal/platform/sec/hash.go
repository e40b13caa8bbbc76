// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. RFC 9106 second recommended option (64 MiB, t=3):
// strong enough for a password hash, cheap enough to run on the request task.
const (
	argonMemoryKiB   = 64 * 1024
	argonIterations  = 3
	argonParallelism = 2
	argonSaltLength  = 16
	argonKeyLength   = 32
)

// ErrInvalidHash is returned when a stored hash string cannot be parsed as a
// PHC-formatted argon2id hash.
var ErrInvalidHash = errors.New("sec: invalid argon2id hash")

// HashPassword hashes a plain-text password using argon2id with a fresh
// random salt. The result is a self-describing PHC string; the storage
// column stays opaque to the rest of the system.
func HashPassword(plainTextPassword string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("sec: failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plainTextPassword), salt, argonIterations, argonMemoryKiB, argonParallelism, argonKeyLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemoryKiB,
		argonIterations,
		argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// CheckPasswordHash compares a plain-text password with its stored PHC hash
// in constant time. Unparseable hashes simply fail the check.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	salt, key, memory, iterations, parallelism, err := decodeHash(existingHash)
	if err != nil {
		return false
	}

	// Recompute with the parameters embedded in the stored hash so that
	// old hashes keep verifying after parameter upgrades.
	candidate := argon2.IDKey([]byte(plainTextPassword), salt, iterations, memory, parallelism, uint32(len(key)))

	return subtle.ConstantTimeCompare(candidate, key) == 1
}

// decodeHash parses a PHC argon2id string into its salt, key, and parameters.
func decodeHash(encodedHash string) (salt, key []byte, memory, iterations uint32, parallelism uint8, err error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, ErrInvalidHash
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, 0, 0, 0, ErrInvalidHash
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return nil, nil, 0, 0, 0, ErrInvalidHash
	}

	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, nil, 0, 0, 0, ErrInvalidHash
	}

	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, nil, 0, 0, 0, ErrInvalidHash
	}

	return salt, key, memory, iterations, parallelism, nil
}

// GenerateSecureToken returns a cryptographically random hex token of the
// given byte length. Used for single-use password reset tokens.
func GenerateSecureToken(byteLength int) (string, error) {
	raw := make([]byte, byteLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("sec: failed to generate secure token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
