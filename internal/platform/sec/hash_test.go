// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/ecg-hub/internal/platform/sec"
)

/*
TestHashPassword_RoundTrip verifies that a hashed password verifies against
the original and rejects anything else.
*/
func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := sec.HashPassword("pw123456")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.True(t, sec.CheckPasswordHash("pw123456", hash))
	assert.False(t, sec.CheckPasswordHash("pw123457", hash))
	assert.False(t, sec.CheckPasswordHash("", hash))
}

/*
TestHashPassword_SaltedPerCall verifies that hashing is salted: the same
password never produces the same hash twice.
*/
func TestHashPassword_SaltedPerCall(t *testing.T) {
	first, err := sec.HashPassword("pw123456")
	require.NoError(t, err)
	second, err := sec.HashPassword("pw123456")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, sec.CheckPasswordHash("pw123456", first))
	assert.True(t, sec.CheckPasswordHash("pw123456", second))
}

/*
TestCheckPasswordHash_MalformedHash verifies that garbage stored hashes never
verify.
*/
func TestCheckPasswordHash_MalformedHash(t *testing.T) {
	for _, hash := range []string{"", "not-a-hash", "$argon2id$v=19$broken"} {
		assert.False(t, sec.CheckPasswordHash("pw123456", hash), "hash %q", hash)
	}
}

/*
TestGenerateSecureToken verifies token length and uniqueness.
*/
func TestGenerateSecureToken(t *testing.T) {
	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	assert.Len(t, first, 64) // 32 bytes hex-encoded
	assert.NotEqual(t, first, second)
}
