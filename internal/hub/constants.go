// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package hub

import "time"

// # Token Lifetimes

const (
	// RefreshTokenTTL is the duration a refresh token remains valid.
	// Long-lived (6 months) so players stay signed in between play sessions.
	RefreshTokenTTL = 180 * 24 * time.Hour

	// AccessTokenTTL is the duration an access token remains valid.
	// Very short (60s); clients re-mint from the refresh token on demand.
	AccessTokenTTL = 60 * time.Second

	// PITTokenTTL is the duration a player identity token remains valid.
	// Shortest of all (15s): it is minted immediately before being handed
	// to a game server for one verification.
	PITTokenTTL = 15 * time.Second

	// RotationPeriod is the window before refresh-token expiry in which a
	// refresh request also rotates the session's rolling token and extends
	// its lifetime.
	RotationPeriod = 7 * 24 * time.Hour

	// ResetTokenTTL is the duration a password reset token remains valid.
	// Short-lived (1 hour) for security.
	ResetTokenTTL = 1 * time.Hour

	// ResetTokenLength is the byte length of the random password reset token.
	ResetTokenLength = 32
)
