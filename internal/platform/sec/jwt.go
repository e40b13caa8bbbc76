// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/ecg-hub/pkg/uuid"
)

// VerifyLeeway is the clock-skew tolerance applied to exp/nbf checks.
// One second: enough for NTP drift between hub and game servers, short
// enough to keep the 15 s PIT window meaningful.
const VerifyLeeway = 1 * time.Second

// # Client Types

// ClientType tags every session and every token with the product surface it
// belongs to. Serialized as a small integer, both in JSON bodies and claims.
type ClientType int16

const (
	ClientWeb    ClientType = 0
	ClientGame   ClientType = 1
	ClientMobile ClientType = 2
)

// Valid reports whether the value is one of the three known client types.
func (ct ClientType) Valid() bool {
	return ct >= ClientWeb && ct <= ClientMobile
}

// String returns the lowercase name of the client type.
func (ct ClientType) String() string {
	switch ct {
	case ClientWeb:
		return "web"
	case ClientGame:
		return "game"
	case ClientMobile:
		return "mobile"
	default:
		return fmt.Sprintf("unknown(%d)", int16(ct))
	}
}

// # Token Errors

var (
	// ErrTokenExpired marks a structurally valid token past its exp claim.
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrTokenInvalid marks a malformed token or a bad signature.
	// Indistinguishable from [ErrTokenExpired] at the HTTP boundary (403).
	ErrTokenInvalid = errors.New("sec: token invalid")
)

// # Claim Sets

// RefreshClaims is the claim set of the long-lived refresh token carried in
// the hub-rt cookie.
//
// The jti claim mirrors the session's current token column: rotation is
// detected by comparing the presented jti against the stored value.
type RefreshClaims struct {
	jwt.RegisteredClaims

	// SessionID is the owning session row uuid ("sess" claim).
	SessionID string `json:"sess"`
	// Ct is the client type the session belongs to.
	Ct ClientType `json:"ct"`
}

// AccessClaims is the claim set of the short-lived bearer token.
//
// iss carries the session uuid; jti is a fresh UUID per issuance.
type AccessClaims struct {
	jwt.RegisteredClaims

	// Ct is the client type the session belongs to.
	Ct ClientType `json:"ct"`
}

// PITClaims is the claim set of the Player Identity Token handed to game
// servers. aud is the 12-character server ID the token is scoped to.
//
// Implemented without [jwt.RegisteredClaims] so that aud serializes as a
// plain string rather than an array.
type PITClaims struct {
	Audience  string           `json:"aud"`
	Subject   string           `json:"sub"`
	ID        string           `json:"jti"`
	ExpiresAt *jwt.NumericDate `json:"exp"`
	NotBefore *jwt.NumericDate `json:"nbf"`
	Ct        ClientType       `json:"ct"`
}

// GetExpirationTime implements [jwt.Claims].
func (c PITClaims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt, nil }

// GetIssuedAt implements [jwt.Claims]. PITs carry no iat claim.
func (c PITClaims) GetIssuedAt() (*jwt.NumericDate, error) { return nil, nil }

// GetNotBefore implements [jwt.Claims].
func (c PITClaims) GetNotBefore() (*jwt.NumericDate, error) { return c.NotBefore, nil }

// GetIssuer implements [jwt.Claims]. PITs carry no iss claim.
func (c PITClaims) GetIssuer() (string, error) { return "", nil }

// GetSubject implements [jwt.Claims].
func (c PITClaims) GetSubject() (string, error) { return c.Subject, nil }

// GetAudience implements [jwt.Claims].
func (c PITClaims) GetAudience() (jwt.ClaimStrings, error) {
	return jwt.ClaimStrings{c.Audience}, nil
}

// # Token Codec

// TokenService signs and verifies the hub's three token kinds with the
// Ed25519 keypair held in [Keys].
//
// # Concurrency
//
// Stateless apart from the immutable key material: safe for concurrent use
// across request handlers.
type TokenService struct {
	keys *Keys
}

// NewTokenService creates a [TokenService] bound to the given key material.
func NewTokenService(keys *Keys) *TokenService {
	return &TokenService{keys: keys}
}

/*
SignRefresh builds and signs a refresh token.

Parameters:
  - sessionID: Session row uuid ("sess" claim)
  - subject: User uuid ("sub" claim)
  - tokenID: The session's current token column ("jti" claim)
  - ct: Client type
  - timeToLive: Token lifetime (exp = now + timeToLive, nbf = now)

Returns:
  - string: Compact signed token
  - error: Signing failures (programmer error — key invariants already upheld)
*/
func (service *TokenService) SignRefresh(sessionID, subject, tokenID string, ct ClientType, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
			NotBefore: jwt.NewNumericDate(currentTime),
		},
		SessionID: sessionID,
		Ct:        ct,
	}
	return service.sign(claims)
}

/*
SignAccess builds and signs an access token with a fresh per-issuance jti.

Parameters:
  - sessionID: Session row uuid ("iss" claim)
  - subject: User uuid ("sub" claim)
  - ct: Client type
  - timeToLive: Token lifetime

Returns:
  - string: Compact signed token
  - error: Signing failures
*/
func (service *TokenService) SignAccess(sessionID, subject string, ct ClientType, timeToLive time.Duration) (string, error) {
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionID,
			Subject:   subject,
			ID:        uuid.New(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(timeToLive)),
		},
		Ct: ct,
	}
	return service.sign(claims)
}

/*
SignPIT builds and signs a Player Identity Token.

Parameters:
  - serverID: 12-character game server ID ("aud" claim)
  - subject: User uuid ("sub" claim)
  - ct: Client type
  - timeToLive: Token lifetime

Returns:
  - string: Compact signed token
  - error: Signing failures
*/
func (service *TokenService) SignPIT(serverID, subject string, ct ClientType, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := PITClaims{
		Audience:  serverID,
		Subject:   subject,
		ID:        uuid.New(),
		ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		NotBefore: jwt.NewNumericDate(currentTime),
		Ct:        ct,
	}
	return service.sign(claims)
}

// DecodeRefresh verifies signature, exp, and nbf of a refresh token.
func (service *TokenService) DecodeRefresh(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := service.decode(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// DecodeAccess verifies signature and exp of an access token.
func (service *TokenService) DecodeAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := service.decode(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// DecodePIT verifies signature, exp, and nbf of a Player Identity Token.
func (service *TokenService) DecodePIT(tokenString string) (*PITClaims, error) {
	claims := &PITClaims{}
	if err := service.decode(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// sign serializes claims as a compact EdDSA token.
func (service *TokenService) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signedToken, err := token.SignedString(service.keys.Signer())
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}
	return signedToken, nil
}

// decode parses and verifies a compact token into the given claims struct.
//
// Expired tokens return [ErrTokenExpired]; every other failure (bad
// signature, wrong algorithm, premature nbf, garbage input) returns
// [ErrTokenInvalid].
func (service *TokenService) decode(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return service.keys.Verifier(), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(VerifyLeeway),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if !token.Valid {
		return ErrTokenInvalid
	}

	return nil
}
