// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package hub

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/taibuivan/ecg-hub/internal/platform/apperr"
	"github.com/taibuivan/ecg-hub/internal/platform/dberr"
	"github.com/taibuivan/ecg-hub/internal/platform/sec"
	uuidpkg "github.com/taibuivan/ecg-hub/pkg/uuid"
)

// # Contracts & Types

// TokenProvider defines the contract for minting signed tokens.
type TokenProvider interface {
	// SignRefresh mints a refresh token bound to a session row.
	SignRefresh(sessionID, subject, tokenID string, ct sec.ClientType, timeToLive time.Duration) (string, error)
	// SignAccess mints a short-lived access token for a session.
	SignAccess(sessionID, subject string, ct sec.ClientType, timeToLive time.Duration) (string, error)
	// SignPIT mints a player identity token addressed to a game server.
	SignPIT(serverID, subject string, ct sec.ClientType, timeToLive time.Duration) (string, error)
}

// Service implements the hub's authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, session
// rotation, or login logic must be reviewed by the security team.
type Service struct {
	userRepository       UserRepository
	sessionRepository    SessionRepository
	resetTokenRepository ResetTokenRepository
	tokenProvider        TokenProvider
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	resetRepo ResetTokenRepository,
	tokenProv TokenProvider,
) *Service {
	return &Service{
		userRepository:       userRepo,
		sessionRepository:    sessionRepo,
		resetTokenRepository: resetRepo,
		tokenProvider:        tokenProv,
	}
}

// Unique-constraint names from the "User" table schema.
const (
	constraintUsername = "User_username_key"
	constraintEmail    = "User_email_key"
)

// allClientTypes drives operations that sweep every session table.
var allClientTypes = []sec.ClientType{sec.ClientWeb, sec.ClientGame, sec.ClientMobile}

// checkStatus gates authentication on the account's lifecycle state.
func checkStatus(user *User) error {
	switch user.Status {
	case StatusActive:
		return nil
	case StatusBanned:
		return apperr.Gone("User is banned")
	case StatusInactive:
		return apperr.Teapot("User is not active")
	default:
		return apperr.Gone("User is in an unknown state")
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

/*
Register hashes the password and persists a brand new account.

Description: Uniqueness is enforced by the database, not by pre-checks; a
unique violation is mapped to a 409 naming the conflicting field so two
concurrent registrations cannot both pass a read-then-write race.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity (uuid and timestamps populated)
  - error: apperr.Conflict (if identity exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {

	// Prevent storing plain-text passwords.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hub_service_hash_failed: %w", err)
	}

	user := &User{
		Username: input.Username,
		Email:    input.Email,
		Password: hashedPassword,
		Status:   StatusActive,
	}

	if err := service.userRepository.Create(context, user); err != nil {

		// Map unique violations to a field-specific conflict message.
		if dberr.IsUniqueViolation(err) {
			constraint, _ := dberr.ConstraintName(err)
			switch constraint {
			case constraintUsername:
				return nil, apperr.Conflict("Username is already taken")
			case constraintEmail:
				return nil, apperr.Conflict("Email is already registered")
			default:
				return nil, apperr.Conflict("Account already exists")
			}
		}

		return nil, fmt.Errorf("hub_service_register_failed: %w", err)
	}

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Username string
	Password string
	Ct       sec.ClientType
}

// LoginResult carries everything the transport layer needs to answer a
// successful login: the access token body and the refresh cookie material.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

/*
Login validates credentials and establishes a per-client-type session.

Description: On success the session table for the client type gains (or
overwrites) the row for this user, and both token kinds are minted from the
committed row. A second login on the same (user, client type) silently
invalidates the previous session's refresh token.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginResult: Transport-ready tokens
  - error: apperr.Unauthorized, apperr.Gone (banned), apperr.Teapot (inactive), or storage errors
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginResult, error) {

	// Unknown username yields the same response as a wrong password to
	// prevent account enumeration.
	user, err := service.userRepository.FindByUsername(context, input.Username)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// Verify password hash using constant-time comparison to prevent timing attacks.
	if !sec.CheckPasswordHash(input.Password, user.Password) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// Gate on account status after the password check so a banned account
	// with a wrong password still reads as a credential failure.
	if err := checkStatus(user); err != nil {
		return nil, err
	}

	// Create or overwrite the session row for (user, client type).
	expiresAt := time.Now().Add(RefreshTokenTTL)
	session, err := service.sessionRepository.Upsert(context, input.Ct, user.UUID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("hub_service_session_upsert_failed: %w", err)
	}

	// The refresh token's jti mirrors the session's rolling token column.
	refreshToken, err := service.tokenProvider.SignRefresh(session.UUID, user.UUID, session.Token, input.Ct, RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("hub_service_refresh_sign_failed: %w", err)
	}

	accessToken, err := service.tokenProvider.SignAccess(session.UUID, user.UUID, input.Ct, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("hub_service_access_sign_failed: %w", err)
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// # Session Management

// RefreshResult carries a freshly minted access token and, when the session
// was rotated, the replacement refresh token for the cookie.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
	Rotated      bool
}

/*
Refresh mints a new access token from verified refresh-token claims.

Description: The session is resolved by the sess claim and the presented jti
is compared against the stored rolling token; a mismatch means the refresh
token was already rotated away (reuse or a stale cookie) and is rejected
outright. When the session is within the rotation window of its expiry, the
rolling token is regenerated and the expiry extended, and the caller receives
a replacement refresh token.

Parameters:
  - context: context.Context
  - claims: *sec.RefreshClaims (already signature-verified)

Returns:
  - *RefreshResult: New access token, plus a rotated refresh token if applicable
  - error: apperr.NotFound (session gone), apperr.Forbidden (rotation mismatch), or storage errors
*/
func (service *Service) Refresh(context context.Context, claims *sec.RefreshClaims) (*RefreshResult, error) {

	// ── 1. Resolve the session row ────────────────────────────────────────
	session, err := service.sessionRepository.FindByUUID(context, claims.Ct, claims.SessionID)
	if err != nil {
		return nil, err
	}

	// ── 2. Detect rotation mismatch ───────────────────────────────────────
	// The jti of a live refresh token always equals the stored rolling
	// token. Any other value is a token that rotation left behind.
	if session.Token != claims.ID {
		return nil, apperr.Forbidden("Refresh token has been superseded")
	}

	result := &RefreshResult{}

	// ── 3. Rotate when approaching expiry ─────────────────────────────────
	if time.Until(session.Exp) < RotationPeriod {
		expiresAt := time.Now().Add(RefreshTokenTTL)
		if err := service.sessionRepository.Rotate(context, claims.Ct, session, expiresAt); err != nil {
			return nil, err
		}

		rotatedToken, err := service.tokenProvider.SignRefresh(session.UUID, session.Sub, session.Token, claims.Ct, RefreshTokenTTL)
		if err != nil {
			return nil, fmt.Errorf("hub_service_rotation_sign_failed: %w", err)
		}

		result.RefreshToken = rotatedToken
		result.Rotated = true
	}

	// ── 4. Mint the access token ──────────────────────────────────────────
	accessToken, err := service.tokenProvider.SignAccess(session.UUID, session.Sub, claims.Ct, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("hub_service_access_sign_failed: %w", err)
	}
	result.AccessToken = accessToken

	return result, nil
}

/*
Revoke destroys the session behind a verified access token.

Description: The access token's issuer claim is the session uuid; the row is
looked up first so a missing session reads as 404 rather than a silent no-op.

Parameters:
  - context: context.Context
  - claims: *sec.AccessClaims

Returns:
  - error: apperr.NotFound or storage errors
*/
func (service *Service) Revoke(context context.Context, claims *sec.AccessClaims) error {
	session, err := service.sessionRepository.FindByUUID(context, claims.Ct, claims.Issuer)
	if err != nil {
		return err
	}

	return service.sessionRepository.Delete(context, claims.Ct, session.UUID)
}

/*
RevokeAll destroys every session of the caller across all client types, then
re-establishes a fresh session for the caller's own client type.

Description: The caller stays authenticated: their old refresh token dies
with the sweep, and the returned refresh token belongs to the brand-new
session row (new uuid, new rolling token).

Parameters:
  - context: context.Context
  - claims: *sec.AccessClaims

Returns:
  - string: Replacement refresh token for the caller's cookie
  - error: apperr.NotFound (caller session gone) or storage errors
*/
func (service *Service) RevokeAll(context context.Context, claims *sec.AccessClaims) (string, error) {

	// The caller must still own a live session to wield revoke-all.
	session, err := service.sessionRepository.FindByUUID(context, claims.Ct, claims.Issuer)
	if err != nil {
		return "", err
	}

	// Sweep every client-type table for this user.
	for _, ct := range allClientTypes {
		if err := service.sessionRepository.DeleteBySub(context, ct, session.Sub); err != nil {
			return "", err
		}
	}

	// Re-establish a session for the caller's client type.
	expiresAt := time.Now().Add(RefreshTokenTTL)
	fresh, err := service.sessionRepository.Upsert(context, claims.Ct, session.Sub, expiresAt)
	if err != nil {
		return "", fmt.Errorf("hub_service_revoke_all_upsert_failed: %w", err)
	}

	refreshToken, err := service.tokenProvider.SignRefresh(fresh.UUID, fresh.Sub, fresh.Token, claims.Ct, RefreshTokenTTL)
	if err != nil {
		return "", fmt.Errorf("hub_service_revoke_all_sign_failed: %w", err)
	}

	return refreshToken, nil
}

/*
PlayerIdentityToken mints a PIT addressed to a specific game server.

Description: The PIT inherits sub and ct from the caller's access token and
carries the target server id as its audience. Its lifetime is seconds: it is
handed to the game server immediately for a single verification.

Parameters:
  - context: context.Context
  - claims: *sec.AccessClaims
  - serverID: string (12-char alphanumeric server identifier)

Returns:
  - string: Compact signed PIT
  - error: Signing failures
*/
func (service *Service) PlayerIdentityToken(context context.Context, claims *sec.AccessClaims, serverID string) (string, error) {
	pit, err := service.tokenProvider.SignPIT(serverID, claims.Subject, claims.Ct, PITTokenTTL)
	if err != nil {
		return "", fmt.Errorf("hub_service_pit_sign_failed: %w", err)
	}
	return pit, nil
}

/*
Sessions reports the caller's live session in each client-type table.

Parameters:
  - context: context.Context
  - sub: string (user uuid)

Returns:
  - []UserSession: One entry per client type that holds a session
  - error: Storage errors (absence of a session is not an error)
*/
func (service *Service) Sessions(context context.Context, sub string) ([]UserSession, error) {
	sessions := make([]UserSession, 0, len(allClientTypes))

	for _, ct := range allClientTypes {
		session, err := service.sessionRepository.FindBySub(context, ct, sub)
		if err != nil {
			// Only absence is skipped; any other store failure propagates.
			if ae := apperr.As(err); ae != nil && ae.HTTPStatus == http.StatusNotFound {
				continue
			}
			return nil, err
		}
		sessions = append(sessions, UserSession{
			ClientType: ct,
			UUID:       session.UUID,
			Exp:        session.Exp,
			UpdatedAt:  session.UpdatedAt,
			CreatedAt:  session.CreatedAt,
		})
	}

	return sessions, nil
}

/*
DeleteExpiredSessions removes expired rows from every session table.

Description: Invoked by the background janitor on a fixed interval.

Parameters:
  - context: context.Context

Returns:
  - int64: Total rows removed across all tables
  - error: Storage errors
*/
func (service *Service) DeleteExpiredSessions(context context.Context) (int64, error) {
	var total int64
	for _, ct := range allClientTypes {
		removed, err := service.sessionRepository.DeleteExpired(context, ct)
		if err != nil {
			return total, err
		}
		total += removed
	}
	return total, nil
}

// # Account Access

/*
UserInfo resolves the public projection of an account by uuid or username.

Description: Exactly one selector must be provided.

Parameters:
  - context: context.Context
  - uuid: string (may be empty)
  - username: string (may be empty)

Returns:
  - *UserInfo: Public projection
  - error: apperr.ValidationError, apperr.NotFound, or storage errors
*/
func (service *Service) UserInfo(context context.Context, uuid, username string) (*UserInfo, error) {
	var user *User
	var err error

	switch {
	case uuid != "" && username == "":
		// A malformed uuid would otherwise surface as a database error.
		if !uuidpkg.Validate(uuid) {
			return nil, apperr.ValidationError("Provided uuid is malformed")
		}
		user, err = service.userRepository.FindByUUID(context, uuid)
	case username != "" && uuid == "":
		user, err = service.userRepository.FindByUsername(context, username)
	default:
		return nil, apperr.ValidationError("Provide exactly one of uuid or username")
	}

	if err != nil {
		return nil, err
	}

	info := user.Info()
	return &info, nil
}

/*
UserData resolves the private projection of the caller's own account.

Parameters:
  - context: context.Context
  - uuid: string (from verified access-token claims)

Returns:
  - *UserData: Private projection
  - error: apperr.NotFound or storage errors
*/
func (service *Service) UserData(context context.Context, uuid string) (*UserData, error) {
	user, err := service.userRepository.FindByUUID(context, uuid)
	if err != nil {
		return nil, err
	}

	data := user.Data()
	return &data, nil
}

// # Password Lifecycle

/*
ChangePassword replaces the caller's password after verifying the old one.

Description: A wrong old password answers 304 Not Modified: the account state
is untouched and the client may retry with the correct credential.

Parameters:
  - context: context.Context
  - uuid: string (from verified access-token claims)
  - oldPassword: string
  - newPassword: string

Returns:
  - error: apperr.NotModified (wrong old password), apperr.NotFound, or storage errors
*/
func (service *Service) ChangePassword(context context.Context, uuid, oldPassword, newPassword string) error {
	user, err := service.userRepository.FindByUUID(context, uuid)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(oldPassword, user.Password) {
		return apperr.NotModified("Old password does not match")
	}

	newHash, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hub_service_hash_failed: %w", err)
	}

	return service.userRepository.UpdatePassword(context, user.UUID, newHash)
}

/*
ForgotPassword initiates the password recovery flow.

Description: Generates a single-use token bound to the account and stores it
with a short TTL. An unknown email yields an empty token and no error so the
endpoint cannot be used for account enumeration.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - string: Recovery token ("" when the email is unknown)
  - error: Generation or storage errors
*/
func (service *Service) ForgotPassword(context context.Context, email string) (string, error) {
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		// Only an unknown email is silenced; any other store failure propagates.
		if ae := apperr.As(err); ae != nil && ae.HTTPStatus == http.StatusNotFound {
			return "", nil
		}
		return "", err
	}

	token, err := sec.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return "", fmt.Errorf("hub_service_reset_token_failed: %w", err)
	}

	if err := service.resetTokenRepository.Set(context, token, user.UUID, ResetTokenTTL); err != nil {
		return "", fmt.Errorf("hub_service_reset_token_store_failed: %w", err)
	}

	return token, nil
}

/*
ResetPassword completes the password recovery flow.

Description: Consumes the recovery token (single use) and replaces the
password. All sessions are swept so a stolen refresh token dies with the old
password.

Parameters:
  - context: context.Context
  - token: string
  - newPassword: string

Returns:
  - error: apperr.NotFound (bad or expired token) or storage errors
*/
func (service *Service) ResetPassword(context context.Context, token, newPassword string) error {
	userUUID, err := service.resetTokenRepository.Get(context, token)
	if err != nil {
		return err
	}

	newHash, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hub_service_hash_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(context, userUUID, newHash); err != nil {
		return err
	}

	// Best effort: the token is spent and all sessions are revoked.
	_ = service.resetTokenRepository.Delete(context, token)
	for _, ct := range allClientTypes {
		_ = service.sessionRepository.DeleteBySub(context, ct, userUUID)
	}

	return nil
}
