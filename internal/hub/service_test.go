// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package hub_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/ecg-hub/internal/hub"
	"github.com/taibuivan/ecg-hub/internal/platform/apperr"
	"github.com/taibuivan/ecg-hub/internal/platform/sec"
	"github.com/taibuivan/ecg-hub/pkg/uuid"
)

// # In-Memory Fakes

// fakeUserRepository keeps accounts in a map and mimics the database's
// unique-violation behavior on username/email collisions.
type fakeUserRepository struct {
	users map[string]*hub.User // keyed by uuid
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: make(map[string]*hub.User)}
}

func (repo *fakeUserRepository) Create(_ context.Context, user *hub.User) error {
	for _, existing := range repo.users {
		if existing.Username == user.Username {
			return &pgconn.PgError{Code: "23505", ConstraintName: "User_username_key"}
		}
		if existing.Email == user.Email {
			return &pgconn.PgError{Code: "23505", ConstraintName: "User_email_key"}
		}
	}

	user.UUID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	repo.users[user.UUID] = &clone
	return nil
}

func (repo *fakeUserRepository) FindByUUID(_ context.Context, id string) (*hub.User, error) {
	if user, ok := repo.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepository) FindByUsername(_ context.Context, username string) (*hub.User, error) {
	for _, user := range repo.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepository) FindByEmail(_ context.Context, email string) (*hub.User, error) {
	for _, user := range repo.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeUserRepository) UpdatePassword(_ context.Context, id, newHash string) error {
	user, ok := repo.users[id]
	if !ok {
		return apperr.NotFound("User")
	}
	user.Password = newHash
	user.UpdatedAt = time.Now()
	return nil
}

// fakeSessionRepository models the three per-client-type tables with the
// UNIQUE(sub) upsert semantics of the real schema.
type fakeSessionRepository struct {
	tables map[sec.ClientType]map[string]*hub.Session // ct -> sub -> row
}

func newFakeSessionRepository() *fakeSessionRepository {
	return &fakeSessionRepository{
		tables: map[sec.ClientType]map[string]*hub.Session{
			sec.ClientWeb:    {},
			sec.ClientGame:   {},
			sec.ClientMobile: {},
		},
	}
}

func (repo *fakeSessionRepository) Upsert(_ context.Context, ct sec.ClientType, sub string, exp time.Time) (*hub.Session, error) {
	now := time.Now()
	session := &hub.Session{
		UUID:      uuid.New(),
		Sub:       sub,
		Token:     uuid.New(),
		Exp:       exp,
		UpdatedAt: now,
		CreatedAt: now,
	}
	repo.tables[ct][sub] = session
	clone := *session
	return &clone, nil
}

func (repo *fakeSessionRepository) FindByUUID(_ context.Context, ct sec.ClientType, id string) (*hub.Session, error) {
	for _, session := range repo.tables[ct] {
		if session.UUID == id {
			clone := *session
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Session")
}

func (repo *fakeSessionRepository) FindBySub(_ context.Context, ct sec.ClientType, sub string) (*hub.Session, error) {
	if session, ok := repo.tables[ct][sub]; ok {
		clone := *session
		return &clone, nil
	}
	return nil, apperr.NotFound("Session")
}

func (repo *fakeSessionRepository) Rotate(_ context.Context, ct sec.ClientType, session *hub.Session, exp time.Time) error {
	stored, ok := repo.tables[ct][session.Sub]
	if !ok || stored.UUID != session.UUID {
		return apperr.NotFound("Session")
	}
	stored.Token = uuid.New()
	stored.Exp = exp
	stored.UpdatedAt = time.Now()
	session.Token = stored.Token
	session.Exp = exp
	return nil
}

func (repo *fakeSessionRepository) Delete(_ context.Context, ct sec.ClientType, id string) error {
	for sub, session := range repo.tables[ct] {
		if session.UUID == id {
			delete(repo.tables[ct], sub)
			return nil
		}
	}
	return apperr.NotFound("Session")
}

func (repo *fakeSessionRepository) DeleteBySub(_ context.Context, ct sec.ClientType, sub string) error {
	delete(repo.tables[ct], sub)
	return nil
}

func (repo *fakeSessionRepository) DeleteExpired(_ context.Context, ct sec.ClientType) (int64, error) {
	var removed int64
	for sub, session := range repo.tables[ct] {
		if session.Exp.Before(time.Now()) {
			delete(repo.tables[ct], sub)
			removed++
		}
	}
	return removed, nil
}

// setExp backdates a stored session's expiry to force or suppress rotation.
func (repo *fakeSessionRepository) setExp(ct sec.ClientType, sub string, exp time.Time) {
	if session, ok := repo.tables[ct][sub]; ok {
		session.Exp = exp
	}
}

// failingSessionRepository overrides FindBySub with a fixed error to exercise
// store-failure propagation.
type failingSessionRepository struct {
	*fakeSessionRepository
	findBySubErr error
}

func (repo *failingSessionRepository) FindBySub(_ context.Context, _ sec.ClientType, _ string) (*hub.Session, error) {
	return nil, repo.findBySubErr
}

// fakeResetTokenRepository is a TTL-less stand-in for the Redis store.
type fakeResetTokenRepository struct {
	tokens map[string]string
}

func newFakeResetTokenRepository() *fakeResetTokenRepository {
	return &fakeResetTokenRepository{tokens: make(map[string]string)}
}

func (repo *fakeResetTokenRepository) Set(_ context.Context, token, userUUID string, _ time.Duration) error {
	repo.tokens[token] = userUUID
	return nil
}

func (repo *fakeResetTokenRepository) Get(_ context.Context, token string) (string, error) {
	if userUUID, ok := repo.tokens[token]; ok {
		return userUUID, nil
	}
	return "", apperr.NotFound("Reset token")
}

func (repo *fakeResetTokenRepository) Delete(_ context.Context, token string) error {
	delete(repo.tokens, token)
	return nil
}

// # Test Fixture

type fixture struct {
	service  *hub.Service
	users    *fakeUserRepository
	sessions *fakeSessionRepository
	resets   *fakeResetTokenRepository
	tokens   *sec.TokenService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	keys, err := sec.GenerateKeys()
	require.NoError(t, err)

	users := newFakeUserRepository()
	sessions := newFakeSessionRepository()
	resets := newFakeResetTokenRepository()
	tokens := sec.NewTokenService(keys)

	return &fixture{
		service:  hub.NewService(users, sessions, resets, tokens),
		users:    users,
		sessions: sessions,
		resets:   resets,
		tokens:   tokens,
	}
}

// registerUser enrolls an account through the real Register path.
func (f *fixture) registerUser(t *testing.T, username, email, password string) *hub.User {
	t.Helper()
	user, err := f.service.Register(context.Background(), hub.RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return user
}

// login authenticates and fails the test on error.
func (f *fixture) login(t *testing.T, username, password string, ct sec.ClientType) *hub.LoginResult {
	t.Helper()
	result, err := f.service.Login(context.Background(), hub.LoginInput{
		Username: username,
		Password: password,
		Ct:       ct,
	})
	require.NoError(t, err)
	return result
}

func assertStatus(t *testing.T, err error, wantStatus int) {
	t.Helper()
	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae, "expected an AppError, got %v", err)
	assert.Equal(t, wantStatus, ae.HTTPStatus)
}

// # Registration

/*
TestService_Register_Conflicts verifies that username and email collisions
answer 409 with a message naming the conflicting field.
*/
func TestService_Register_Conflicts(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "bob", "b@x.y", "pw123456")

	_, err := f.service.Register(context.Background(), hub.RegisterInput{
		Username: "bob", Email: "c@x.y", Password: "pw123456",
	})
	assertStatus(t, err, http.StatusConflict)
	assert.Contains(t, err.Error(), "Username")

	_, err = f.service.Register(context.Background(), hub.RegisterInput{
		Username: "bob2", Email: "b@x.y", Password: "pw123456",
	})
	assertStatus(t, err, http.StatusConflict)
	assert.Contains(t, err.Error(), "Email")
}

/*
TestService_Register_HashesPassword verifies the stored credential is an
argon2id hash, never the plain text.
*/
func TestService_Register_HashesPassword(t *testing.T) {
	f := newFixture(t)
	user := f.registerUser(t, "alice", "a@x.y", "pw123456")

	stored, err := f.users.FindByUUID(context.Background(), user.UUID)
	require.NoError(t, err)
	assert.NotEqual(t, "pw123456", stored.Password)
	assert.True(t, sec.CheckPasswordHash("pw123456", stored.Password))
}

// # Login

/*
TestService_Login_IssuesBoundTokens verifies the refresh and access tokens
are bound to the committed session row.
*/
func TestService_Login_IssuesBoundTokens(t *testing.T) {
	f := newFixture(t)
	user := f.registerUser(t, "alice", "a@x.y", "pw123456")

	result := f.login(t, "alice", "pw123456", sec.ClientWeb)

	session, err := f.sessions.FindBySub(context.Background(), sec.ClientWeb, user.UUID)
	require.NoError(t, err)

	refreshClaims, err := f.tokens.DecodeRefresh(result.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, session.UUID, refreshClaims.SessionID)
	assert.Equal(t, user.UUID, refreshClaims.Subject)
	assert.Equal(t, session.Token, refreshClaims.ID)
	assert.Equal(t, sec.ClientWeb, refreshClaims.Ct)

	accessClaims, err := f.tokens.DecodeAccess(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.UUID, accessClaims.Issuer)
	assert.Equal(t, user.UUID, accessClaims.Subject)
	assert.Equal(t, sec.ClientWeb, accessClaims.Ct)
}

/*
TestService_Login_Failures covers the credential and status gates:
401 unknown/wrong password, 410 banned, 418 inactive.
*/
func TestService_Login_Failures(t *testing.T) {
	f := newFixture(t)
	user := f.registerUser(t, "alice", "a@x.y", "pw123456")

	_, err := f.service.Login(context.Background(), hub.LoginInput{
		Username: "nobody", Password: "pw123456", Ct: sec.ClientWeb,
	})
	assertStatus(t, err, http.StatusUnauthorized)

	_, err = f.service.Login(context.Background(), hub.LoginInput{
		Username: "alice", Password: "wrong-pass", Ct: sec.ClientWeb,
	})
	assertStatus(t, err, http.StatusUnauthorized)

	f.users.users[user.UUID].Status = hub.StatusBanned
	_, err = f.service.Login(context.Background(), hub.LoginInput{
		Username: "alice", Password: "pw123456", Ct: sec.ClientWeb,
	})
	assertStatus(t, err, http.StatusGone)

	f.users.users[user.UUID].Status = hub.StatusInactive
	_, err = f.service.Login(context.Background(), hub.LoginInput{
		Username: "alice", Password: "pw123456", Ct: sec.ClientWeb,
	})
	assertStatus(t, err, http.StatusTeapot)
}

/*
TestService_Login_OverwritesPreviousSession verifies that a second login on
the same client type strands the first login's refresh token.
*/
func TestService_Login_OverwritesPreviousSession(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "alice", "a@x.y", "pw123456")

	first := f.login(t, "alice", "pw123456", sec.ClientWeb)
	firstClaims, err := f.tokens.DecodeRefresh(first.RefreshToken)
	require.NoError(t, err)

	second := f.login(t, "alice", "pw123456", sec.ClientWeb)
	secondClaims, err := f.tokens.DecodeRefresh(second.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, firstClaims.SessionID, secondClaims.SessionID)

	// The first session row is gone, so its refresh claims resolve nothing.
	_, err = f.service.Refresh(context.Background(), firstClaims)
	assertStatus(t, err, http.StatusNotFound)

	// The second login's token refreshes fine.
	_, err = f.service.Refresh(context.Background(), secondClaims)
	assert.NoError(t, err)
}

/*
TestService_Login_ClientTypesAreIndependent verifies that web, game, and
mobile sessions of one user coexist.
*/
func TestService_Login_ClientTypesAreIndependent(t *testing.T) {
	f := newFixture(t)
	user := f.registerUser(t, "alice", "a@x.y", "pw123456")

	f.login(t, "alice", "pw123456", sec.ClientWeb)
	f.login(t, "alice", "pw123456", sec.ClientGame)
	f.login(t, "alice", "pw123456", sec.ClientMobile)

	sessions, err := f.service.Sessions(context.Background(), user.UUID)
	require.NoError(t, err)
	assert.Len(t, sessions, 3)
}

/*
TestService_Sessions_PropagatesStoreErrors verifies that only a missing row is
skipped when listing sessions; any other store failure surfaces to the caller.
*/
func TestService_Sessions_PropagatesStoreErrors(t *testing.T) {
	f := newFixture(t)
	user := f.registerUser(t, "alice", "a@x.y", "pw123456")

	failing := &failingSessionRepository{
		fakeSessionRepository: f.sessions,
		findBySubErr:          apperr.Internal(errors.New("connection reset")),
	}
	service := hub.NewService(f.users, failing, f.resets, f.tokens)

	_, err := service.Sessions(context.Background(), user.UUID)
	assertStatus(t, err, http.StatusInternalServerError)
}

// # Refresh & Rotation

/*
TestService_Refresh_NoRotation verifies that a session far from expiry only
mints an access token and keeps the cookie untouched.
*/
func TestService_Refresh_NoRotation(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "alice", "a@x.y", "pw123456")
	result := f.login(t, "alice", "pw123456", sec.ClientWeb)

	claims, err := f.tokens.DecodeRefresh(result.RefreshToken)
	require.NoError(t, err)

	refreshed, err := f.service.Refresh(context.Background(), claims)
	require.NoError(t, err)

	assert.False(t, refreshed.Rotated)
	assert.Empty(t, refreshed.RefreshToken)
	assert.NotEmpty(t, refreshed.AccessToken)

	// The same cookie keeps working.
	_, err = f.service.Refresh(context.Background(), claims)
	assert.NoError(t, err)
}

/*
TestService_Refresh_Rotation verifies that a session inside the 7-day window
rotates: the new cookie carries a new jti and the old one dies with 403.
*/
func TestService_Refresh_Rotation(t *testing.T) {
	f := newFixture(t)
	user := f.registerUser(t, "alice", "a@x.y", "pw123456")
	result := f.login(t, "alice", "pw123456", sec.ClientWeb)

	oldClaims, err := f.tokens.DecodeRefresh(result.RefreshToken)
	require.NoError(t, err)

	// Push the session into the rotation window.
	f.sessions.setExp(sec.ClientWeb, user.UUID, time.Now().Add(3*24*time.Hour))

	refreshed, err := f.service.Refresh(context.Background(), oldClaims)
	require.NoError(t, err)
	require.True(t, refreshed.Rotated)
	require.NotEmpty(t, refreshed.RefreshToken)

	newClaims, err := f.tokens.DecodeRefresh(refreshed.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, oldClaims.SessionID, newClaims.SessionID)
	assert.NotEqual(t, oldClaims.ID, newClaims.ID)

	// The expiry was extended past the rotation window.
	session, err := f.sessions.FindBySub(context.Background(), sec.ClientWeb, user.UUID)
	require.NoError(t, err)
	assert.Greater(t, time.Until(session.Exp), hub.RotationPeriod)

	// The superseded cookie is rejected.
	_, err = f.service.Refresh(context.Background(), oldClaims)
	assertStatus(t, err, http.StatusForbidden)

	// The rotated cookie works.
	_, err = f.service.Refresh(context.Background(), newClaims)
	assert.NoError(t, err)
}

/*
TestService_Refresh_UnknownSession verifies 404 for a session uuid with no row.
*/
func TestService_Refresh_UnknownSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Refresh(context.Background(), &sec.RefreshClaims{
		SessionID: uuid.New(),
		Ct:        sec.ClientWeb,
	})
	assertStatus(t, err, http.StatusNotFound)
}

// # Revocation

/*
TestService_Revoke verifies session destruction and 404 on a repeat revoke.
*/
func TestService_Revoke(t *testing.T) {
	f := newFixture(t)
	f.registerUser(t, "alice", "a@x.y", "pw123456")
	result := f.login(t, "alice", "pw123456", sec.ClientWeb)

	accessClaims, err := f.tokens.DecodeAccess(result.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.service.Revoke(context.Background(), accessClaims))

	// The refresh token backed by this session is now useless.
	refreshClaims, err := f.tokens.DecodeRefresh(result.RefreshToken)
	require.NoError(t, err)
	_, err = f.service.Refresh(context.Background(), refreshClaims)
	assertStatus(t, err, http.StatusNotFound)

	// Revoking again answers 404.
	assertStatus(t, f.service.Revoke(context.Background(), accessClaims), http.StatusNotFound)
}

/*
TestService_RevokeAll verifies the cross-client-type sweep: every session
dies, and the caller gets a brand-new session for their own client type.
*/
func TestService_RevokeAll(t *testing.T) {
	f := newFixture(t)
	user := f.registerUser(t, "alice", "a@x.y", "pw123456")

	webLogin := f.login(t, "alice", "pw123456", sec.ClientWeb)
	f.login(t, "alice", "pw123456", sec.ClientGame)
	f.login(t, "alice", "pw123456", sec.ClientMobile)

	webAccess, err := f.tokens.DecodeAccess(webLogin.AccessToken)
	require.NoError(t, err)
	oldWebSessionID := webAccess.Issuer

	newRefreshToken, err := f.service.RevokeAll(context.Background(), webAccess)
	require.NoError(t, err)

	// Game and mobile sessions no longer exist.
	_, err = f.sessions.FindBySub(context.Background(), sec.ClientGame, user.UUID)
	assertStatus(t, err, http.StatusNotFound)
	_, err = f.sessions.FindBySub(context.Background(), sec.ClientMobile, user.UUID)
	assertStatus(t, err, http.StatusNotFound)

	// A fresh web session exists with a different uuid.
	newClaims, err := f.tokens.DecodeRefresh(newRefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, oldWebSessionID, newClaims.SessionID)

	// And the new cookie refreshes.
	_, err = f.service.Refresh(context.Background(), newClaims)
	assert.NoError(t, err)
}

// # Player Identity Tokens

/*
TestService_PlayerIdentityToken verifies the PIT inherits sub/ct from the
access token and is scoped to the requested server.
*/
func TestService_PlayerIdentityToken(t *testing.T) {
	f := newFixture(t)
	user := f.registerUser(t, "alice", "a@x.y", "pw123456")
	result := f.login(t, "alice", "pw123456", sec.ClientGame)

	accessClaims, err := f.tokens.DecodeAccess(result.AccessToken)
	require.NoError(t, err)

	pit, err := f.service.PlayerIdentityToken(context.Background(), accessClaims, "eYp1Zl1td14E")
	require.NoError(t, err)

	pitClaims, err := f.tokens.DecodePIT(pit)
	require.NoError(t, err)
	assert.Equal(t, "eYp1Zl1td14E", pitClaims.Audience)
	assert.Equal(t, user.UUID, pitClaims.Subject)
	assert.Equal(t, sec.ClientGame, pitClaims.Ct)
}

// # Account Access

/*
TestService_UserInfo verifies selector handling: uuid or username, never
both, never neither.
*/
func TestService_UserInfo(t *testing.T) {
	f := newFixture(t)
	user := f.registerUser(t, "alice", "a@x.y", "pw123456")

	byUUID, err := f.service.UserInfo(context.Background(), user.UUID, "")
	require.NoError(t, err)
	assert.Equal(t, "alice", byUUID.Username)
	assert.Equal(t, hub.StatusActive, byUUID.Status)

	byName, err := f.service.UserInfo(context.Background(), "", "alice")
	require.NoError(t, err)
	assert.Equal(t, user.UUID, byName.UUID)

	_, err = f.service.UserInfo(context.Background(), user.UUID, "alice")
	assertStatus(t, err, http.StatusBadRequest)

	_, err = f.service.UserInfo(context.Background(), "", "")
	assertStatus(t, err, http.StatusBadRequest)

	_, err = f.service.UserInfo(context.Background(), "not-a-uuid", "")
	assertStatus(t, err, http.StatusBadRequest)

	_, err = f.service.UserInfo(context.Background(), "", "nobody")
	assertStatus(t, err, http.StatusNotFound)
}

/*
TestService_UserData verifies the private projection includes the email.
*/
func TestService_UserData(t *testing.T) {
	f := newFixture(t)
	user := f.registerUser(t, "alice", "a@x.y", "pw123456")

	data, err := f.service.UserData(context.Background(), user.UUID)
	require.NoError(t, err)
	assert.Equal(t, "alice", data.Username)
	assert.Equal(t, "a@x.y", data.Email)
	assert.Equal(t, user.UUID, data.UUID)
}

// # Password Lifecycle

/*
TestService_ChangePassword verifies the old-password gate (304) and that the
new credential takes effect.
*/
func TestService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	user := f.registerUser(t, "alice", "a@x.y", "pw123456")

	err := f.service.ChangePassword(context.Background(), user.UUID, "wrong-old", "newpass123")
	assertStatus(t, err, http.StatusNotModified)

	require.NoError(t, f.service.ChangePassword(context.Background(), user.UUID, "pw123456", "newpass123"))

	_, err = f.service.Login(context.Background(), hub.LoginInput{
		Username: "alice", Password: "pw123456", Ct: sec.ClientWeb,
	})
	assertStatus(t, err, http.StatusUnauthorized)

	f.login(t, "alice", "newpass123", sec.ClientWeb)
}

/*
TestService_PasswordRecovery walks the forgot/reset flow end to end,
including the session sweep and single-use token consumption.
*/
func TestService_PasswordRecovery(t *testing.T) {
	f := newFixture(t)
	user := f.registerUser(t, "alice", "a@x.y", "pw123456")
	f.login(t, "alice", "pw123456", sec.ClientWeb)

	// Unknown email: silent no-op.
	token, err := f.service.ForgotPassword(context.Background(), "ghost@x.y")
	require.NoError(t, err)
	assert.Empty(t, token)

	token, err = f.service.ForgotPassword(context.Background(), "a@x.y")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, f.service.ResetPassword(context.Background(), token, "newpass123"))

	// Old sessions were swept.
	_, err = f.sessions.FindBySub(context.Background(), sec.ClientWeb, user.UUID)
	assertStatus(t, err, http.StatusNotFound)

	// The token is single-use.
	err = f.service.ResetPassword(context.Background(), token, "anotherpw1")
	assertStatus(t, err, http.StatusNotFound)

	// The new credential works.
	f.login(t, "alice", "newpass123", sec.ClientWeb)
}

// # Janitor

/*
TestService_DeleteExpiredSessions verifies the sweep counts rows across all
three tables and leaves live sessions alone.
*/
func TestService_DeleteExpiredSessions(t *testing.T) {
	f := newFixture(t)
	user := f.registerUser(t, "alice", "a@x.y", "pw123456")

	f.login(t, "alice", "pw123456", sec.ClientWeb)
	f.login(t, "alice", "pw123456", sec.ClientGame)
	f.login(t, "alice", "pw123456", sec.ClientMobile)

	f.sessions.setExp(sec.ClientWeb, user.UUID, time.Now().Add(-time.Hour))
	f.sessions.setExp(sec.ClientGame, user.UUID, time.Now().Add(-time.Minute))

	removed, err := f.service.DeleteExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	sessions, err := f.service.Sessions(context.Background(), user.UUID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, sec.ClientMobile, sessions[0].ClientType)
}
