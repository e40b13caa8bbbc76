// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package hub_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/ecg-hub/internal/hub"
	"github.com/taibuivan/ecg-hub/internal/platform/constants"
	"github.com/taibuivan/ecg-hub/internal/platform/middleware"
	"github.com/taibuivan/ecg-hub/internal/platform/sec"
)

// newRouter assembles the /user and /token subtrees behind the real
// authentication middleware, exactly as the composition root does.
func newRouter(f *fixture) http.Handler {
	handler := hub.NewHandler(f.service, f.tokens)

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(f.tokens))
	router.Mount("/user", handler.UserRoutes())
	router.Mount("/token", handler.TokenRoutes())
	return router
}

func doRequest(router http.Handler, method, target, body string, modify ...func(*http.Request)) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	request := httptest.NewRequest(method, target, reader)
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	for _, fn := range modify {
		fn(request)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func withBearer(token string) func(*http.Request) {
	return func(request *http.Request) {
		request.Header.Set("Authorization", "Bearer "+token)
	}
}

func withRefreshCookie(value string) func(*http.Request) {
	return func(request *http.Request) {
		request.AddCookie(&http.Cookie{Name: constants.RefreshTokenCookieName, Value: value})
	}
}

// refreshCookieFrom extracts the hub-rt cookie from a response, if any.
func refreshCookieFrom(recorder *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == constants.RefreshTokenCookieName {
			return cookie
		}
	}
	return nil
}

// # Account Endpoints

/*
TestHTTP_Register covers the 201 payload and field-specific 409 conflicts.
*/
func TestHTTP_Register(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)

	recorder := doRequest(router, http.MethodPost, "/user/register",
		`{"username":"alice","email":"a@x.y","password":"pw123456"}`)
	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"uuid"`)

	// Duplicate username.
	recorder = doRequest(router, http.MethodPost, "/user/register",
		`{"username":"alice","email":"b@x.y","password":"pw123456"}`)
	require.Equal(t, http.StatusConflict, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Username")

	// Duplicate email.
	recorder = doRequest(router, http.MethodPost, "/user/register",
		`{"username":"alice2","email":"a@x.y","password":"pw123456"}`)
	require.Equal(t, http.StatusConflict, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Email")

	// Validation failures.
	recorder = doRequest(router, http.MethodPost, "/user/register",
		`{"username":"x","email":"bad","password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = doRequest(router, http.MethodPost, "/user/register", `{not json`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

/*
TestHTTP_Login verifies the access-token body and the hub-rt cookie shape.
*/
func TestHTTP_Login(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	f.registerUser(t, "alice", "a@x.y", "pw123456")

	recorder := doRequest(router, http.MethodPost, "/user/login",
		`{"username":"alice","password":"pw123456","ct":0}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Header().Get("Content-Type"), "text/plain")

	// The body is the access token.
	accessClaims, err := f.tokens.DecodeAccess(recorder.Body.String())
	require.NoError(t, err)
	assert.Equal(t, sec.ClientWeb, accessClaims.Ct)

	// The cookie carries the refresh token with the full 6-month lifetime.
	cookie := refreshCookieFrom(recorder)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, constants.RefreshTokenCookiePath, cookie.Path)
	assert.Equal(t, int(hub.RefreshTokenTTL.Seconds()), cookie.MaxAge)

	_, err = f.tokens.DecodeRefresh(cookie.Value)
	assert.NoError(t, err)

	// Unknown client type fails validation.
	recorder = doRequest(router, http.MethodPost, "/user/login",
		`{"username":"alice","password":"pw123456","ct":7}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	// Wrong password.
	recorder = doRequest(router, http.MethodPost, "/user/login",
		`{"username":"alice","password":"wrong-pw","ct":0}`)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

/*
TestHTTP_UserInfo covers the public lookup and its selector rules.
*/
func TestHTTP_UserInfo(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	user := f.registerUser(t, "alice", "a@x.y", "pw123456")

	recorder := doRequest(router, http.MethodGet, "/user/info?username=alice", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), user.UUID)
	assert.NotContains(t, recorder.Body.String(), "a@x.y")

	recorder = doRequest(router, http.MethodGet, "/user/info?uuid="+user.UUID, "")
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = doRequest(router, http.MethodGet, "/user/info", "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = doRequest(router, http.MethodGet, "/user/info?username=ghost", "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

/*
TestHTTP_UserData verifies the owner-only projection and the 417 gate.
*/
func TestHTTP_UserData(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	f.registerUser(t, "alice", "a@x.y", "pw123456")
	login := f.login(t, "alice", "pw123456", sec.ClientWeb)

	recorder := doRequest(router, http.MethodGet, "/user/data", "", withBearer(login.AccessToken))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "a@x.y")

	// No bearer token at all.
	recorder = doRequest(router, http.MethodGet, "/user/data", "")
	assert.Equal(t, http.StatusExpectationFailed, recorder.Code)

	// Garbage bearer token.
	recorder = doRequest(router, http.MethodGet, "/user/data", "", withBearer("garbage"))
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

/*
TestHTTP_ChangePassword verifies 200 on success and 304 with an empty body
when the old password is wrong.
*/
func TestHTTP_ChangePassword(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	f.registerUser(t, "alice", "a@x.y", "pw123456")
	login := f.login(t, "alice", "pw123456", sec.ClientWeb)

	recorder := doRequest(router, http.MethodPut, "/user/password",
		`{"old_password":"wrong-old","new_password":"newpass123"}`, withBearer(login.AccessToken))
	assert.Equal(t, http.StatusNotModified, recorder.Code)
	assert.Empty(t, recorder.Body.String())

	recorder = doRequest(router, http.MethodPut, "/user/password",
		`{"old_password":"pw123456","new_password":"newpass123"}`, withBearer(login.AccessToken))
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestHTTP_Sessions verifies the per-client-type keys of the sessions payload.
*/
func TestHTTP_Sessions(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	f.registerUser(t, "alice", "a@x.y", "pw123456")

	webLogin := f.login(t, "alice", "pw123456", sec.ClientWeb)
	f.login(t, "alice", "pw123456", sec.ClientGame)

	recorder := doRequest(router, http.MethodGet, "/user/sessions", "", withBearer(webLogin.AccessToken))
	require.Equal(t, http.StatusOK, recorder.Code)

	body := recorder.Body.String()
	assert.Contains(t, body, `"web"`)
	assert.Contains(t, body, `"game"`)
	assert.NotContains(t, body, `"mobile"`)
}

// # Token Endpoints

/*
TestHTTP_Refresh covers the cookie extractor (417), decode failures (403),
and the no-rotation happy path.
*/
func TestHTTP_Refresh(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	f.registerUser(t, "alice", "a@x.y", "pw123456")
	login := f.login(t, "alice", "pw123456", sec.ClientWeb)

	// Missing cookie.
	recorder := doRequest(router, http.MethodGet, "/token/refresh", "")
	assert.Equal(t, http.StatusExpectationFailed, recorder.Code)

	// Undecodable cookie.
	recorder = doRequest(router, http.MethodGet, "/token/refresh", "", withRefreshCookie("garbage"))
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	// Valid cookie, session far from expiry: access token, no new cookie.
	recorder = doRequest(router, http.MethodGet, "/token/refresh", "", withRefreshCookie(login.RefreshToken))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Nil(t, refreshCookieFrom(recorder))

	_, err := f.tokens.DecodeAccess(recorder.Body.String())
	assert.NoError(t, err)
}

/*
TestHTTP_Refresh_Rotation verifies the rotated cookie is emitted and the old
cookie subsequently fails with 403.
*/
func TestHTTP_Refresh_Rotation(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	user := f.registerUser(t, "alice", "a@x.y", "pw123456")
	login := f.login(t, "alice", "pw123456", sec.ClientWeb)

	// Push the session into the rotation window.
	f.sessions.setExp(sec.ClientWeb, user.UUID, time.Now().Add(3*24*time.Hour))

	recorder := doRequest(router, http.MethodGet, "/token/refresh", "", withRefreshCookie(login.RefreshToken))
	require.Equal(t, http.StatusOK, recorder.Code)

	rotated := refreshCookieFrom(recorder)
	require.NotNil(t, rotated)
	assert.NotEqual(t, login.RefreshToken, rotated.Value)

	// The pre-rotation cookie is now rejected.
	recorder = doRequest(router, http.MethodGet, "/token/refresh", "", withRefreshCookie(login.RefreshToken))
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	// The rotated cookie works.
	recorder = doRequest(router, http.MethodGet, "/token/refresh", "", withRefreshCookie(rotated.Value))
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestHTTP_RevokeAndRevokeAll walks both revocation endpoints.
*/
func TestHTTP_RevokeAndRevokeAll(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	f.registerUser(t, "alice", "a@x.y", "pw123456")

	webLogin := f.login(t, "alice", "pw123456", sec.ClientWeb)
	gameLogin := f.login(t, "alice", "pw123456", sec.ClientGame)

	// Revoke the game session.
	recorder := doRequest(router, http.MethodGet, "/token/revoke", "", withBearer(gameLogin.AccessToken))
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doRequest(router, http.MethodGet, "/token/refresh", "", withRefreshCookie(gameLogin.RefreshToken))
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	// Revoke-all from the web session gets a replacement cookie.
	recorder = doRequest(router, http.MethodGet, "/token/revoke_all", "", withBearer(webLogin.AccessToken))
	require.Equal(t, http.StatusOK, recorder.Code)

	replacement := refreshCookieFrom(recorder)
	require.NotNil(t, replacement)

	recorder = doRequest(router, http.MethodGet, "/token/refresh", "", withRefreshCookie(replacement.Value))
	assert.Equal(t, http.StatusOK, recorder.Code)

	// The pre-revoke web cookie points at a destroyed session.
	recorder = doRequest(router, http.MethodGet, "/token/refresh", "", withRefreshCookie(webLogin.RefreshToken))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

/*
TestHTTP_PlayerIdentityToken verifies the sid validation and the PIT body.
*/
func TestHTTP_PlayerIdentityToken(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	user := f.registerUser(t, "alice", "a@x.y", "pw123456")
	login := f.login(t, "alice", "pw123456", sec.ClientGame)

	recorder := doRequest(router, http.MethodGet, "/token/pit?sid=eYp1Zl1td14E", "", withBearer(login.AccessToken))
	require.Equal(t, http.StatusOK, recorder.Code)

	pitClaims, err := f.tokens.DecodePIT(recorder.Body.String())
	require.NoError(t, err)
	assert.Equal(t, "eYp1Zl1td14E", pitClaims.Audience)
	assert.Equal(t, user.UUID, pitClaims.Subject)

	// Malformed server IDs fail validation.
	recorder = doRequest(router, http.MethodGet, "/token/pit?sid=short", "", withBearer(login.AccessToken))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = doRequest(router, http.MethodGet, "/token/pit", "", withBearer(login.AccessToken))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	// No bearer token.
	recorder = doRequest(router, http.MethodGet, "/token/pit?sid=eYp1Zl1td14E", "")
	assert.Equal(t, http.StatusExpectationFailed, recorder.Code)
}
