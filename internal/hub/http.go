// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package hub

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/ecg-hub/internal/platform/apperr"
	"github.com/taibuivan/ecg-hub/internal/platform/constants"
	"github.com/taibuivan/ecg-hub/internal/platform/ctxutil"
	"github.com/taibuivan/ecg-hub/internal/platform/middleware"
	requestutil "github.com/taibuivan/ecg-hub/internal/platform/request"
	"github.com/taibuivan/ecg-hub/internal/platform/respond"
	"github.com/taibuivan/ecg-hub/internal/platform/sec"
	"github.com/taibuivan/ecg-hub/internal/platform/validate"
)

// # Definitions & Constructors

// RefreshDecoder verifies the compact refresh token carried by the hub-rt cookie.
type RefreshDecoder interface {
	DecodeRefresh(tokenString string) (*sec.RefreshClaims, error)
}

// Handler implements the /user and /token HTTP endpoints.
//
// # Architecture
//
// The handler is a thin mediation layer between the web and the [Service]:
// it owns transport concerns only (status codes, cookies, validation) and
// delegates every state transition to the service.
type Handler struct {
	hubService *Service
	refresh    RefreshDecoder
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, refreshDecoder RefreshDecoder) *Handler {
	return &Handler{hubService: service, refresh: refreshDecoder}
}

// UserRoutes returns a [chi.Router] for the /user subtree.
//
// # Endpoints
//   - GET  /info            : Public account projection by uuid or username.
//   - POST /login           : Authenticates and sets the refresh cookie.
//   - POST /register        : Creates a new account.
//   - POST /forgot_password : Starts password recovery.
//   - POST /reset_password  : Completes password recovery.
//   - GET  /data            : Private account projection (access token).
//   - GET  /sessions        : Live sessions per client type (access token).
//   - PUT  /password        : Password change (access token).
func (handler *Handler) UserRoutes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Get("/info", handler.userInfo)
	router.Post("/login", handler.login)
	router.Post("/register", handler.register)
	router.Post("/forgot_password", handler.forgotPassword)
	router.Post("/reset_password", handler.resetPassword)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/data", handler.userData)
		r.Get("/sessions", handler.sessions)
		r.Put("/password", handler.changePassword)
	})

	return router
}

// TokenRoutes returns a [chi.Router] for the /token subtree.
//
// # Endpoints
//   - GET /refresh    : Mints an access token from the refresh cookie.
//   - GET /revoke     : Destroys the caller's session (access token).
//   - GET /revoke_all : Destroys every session of the caller (access token).
//   - GET /pit        : Mints a player identity token (access token).
func (handler *Handler) TokenRoutes() chi.Router {
	router := chi.NewRouter()

	// Cookie-authenticated endpoint
	router.Get("/refresh", handler.refreshToken)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/revoke", handler.revoke)
		r.Get("/revoke_all", handler.revokeAll)
		r.Get("/pit", handler.playerIdentityToken)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Ct       int16  `json:"ct"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// setRefreshCookie attaches the hub-rt cookie carrying the refresh token.
// Max-Age matches the refresh token's lifetime exactly.
func setRefreshCookie(writer http.ResponseWriter, refreshToken string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    refreshToken,
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   int(RefreshTokenTTL.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// # Account Endpoints

/*
register handles the creation of a new user account.

POST /user/register

Request:
  - Body: registerRequest (Username, Email, Password)

Response:
  - 201: JSON {uuid}
  - 400: Bad input or validation failure
  - 409: Username or Email already exists (message names the field)
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		Username(FieldUsername, input.Username).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		Password(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.hubService.Register(request.Context(), RegisterInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]string{FieldUUID: user.UUID})
}

/*
login authenticates a user and establishes a per-client-type session.

POST /user/login

Request:
  - Body: loginRequest (Username, Password, Ct)

Response:
  - 200: text/plain access token + Set-Cookie: hub-rt
  - 401: Invalid credentials
  - 410: Banned account
  - 418: Inactive account
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	ct := sec.ClientType(input.Ct)

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		Required(FieldPassword, input.Password).
		Custom(FieldClientType, !ct.Valid(), "must be 0 (web), 1 (game) or 2 (mobile)")

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.hubService.Login(request.Context(), LoginInput{
		Username: input.Username,
		Password: input.Password,
		Ct:       ct,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, result.RefreshToken)
	respond.Text(writer, result.AccessToken)
}

/*
userInfo resolves the public projection of any account.

GET /user/info?uuid=… | ?username=…

Response:
  - 200: JSON {uuid, username, status}
  - 400: Zero or both selectors provided
  - 404: No such account
*/
func (handler *Handler) userInfo(writer http.ResponseWriter, request *http.Request) {
	uuidParam := requestutil.Query(request, FieldUUID)
	usernameParam := requestutil.Query(request, FieldUsername)

	info, err := handler.hubService.UserInfo(request.Context(), uuidParam, usernameParam)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, info)
}

/*
userData resolves the caller's own private account projection.

GET /user/data

Response:
  - 200: JSON {uuid, username, email, status, created_at}
  - 417: Missing bearer token
*/
func (handler *Handler) userData(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	data, err := handler.hubService.UserData(request.Context(), claims.Subject)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, data)
}

/*
sessions lists the caller's live session in each client-type table.

GET /user/sessions

Response:
  - 200: JSON {web?, game?, mobile?}
*/
func (handler *Handler) sessions(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.hubService.Sessions(request.Context(), claims.Subject)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Keyed by client-type name; absent keys mean no session of that kind.
	payload := make(map[string]UserSession, len(sessions))
	for _, session := range sessions {
		payload[session.ClientType.String()] = session
	}

	respond.OK(writer, payload)
}

/*
changePassword replaces the caller's password.

PUT /user/password

Request:
  - Body: changePasswordRequest (OldPassword, NewPassword)

Response:
  - 200: Password replaced
  - 304: Old password did not match
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldOldPassword, input.OldPassword).
		Required(FieldNewPassword, input.NewPassword).
		Password(FieldNewPassword, input.NewPassword)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.hubService.ChangePassword(request.Context(), claims.Subject, input.OldPassword, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{FieldMessage: "Password updated"})
}

/*
forgotPassword starts the password recovery flow.

POST /user/forgot_password

Description: Always answers 200 regardless of whether the email exists, so
the endpoint cannot be used for account enumeration. The recovery token is
delivered out of band.

Request:
  - Body: forgotPasswordRequest (Email)

Response:
  - 200: Recovery initiated (or silently ignored)
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	token, err := handler.hubService.ForgotPassword(request.Context(), input.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if token != "" {
		// TODO: hand the token to the mailer once the notification service lands.
		logger := ctxutil.GetLogger(request.Context())
		logger.InfoContext(request.Context(), "password_reset_token_issued")
	}

	respond.OK(writer, map[string]string{FieldMessage: "If the email exists, a reset link has been sent"})
}

/*
resetPassword completes the password recovery flow.

POST /user/reset_password

Request:
  - Body: resetPasswordRequest (Token, Password)

Response:
  - 200: Password replaced, all sessions revoked
  - 404: Token invalid or expired
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldToken, input.Token).
		Required(FieldPassword, input.Password).
		Password(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.hubService.ResetPassword(request.Context(), input.Token, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{FieldMessage: "Password has been reset"})
}

// # Token Endpoints

/*
refreshToken mints an access token from the hub-rt cookie.

GET /token/refresh

Description: When the backing session is inside the rotation window, the
response additionally carries a replacement hub-rt cookie; otherwise the
existing cookie stays valid.

Response:
  - 200: text/plain access token (+ rotated Set-Cookie when applicable)
  - 403: Signature, expiry, or rotation mismatch
  - 404: Session no longer exists
  - 417: Missing cookie
*/
func (handler *Handler) refreshToken(writer http.ResponseWriter, request *http.Request) {
	rawToken, err := requestutil.RefreshCookie(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	claims, err := handler.refresh.DecodeRefresh(rawToken)
	if err != nil {
		respond.Error(writer, request, apperr.Forbidden("Invalid or expired refresh token"))
		return
	}

	result, err := handler.hubService.Refresh(request.Context(), claims)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if result.Rotated {
		setRefreshCookie(writer, result.RefreshToken)
	}

	respond.Text(writer, result.AccessToken)
}

/*
revoke destroys the session behind the presented access token.

GET /token/revoke

Response:
  - 200: Session destroyed
  - 404: Session no longer exists
*/
func (handler *Handler) revoke(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.hubService.Revoke(request.Context(), claims); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{FieldMessage: "Session revoked"})
}

/*
revokeAll destroys every session of the caller across all client types and
re-establishes one for the caller's own client type.

GET /token/revoke_all

Response:
  - 200: All sessions destroyed, new hub-rt cookie set
  - 404: Caller's session no longer exists
*/
func (handler *Handler) revokeAll(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	refreshToken, err := handler.hubService.RevokeAll(request.Context(), claims)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, refreshToken)
	respond.OK(writer, map[string]string{FieldMessage: "All sessions revoked"})
}

/*
playerIdentityToken mints a short-lived PIT for a game-server handoff.

GET /token/pit?sid=<12-char server id>

Response:
  - 200: text/plain PIT
  - 400: Malformed server id
*/
func (handler *Handler) playerIdentityToken(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	serverID := requestutil.Query(request, "sid")

	validator := &validate.Validator{}
	validator.Required(FieldServerID, serverID).ServerID(FieldServerID, serverID)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pit, err := handler.hubService.PlayerIdentityToken(request.Context(), claims, serverID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Text(writer, pit)
}
