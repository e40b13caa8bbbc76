// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away common body decoding and credential extraction patterns,
ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/taibuivan/ecg-hub/internal/platform/apperr"
	"github.com/taibuivan/ecg-hub/internal/platform/constants"
	"github.com/taibuivan/ecg-hub/internal/platform/ctxutil"
	"github.com/taibuivan/ecg-hub/internal/platform/sec"
	"github.com/taibuivan/ecg-hub/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Query retrieves a named query-string parameter from the request.
*/
func Query(request *http.Request, name string) string {
	return request.URL.Query().Get(name)
}

/*
Claims extracts the verified access token claims from the request context.

Returns nil if the request carried no valid bearer token.
*/
func Claims(request *http.Request) *sec.AccessClaims {
	return ctxutil.GetClaims(request.Context())
}

/*
RequiredClaims ensures the request carries a verified access token.

A missing bearer credential is an expectation failure (417), matching the
refresh-cookie extractor: the client recovers by attaching the credential.

Returns:
  - *sec.AccessClaims: The verified access token claims
  - error: apperr.ExpectationFailed if no bearer token was presented
*/
func RequiredClaims(request *http.Request) (*sec.AccessClaims, error) {

	// Get token claims
	claims := ctxutil.GetClaims(request.Context())

	// If no bearer token was presented, return an error
	if claims == nil {
		return nil, apperr.ExpectationFailed("Missing bearer token")
	}

	return claims, nil
}

/*
RefreshCookie extracts the raw refresh token from the hub-rt cookie.

Returns:
  - string: Compact signed refresh token
  - error: apperr.ExpectationFailed if the cookie is absent or empty
*/
func RefreshCookie(request *http.Request) (string, error) {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		return "", apperr.ExpectationFailed("Missing refresh token cookie")
	}
	return cookie.Value, nil
}
