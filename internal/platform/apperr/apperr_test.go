// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/ecg-hub/internal/platform/apperr"
)

/*
TestConstructors_StatusMapping verifies that every constructor maps to its
designated HTTP status and machine code.
*/
func TestConstructors_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        *apperr.AppError
		wantStatus int
		wantCode   string
	}{
		{"not_found", apperr.NotFound("Session"), http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", apperr.Unauthorized("bad creds"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", apperr.Forbidden("bad token"), http.StatusForbidden, "FORBIDDEN"},
		{"conflict", apperr.Conflict("taken"), http.StatusConflict, "CONFLICT"},
		{"validation", apperr.ValidationError("invalid"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"expectation_failed", apperr.ExpectationFailed("no cookie"), http.StatusExpectationFailed, "EXPECTATION_FAILED"},
		{"gone", apperr.Gone("banned"), http.StatusGone, "GONE"},
		{"teapot", apperr.Teapot("inactive"), http.StatusTeapot, "INACTIVE"},
		{"not_modified", apperr.NotModified("old password"), http.StatusNotModified, "NOT_MODIFIED"},
		{"internal", apperr.Internal(errors.New("boom")), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

/*
TestNotFound_MessageFormat verifies the resource name lands in the message.
*/
func TestNotFound_MessageFormat(t *testing.T) {
	assert.Equal(t, "Session not found", apperr.NotFound("Session").Error())
}

/*
TestInternal_HidesCause verifies the wrapped cause never leaks into the
client-facing message but stays reachable for logging.
*/
func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := apperr.Internal(cause)

	assert.NotContains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)
}

/*
TestAs_TraversesWrapping verifies extraction through fmt.Errorf wrapping.
*/
func TestAs_TraversesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("service_call_failed: %w", apperr.Forbidden("nope"))

	ae := apperr.As(wrapped)
	require.NotNil(t, ae)
	assert.Equal(t, http.StatusForbidden, ae.HTTPStatus)

	assert.Nil(t, apperr.As(errors.New("plain")))
}
