// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package middleware provides the HTTP middleware chain for the Hub server.
//
// # Architecture
//
// Middleware intercepts incoming HTTP requests to apply global policies
// before they reach the domain handlers. This includes cross-cutting concerns
// like Logging, AuthN, Rate Limiting, and CORS.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taibuivan/ecg-hub/internal/platform/apperr"
	"github.com/taibuivan/ecg-hub/internal/platform/ctxkey"
	"github.com/taibuivan/ecg-hub/internal/platform/ctxutil"
	"github.com/taibuivan/ecg-hub/internal/platform/respond"
	"github.com/taibuivan/ecg-hub/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify access tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the concrete
// [sec.TokenService], allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	DecodeAccess(tokenString string) (*sec.AccessClaims, error)
}

// Authenticate extracts and verifies the access token from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous ([RequireAuth] rejects later).
//  3. If present but structurally malformed, abort with 417.
//  4. If the token fails decoding (bad signature or expired), abort with 403.
//  5. Inject [*sec.AccessClaims] into the request context for downstream use.
//
// # Parameters
//   - verifier: The TokenVerifier instance.
//
// # Returns
//   - An [http.Handler] middleware.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.ExpectationFailed("Invalid authorization header format"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			tokenStr := parts[1]
			claims, err := verifier.DecodeAccess(tokenStr)
			if err != nil {
				// Expired and malformed tokens are deliberately indistinguishable.
				respond.Error(writer, request, apperr.Forbidden("Invalid or expired token"))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := context.WithValue(request.Context(), ctxkey.KeyClaims, claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that carry no verified access token.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
//
// # Flow
//  1. Check if [*sec.AccessClaims] exists in context.
//  2. If missing, abort with HTTP 417 Expectation Failed (the required
//     bearer credential was never presented).
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.GetClaims(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.ExpectationFailed("Missing bearer token"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// CORS handles Cross-Origin Resource Sharing for browser-based web clients.
//
// The hub currently runs in testing mode and allows any origin; production
// deployments tighten this to first-party origins.
func CORS() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Check the Origin header
			origin := request.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// 2. Inject standard CORS headers
			header := writer.Header()
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			header.Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Authorization, X-Request-ID")
			header.Set("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")
			header.Set("Access-Control-Allow-Credentials", "true")
			header.Set("Access-Control-Max-Age", "300")

			// 3. Handle pre-flight requests (OPTIONS)
			if request.Method == http.MethodOptions {
				writer.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
