// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package hub implements the identity and session core of the ECG Hub.

It defines the domain entities (User, Session), the per-client-type session
bookkeeping, and the token lifecycle: login issues a refresh token, refresh
mints short-lived access tokens, and access tokens mint player identity
tokens for game-server handoff.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no
transport dependencies and encapsulate all business rules related to player
identity.
*/
package hub

import (
	"time"

	"github.com/taibuivan/ecg-hub/internal/platform/sec"
)

// # Account Status

// UserStatus is the lifecycle state of an account. Serialized as a bare
// integer in JSON and stored as SMALLINT.
type UserStatus int16

const (
	// StatusActive accounts may log in and hold sessions.
	StatusActive UserStatus = 0
	// StatusInactive accounts exist but have not been activated yet.
	StatusInactive UserStatus = 1
	// StatusBanned accounts are permanently locked out.
	StatusBanned UserStatus = 2
)

// String returns a human-readable label for logging.
func (status UserStatus) String() string {
	switch status {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	case StatusBanned:
		return "banned"
	default:
		return "unknown"
	}
}

// # Domain Entities

// User represents a registered account of the ECG ecosystem.
type User struct {
	UUID      string            `json:"uuid"`
	Username  string            `json:"username"`
	Email     string            `json:"email"`
	Password  string            `json:"-"` // Argon2id hash. Explicitly omitted from JSON for security.
	Status    UserStatus        `json:"status"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
	CreatedAt time.Time         `json:"created_at"`
}

// UserInfo is the public projection of an account, safe to show to anyone.
type UserInfo struct {
	UUID     string     `json:"uuid"`
	Username string     `json:"username"`
	Status   UserStatus `json:"status"`
}

// UserData is the private projection of an account, shown only to its owner.
type UserData struct {
	UUID      string     `json:"uuid"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// Info returns the public projection of the user.
func (user *User) Info() UserInfo {
	return UserInfo{
		UUID:     user.UUID,
		Username: user.Username,
		Status:   user.Status,
	}
}

// Data returns the private projection of the user.
func (user *User) Data() UserData {
	return UserData{
		UUID:      user.UUID,
		Username:  user.Username,
		Email:     user.Email,
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
	}
}

// # Session Entity

// Session is one row of a per-client-type session table. Each user holds at
// most one session per client type; the rolling Token is regenerated by the
// database on every rotation.
type Session struct {
	UUID      string    `json:"uuid"`
	Sub       string    `json:"sub"`
	Token     string    `json:"-"` // Rolling rotation token. Omitted from JSON for security.
	Exp       time.Time `json:"exp"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedAt time.Time `json:"created_at"`
}

// UserSession is the per-client-type session summary returned to the owner.
type UserSession struct {
	ClientType sec.ClientType `json:"ct"`
	UUID       string         `json:"uuid"`
	Exp        time.Time      `json:"exp"`
	UpdatedAt  time.Time      `json:"updated_at"`
	CreatedAt  time.Time      `json:"created_at"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the hub domain.
const (
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldOldPassword = "old_password"
	FieldNewPassword = "new_password"
	FieldClientType  = "client_type"
	FieldServerID    = "server_id"
	FieldUUID        = "uuid"
	FieldToken       = "token"
	FieldMessage     = "message"
)
