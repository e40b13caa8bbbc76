// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package hub

import (
	"context"
	"time"

	"github.com/taibuivan/ecg-hub/internal/platform/sec"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures (unique violations surface the
		    violated constraint name)
	*/
	Create(context context.Context, user *User) error

	/*
		FindByUUID returns the account with the given UUID.

		Parameters:
		  - context: context.Context
		  - uuid: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByUUID(context context.Context, uuid string) (*User, error)

	/*
		FindByUsername returns the account with the given username.
		The lookup is case-insensitive.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		FindByEmail returns the account with the given email.
		The lookup is case-insensitive.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		UpdatePassword replaces only the user's password hash.

		Parameters:
		  - context: context.Context
		  - uuid: string
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, uuid, newHash string) error
}

// # Session Data Access

// SessionRepository defines the data access contract for the three
// per-client-type session tables. Every method routes to the table selected
// by the ct argument.
type SessionRepository interface {

	/*
		Upsert creates or replaces the session for (sub, ct).

		The database generates uuid and token; a pre-existing row for the
		same sub is overwritten in a single statement, so concurrent logins
		leave exactly one surviving row.

		Parameters:
		  - context: context.Context
		  - ct: sec.ClientType
		  - sub: string (user uuid)
		  - exp: time.Time (refresh-token expiry)

		Returns:
		  - *Session: The fully-populated row as committed
		  - error: Persistence failures
	*/
	Upsert(context context.Context, ct sec.ClientType, sub string, exp time.Time) (*Session, error)

	/*
		FindByUUID returns the session row with the given primary key.

		Parameters:
		  - context: context.Context
		  - ct: sec.ClientType
		  - uuid: string

		Returns:
		  - *Session: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByUUID(context context.Context, ct sec.ClientType, uuid string) (*Session, error)

	/*
		FindBySub returns the session row owned by the given user.

		Parameters:
		  - context: context.Context
		  - ct: sec.ClientType
		  - sub: string

		Returns:
		  - *Session: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindBySub(context context.Context, ct sec.ClientType, sub string) (*Session, error)

	/*
		Rotate regenerates the session's rolling token and extends its expiry
		in one statement. On success the in-memory session's Token and Exp
		fields reflect the committed values.

		Parameters:
		  - context: context.Context
		  - ct: sec.ClientType
		  - session: *Session (mutated in place)
		  - exp: time.Time (new expiry)

		Returns:
		  - error: Persistence failures
	*/
	Rotate(context context.Context, ct sec.ClientType, session *Session, exp time.Time) error

	/*
		Delete removes the session row with the given primary key.

		Parameters:
		  - context: context.Context
		  - ct: sec.ClientType
		  - uuid: string

		Returns:
		  - error: Persistence failures (including not-found)
	*/
	Delete(context context.Context, ct sec.ClientType, uuid string) error

	/*
		DeleteBySub removes the session row owned by the given user, if any.

		Parameters:
		  - context: context.Context
		  - ct: sec.ClientType
		  - sub: string

		Returns:
		  - error: Persistence failures (absence is not an error)
	*/
	DeleteBySub(context context.Context, ct sec.ClientType, sub string) error

	/*
		DeleteExpired physically removes sessions whose Exp is in the past.

		Parameters:
		  - context: context.Context
		  - ct: sec.ClientType

		Returns:
		  - int64: Number of rows removed
		  - error: Persistence failures
	*/
	DeleteExpired(context context.Context, ct sec.ClientType) (int64, error)
}

// # Volatile Data Access

// ResetTokenRepository defines the contract for storing volatile password
// reset tokens.
type ResetTokenRepository interface {

	/*
		Set stores a reset token associated with a user uuid for a limited duration.

		Parameters:
		  - context: context.Context
		  - token: string
		  - userUUID: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, token string, userUUID string, ttl time.Duration) error

	/*
		Get retrieves the user uuid associated with a given reset token.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - string: User uuid
		  - error: Retrieval failures
	*/
	Get(context context.Context, token string) (string, error)

	/*
		Delete removes a reset token after successful use.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, token string) error
}
