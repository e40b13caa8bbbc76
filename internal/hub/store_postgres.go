// Copyright (c) 2026 ECG Hub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package hub

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/ecg-hub/internal/platform/apperr"
	"github.com/taibuivan/ecg-hub/internal/platform/dberr"
	"github.com/taibuivan/ecg-hub/internal/platform/sec"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
//
// Storage-specific errors are classified into domain-friendly
// [apperr.AppError] types through [dberr.Wrap]; Create passes unique
// violations through unwrapped so the service can inspect the violated
// constraint name.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `uuid, username, email, password, status, attrs, updated_at, created_at`

// scanUser hydrates a User from a row carrying userColumns.
func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.UUID,
		&user.Username,
		&user.Email,
		&user.Password,
		&user.Status,
		&user.Attrs,
		&user.UpdatedAt,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
Create persists a new user record into the "User" table.

Description: uuid and timestamps come from column DEFAULTs; the committed row
is scanned back into the entity.

Parameters:
  - context: context.Context
  - user: *User (Username, Email, Password and Status must be set)

Returns:
  - error: Unique-constraint violations (inspectable via dberr) or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO "User" (username, email, password, status, attrs)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	attrs := user.Attrs
	if attrs == nil {
		attrs = map[string]string{}
	}

	created, err := scanUser(repository.pool.QueryRow(context, query,
		user.Username,
		user.Email,
		user.Password,
		user.Status,
		attrs,
	))
	if err != nil {
		// Leave the pg error intact so callers can read the constraint name.
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	*user = *created
	return nil
}

/*
FindByUUID retrieves a user record by primary key.

Parameters:
  - context: context.Context
  - uuid: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByUUID(context context.Context, uuid string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM "User"
		WHERE uuid = $1`

	user, err := scanUser(repository.pool.QueryRow(context, query, uuid))
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_user_repo_find_by_uuid_failed: %w", err), "User")
	}

	return user, nil
}

/*
FindByUsername retrieves a user record by their unique username.

Description: The username column is citext, so the lookup is case-insensitive.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM "User"
		WHERE username = $1`

	user, err := scanUser(repository.pool.QueryRow(context, query, username))
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_user_repo_find_by_username_failed: %w", err), "User")
	}

	return user, nil
}

/*
FindByEmail retrieves a user record by their unique email address.

Description: The email column is citext, so the lookup is case-insensitive.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM "User"
		WHERE email = $1`

	user, err := scanUser(repository.pool.QueryRow(context, query, email))
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err), "User")
	}

	return user, nil
}

/*
UpdatePassword replaces only the user's password hash.

Parameters:
  - context: context.Context
  - uuid: string
  - newHash: string

Returns:
  - error: apperr.NotFound if no row matched, or execution errors
*/
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, uuid, newHash string) error {
	const query = `
		UPDATE "User"
		SET password = $1, updated_at = now()
		WHERE uuid = $2`

	tag, err := repository.pool.Exec(context, query, newHash, uuid)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_user_repo_update_password_failed: %w", err), "User")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

// # Session Repository

// PostgresSessionRepository implements the SessionRepository interface using pgx.
//
// Each client type owns a dedicated table with an identical shape. Routing is
// a compile-time switch, so no user input ever reaches the table name.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of the SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

// sessionTable maps a client type to its dedicated session table.
func sessionTable(ct sec.ClientType) (string, error) {
	switch ct {
	case sec.ClientWeb:
		return `"WebSession"`, nil
	case sec.ClientGame:
		return `"GameSession"`, nil
	case sec.ClientMobile:
		return `"MobileSession"`, nil
	default:
		return "", apperr.Forbidden("Unknown client type")
	}
}

const sessionColumns = `uuid, sub, token, exp, updated_at, created_at`

// scanSession hydrates a Session from a row carrying sessionColumns.
func scanSession(row pgx.Row) (*Session, error) {
	session := &Session{}
	err := row.Scan(
		&session.UUID,
		&session.Sub,
		&session.Token,
		&session.Exp,
		&session.UpdatedAt,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

/*
Upsert creates or replaces the session for (sub, ct) in one statement.

Description: The ON CONFLICT(sub) clause is the linearization point for
concurrent logins. When an older row exists, its uuid and token are replaced
with freshly generated values and created_at is reset, so the surviving row
is indistinguishable from a brand-new session.

Parameters:
  - context: context.Context
  - ct: sec.ClientType
  - sub: string
  - exp: time.Time

Returns:
  - *Session: The committed row (uuid/token generated by the database)
  - error: Execution errors
*/
func (repository *PostgresSessionRepository) Upsert(context context.Context, ct sec.ClientType, sub string, exp time.Time) (*Session, error) {
	table, err := sessionTable(ct)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (sub, exp)
		VALUES ($1, $2)
		ON CONFLICT (sub) DO UPDATE
		SET uuid = excluded.uuid,
		    token = excluded.token,
		    exp = excluded.exp,
		    updated_at = now(),
		    created_at = now()
		RETURNING `+sessionColumns, table)

	session, err := scanSession(repository.pool.QueryRow(context, query, sub, exp))
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_session_repo_upsert_failed: %w", err), "Session")
	}

	return session, nil
}

/*
FindByUUID retrieves a session row by primary key.

Parameters:
  - context: context.Context
  - ct: sec.ClientType
  - uuid: string

Returns:
  - *Session: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresSessionRepository) FindByUUID(context context.Context, ct sec.ClientType, uuid string) (*Session, error) {
	table, err := sessionTable(ct)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT `+sessionColumns+`
		FROM %s
		WHERE uuid = $1`, table)

	session, err := scanSession(repository.pool.QueryRow(context, query, uuid))
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_session_repo_find_by_uuid_failed: %w", err), "Session")
	}

	return session, nil
}

/*
FindBySub retrieves the session row owned by the given user.

Parameters:
  - context: context.Context
  - ct: sec.ClientType
  - sub: string

Returns:
  - *Session: Hydrated entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresSessionRepository) FindBySub(context context.Context, ct sec.ClientType, sub string) (*Session, error) {
	table, err := sessionTable(ct)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT `+sessionColumns+`
		FROM %s
		WHERE sub = $1`, table)

	session, err := scanSession(repository.pool.QueryRow(context, query, sub))
	if err != nil {
		return nil, dberr.Wrap(fmt.Errorf("postgres_session_repo_find_by_sub_failed: %w", err), "Session")
	}

	return session, nil
}

/*
Rotate regenerates the session's rolling token and extends its expiry.

Description: The UPDATE ... RETURNING is the linearization point for
concurrent refreshes: exactly one caller observes the prior token value.
On success the in-memory session carries the rotated Token and new Exp.

Parameters:
  - context: context.Context
  - ct: sec.ClientType
  - session: *Session (mutated in place)
  - exp: time.Time

Returns:
  - error: apperr.NotFound if the row vanished, or execution errors
*/
func (repository *PostgresSessionRepository) Rotate(context context.Context, ct sec.ClientType, session *Session, exp time.Time) error {
	table, err := sessionTable(ct)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET token = DEFAULT, exp = $1, updated_at = now()
		WHERE uuid = $2
		RETURNING token`, table)

	var rotatedToken string
	err = repository.pool.QueryRow(context, query, exp, session.UUID).Scan(&rotatedToken)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_session_repo_rotate_failed: %w", err), "Session")
	}

	session.Token = rotatedToken
	session.Exp = exp
	return nil
}

/*
Delete removes the session row with the given primary key.

Parameters:
  - context: context.Context
  - ct: sec.ClientType
  - uuid: string

Returns:
  - error: apperr.NotFound if no row matched, or execution errors
*/
func (repository *PostgresSessionRepository) Delete(context context.Context, ct sec.ClientType, uuid string) error {
	table, err := sessionTable(ct)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE uuid = $1`, table)

	tag, err := repository.pool.Exec(context, query, uuid)
	if err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_session_repo_delete_failed: %w", err), "Session")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Session")
	}

	return nil
}

/*
DeleteBySub removes the session row owned by the given user, if any.

Description: Absence is not an error; revoke-all sweeps all three tables and
most users do not hold a session of every client type.

Parameters:
  - context: context.Context
  - ct: sec.ClientType
  - sub: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresSessionRepository) DeleteBySub(context context.Context, ct sec.ClientType, sub string) error {
	table, err := sessionTable(ct)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE sub = $1`, table)

	if _, err := repository.pool.Exec(context, query, sub); err != nil {
		return dberr.Wrap(fmt.Errorf("postgres_session_repo_delete_by_sub_failed: %w", err), "Session")
	}

	return nil
}

/*
DeleteExpired physically removes sessions whose expiry is in the past.

Description: Run periodically by the background janitor; expired rows are
harmless (refresh rejects them) but accumulate forever otherwise.

Parameters:
  - context: context.Context
  - ct: sec.ClientType

Returns:
  - int64: Number of rows removed
  - error: Execution errors
*/
func (repository *PostgresSessionRepository) DeleteExpired(context context.Context, ct sec.ClientType) (int64, error) {
	table, err := sessionTable(ct)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE exp < now()`, table)

	tag, err := repository.pool.Exec(context, query)
	if err != nil {
		return 0, dberr.Wrap(fmt.Errorf("postgres_session_repo_delete_expired_failed: %w", err), "Session")
	}

	return tag.RowsAffected(), nil
}
