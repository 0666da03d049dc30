package persistence

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/turahe/mediacore/internal/coreerrors"
	"github.com/turahe/mediacore/internal/db/pgxdb"
	"github.com/turahe/mediacore/internal/domain/entities"
	"github.com/turahe/mediacore/pkg/tracing"
)

// UserStore implements the user half of internal/auth's repository
// dependency, plus the generic Upsert every entity gets under §4.2.
type UserStore struct{}

const userColumns = `email, password, name, administrator, verified, created, last_login`

const upsertUserSQL = `
	INSERT INTO users (` + userColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7)
	ON CONFLICT (email) DO UPDATE SET
		password = EXCLUDED.password, name = EXCLUDED.name, administrator = EXCLUDED.administrator,
		verified = EXCLUDED.verified, last_login = EXCLUDED.last_login`

func scanUser(row pgx.Row) (entities.User, error) {
	var u entities.User
	err := row.Scan(&u.Email, &u.Password, &u.Name, &u.Administrator, &u.Verified, &u.Created, &u.LastLogin)
	return u, err
}

func (UserStore) Upsert(ctx context.Context, items []entities.User) error {
	if len(items) == 0 {
		return nil
	}
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("user.upsert", zap.Int("count", len(items)))
		rows := make([][]any, len(items))
		for i, u := range items {
			rows[i] = []any{u.Email, u.Password, u.Name, u.Administrator, u.Verified, u.Created, u.LastLogin}
		}
		err := conn.BatchUpsert(ctx, upsertUserSQL, rows)
		span.End(int64(len(items)), err)
		if err != nil {
			return coreerrors.DbError(err)
		}
		return nil
	})
}

// GetByEmail is the lookup internal/auth.VerifyCredentials starts from.
func (UserStore) GetByEmail(ctx context.Context, email string) (entities.User, error) {
	var out entities.User
	err := withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		result, err := (UserStore{}).GetByEmailTx(ctx, conn, email)
		out = result
		return err
	})
	return out, err
}

// GetByEmailTx is the same lookup, run against a caller-supplied
// connection/transaction scope — internal/auth's verify_credentials uses
// this to keep the lookup, bcrypt check, token issuance, and last_login
// update inside one transaction.
func (UserStore) GetByEmailTx(ctx context.Context, conn *pgxdb.DbConnection, email string) (entities.User, error) {
	span := tracing.Start("user.get_by_email", zap.String("email", email))
	row := conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	result, err := scanUser(row)
	var rows int64
	if err == nil {
		rows = 1
	} else if err == pgx.ErrNoRows {
		err = coreerrors.NotFound("user", email)
	}
	span.End(rows, err)
	if err != nil {
		return entities.User{}, coreerrors.DbError(err)
	}
	return result, nil
}

// UpdateLastLogin stamps last_login to now, the write verify_credentials
// makes on every successful call and verify_token makes whenever its
// result is not served from the token cache.
func (UserStore) UpdateLastLogin(ctx context.Context, conn *pgxdb.DbConnection, email string, now time.Time) error {
	span := tracing.Start("user.update_last_login", zap.String("email", email))
	_, err := conn.Exec(ctx, `UPDATE users SET last_login = $1 WHERE email = $2`, now, email)
	span.End(1, err)
	if err != nil {
		return coreerrors.DbError(err)
	}
	return nil
}

// AuthTokenStore backs internal/auth's token issuance and verification.
type AuthTokenStore struct{}

const authTokenColumns = `id, email, expiry`

func scanAuthToken(row pgx.Row) (entities.AuthToken, error) {
	var t entities.AuthToken
	err := row.Scan(&t.ID, &t.Email, &t.Expiry)
	return t, err
}

// Insert writes a freshly issued token; tokens are never updated in
// place by id (Extend rewrites expiry directly), so this is a plain
// INSERT rather than an ON CONFLICT upsert.
func (AuthTokenStore) Insert(ctx context.Context, conn *pgxdb.DbConnection, t entities.AuthToken) error {
	span := tracing.Start("auth_token.insert", zap.String("email", t.Email))
	_, err := conn.Exec(ctx, `INSERT INTO auth_token (`+authTokenColumns+`) VALUES ($1,$2,$3)`, t.ID, t.Email, t.Expiry)
	span.End(1, err)
	if err != nil {
		return coreerrors.DbError(err)
	}
	return nil
}

// Get looks up a token by id within conn's current scope (verify_token
// runs this inside the same transaction it extends the token's expiry
// in, so a concurrent revoke can't race the extension).
func (AuthTokenStore) Get(ctx context.Context, conn *pgxdb.DbConnection, id string) (entities.AuthToken, error) {
	span := tracing.Start("auth_token.get")
	row := conn.QueryRow(ctx, `SELECT `+authTokenColumns+` FROM auth_token WHERE id = $1`, id)
	t, err := scanAuthToken(row)
	var rows int64
	if err == nil {
		rows = 1
	} else if err == pgx.ErrNoRows {
		err = coreerrors.NotFound("auth_token", id)
	}
	span.End(rows, err)
	if err != nil {
		return entities.AuthToken{}, coreerrors.DbError(err)
	}
	return t, nil
}

// Extend slides a token's expiry forward to now.Add(entities.TokenLifetime).
func (AuthTokenStore) Extend(ctx context.Context, conn *pgxdb.DbConnection, id string, expiry time.Time) error {
	span := tracing.Start("auth_token.extend")
	_, err := conn.Exec(ctx, `UPDATE auth_token SET expiry = $1 WHERE id = $2`, expiry, id)
	span.End(1, err)
	if err != nil {
		return coreerrors.DbError(err)
	}
	return nil
}

// Delete revokes a token outright (sign-out).
func (AuthTokenStore) Delete(ctx context.Context, id string) error {
	return withConn(ctx, func(ctx context.Context, conn *pgxdb.DbConnection) error {
		span := tracing.Start("auth_token.delete", zap.String("id", id))
		tag, err := conn.Exec(ctx, `DELETE FROM auth_token WHERE id = $1`, id)
		var rows int64
		if err == nil {
			rows = tag.RowsAffected()
		}
		span.End(rows, err)
		if err != nil {
			return coreerrors.DbError(err)
		}
		return nil
	})
}
