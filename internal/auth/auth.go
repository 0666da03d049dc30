// Package auth implements spec.md §4.2's verify_credentials and
// verify_token: the two authentication entry points every other surface
// (an HTTP API, in a full deployment) sits behind. Password hashing
// follows the teacher's bcryptPasswordService
// (internal/infrastructure/adapters/password_service.go) exactly —
// golang.org/x/crypto/bcrypt at the default cost — generalized from a
// hand-rolled User/Password value object to this core's entities.User.
package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/turahe/mediacore/internal/coreerrors"
	"github.com/turahe/mediacore/internal/db/pgxdb"
	"github.com/turahe/mediacore/internal/db/redisdb"
	"github.com/turahe/mediacore/internal/domain/entities"
	"github.com/turahe/mediacore/pkg/ids"
)

// UserRepo is the slice of user persistence auth needs. Implemented by
// internal/persistence.UserStore in production.
type UserRepo interface {
	GetByEmailTx(ctx context.Context, tx *pgxdb.DbConnection, email string) (entities.User, error)
	UpdateLastLogin(ctx context.Context, tx *pgxdb.DbConnection, email string, now time.Time) error
}

// TokenRepo is the slice of token persistence auth needs.
type TokenRepo interface {
	Insert(ctx context.Context, tx *pgxdb.DbConnection, t entities.AuthToken) error
	Get(ctx context.Context, tx *pgxdb.DbConnection, id string) (entities.AuthToken, error)
	Extend(ctx context.Context, tx *pgxdb.DbConnection, id string, expiry time.Time) error
}

// Clock lets tests fix "now" instead of depending on wall-clock time.
type Clock func() time.Time

// Service implements verify_credentials/verify_token. WithTx wraps both
// in a single database transaction the way internal/persistence.WithTx
// does; tests supply an in-memory fake instead.
type Service struct {
	Users  UserRepo
	Tokens TokenRepo
	WithTx func(ctx context.Context, level pgx.TxIsoLevel, fn func(ctx context.Context, tx *pgxdb.DbConnection) error) error
	Now    Clock
}

func (s Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// VerifyCredentials looks up email, verifies password against the stored
// bcrypt hash off the caller's goroutine is not special-cased here (Go
// has no event loop to keep free, unlike the teacher's async runtime),
// issues a fresh token with TokenLifetime, and stamps last_login — all
// inside one transaction. An unknown email and a wrong password both
// fail identically with coreerrors.InvalidCredentials.
func (s Service) VerifyCredentials(ctx context.Context, email, password string) (entities.User, entities.AuthToken, error) {
	var user entities.User
	var token entities.AuthToken

	err := s.WithTx(ctx, pgxdb.ReadCommitted, func(ctx context.Context, tx *pgxdb.DbConnection) error {
		u, err := s.Users.GetByEmailTx(ctx, tx, email)
		if err != nil {
			if coreerrors.Is(err, coreerrors.CodeNotFound) {
				return coreerrors.InvalidCredentials()
			}
			return err
		}
		if u.Password == nil {
			return coreerrors.InvalidCredentials()
		}
		if bcrypt.CompareHashAndPassword([]byte(*u.Password), []byte(password)) != nil {
			return coreerrors.InvalidCredentials()
		}

		now := s.now()
		t := entities.AuthToken{
			ID:     ids.New(ids.PrefixAuthToken),
			Email:  u.Email,
			Expiry: now.Add(entities.TokenLifetime),
		}
		if err := s.Tokens.Insert(ctx, tx, t); err != nil {
			return err
		}
		if err := s.Users.UpdateLastLogin(ctx, tx, u.Email, now); err != nil {
			return err
		}

		u.LastLogin = &now
		user, token = u, t
		return nil
	})
	if err != nil {
		return entities.User{}, entities.AuthToken{}, err
	}
	return user, token, nil
}

// VerifyToken extends tokenID's expiry by another TokenLifetime and
// returns its owning user, or (nil, nil) for an unknown or expired
// token — spec.md is explicit this is never an error, since an expired
// bearer token is an ordinary, expected outcome of a stale client. A
// positive result is cached in Redis for tokenCacheTTL; a cache hit
// still reads the user row from Postgres, but skips the token lookup,
// the expiry extension and the last_login write.
func (s Service) VerifyToken(ctx context.Context, tokenID string) (*entities.User, error) {
	if userEmail, ok := redisdb.LookupTokenVerification(ctx, tokenID); ok {
		user, err := s.userByEmailReadOnly(ctx, userEmail)
		if err == nil {
			return &user, nil
		}
	}

	var user *entities.User
	err := s.WithTx(ctx, pgxdb.ReadCommitted, func(ctx context.Context, tx *pgxdb.DbConnection) error {
		t, err := s.Tokens.Get(ctx, tx, tokenID)
		if err != nil {
			if coreerrors.Is(err, coreerrors.CodeNotFound) {
				return nil
			}
			return err
		}

		now := s.now()
		if t.Expired(now) {
			return nil
		}

		u, err := s.Users.GetByEmailTx(ctx, tx, t.Email)
		if err != nil {
			return err
		}

		newExpiry := now.Add(entities.TokenLifetime)
		if err := s.Tokens.Extend(ctx, tx, t.ID, newExpiry); err != nil {
			return err
		}
		if err := s.Users.UpdateLastLogin(ctx, tx, u.Email, now); err != nil {
			return err
		}

		u.LastLogin = &now
		user = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	if user != nil {
		redisdb.CacheTokenVerification(ctx, tokenID, user.Email, tokenCacheTTL)
	}
	return user, nil
}

// tokenCacheTTL is deliberately much shorter than entities.TokenLifetime:
// a cached hit skips the last_login/expiry-extension write, so it must
// expire often enough that a long-lived session's last_login doesn't go
// stale for days at a time.
const tokenCacheTTL = 5 * time.Minute

func (s Service) userByEmailReadOnly(ctx context.Context, email string) (entities.User, error) {
	var user entities.User
	err := s.WithTx(ctx, pgxdb.ReadCommitted, func(ctx context.Context, tx *pgxdb.DbConnection) error {
		u, err := s.Users.GetByEmailTx(ctx, tx, email)
		user = u
		return err
	})
	return user, err
}
