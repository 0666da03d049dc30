package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/turahe/mediacore/internal/auth"
	"github.com/turahe/mediacore/internal/coreerrors"
	"github.com/turahe/mediacore/internal/db/pgxdb"
	"github.com/turahe/mediacore/internal/domain/entities"
)

type fakeUserRepo struct {
	byEmail map[string]entities.User
	logins  map[string]time.Time
}

func (f *fakeUserRepo) GetByEmailTx(ctx context.Context, tx *pgxdb.DbConnection, email string) (entities.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return entities.User{}, coreerrors.NotFound("user", email)
	}
	return u, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, tx *pgxdb.DbConnection, email string, now time.Time) error {
	f.logins[email] = now
	return nil
}

type fakeTokenRepo struct {
	byID map[string]entities.AuthToken
}

func (f *fakeTokenRepo) Insert(ctx context.Context, tx *pgxdb.DbConnection, t entities.AuthToken) error {
	f.byID[t.ID] = t
	return nil
}

func (f *fakeTokenRepo) Get(ctx context.Context, tx *pgxdb.DbConnection, id string) (entities.AuthToken, error) {
	t, ok := f.byID[id]
	if !ok {
		return entities.AuthToken{}, coreerrors.NotFound("auth_token", id)
	}
	return t, nil
}

func (f *fakeTokenRepo) Extend(ctx context.Context, tx *pgxdb.DbConnection, id string, expiry time.Time) error {
	t := f.byID[id]
	t.Expiry = expiry
	f.byID[id] = t
	return nil
}

func fakeWithTx(ctx context.Context, level pgx.TxIsoLevel, fn func(ctx context.Context, tx *pgxdb.DbConnection) error) error {
	return fn(ctx, nil)
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return string(h)
}

func newService(users *fakeUserRepo, tokens *fakeTokenRepo, now time.Time) auth.Service {
	return auth.Service{
		Users:  users,
		Tokens: tokens,
		WithTx: fakeWithTx,
		Now:    func() time.Time { return now },
	}
}

func TestVerifyCredentials(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	hash := hashOf(t, "correct horse battery staple")

	tests := []struct {
		name      string
		email     string
		password  string
		wantErr   bool
		wantEmail string
	}{
		{name: "correct credentials", email: "a@example.com", password: "correct horse battery staple", wantEmail: "a@example.com"},
		{name: "wrong password", email: "a@example.com", password: "wrong", wantErr: true},
		{name: "unknown email", email: "nobody@example.com", password: "correct horse battery staple", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUserRepo{
				byEmail: map[string]entities.User{
					"a@example.com": {Email: "a@example.com", Password: &hash, Name: "A"},
				},
				logins: map[string]time.Time{},
			}
			tokens := &fakeTokenRepo{byID: map[string]entities.AuthToken{}}
			svc := newService(users, tokens, now)

			user, token, err := svc.VerifyCredentials(context.Background(), tt.email, tt.password)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, coreerrors.Is(err, coreerrors.CodeInvalidCredentials))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEmail, user.Email)
			assert.Equal(t, tt.wantEmail, token.Email)
			assert.WithinDuration(t, now.Add(entities.TokenLifetime), token.Expiry, 0)
			assert.Equal(t, now, users.logins[tt.wantEmail])
		})
	}
}

func TestVerifyCredentials_NoPasswordSet(t *testing.T) {
	now := time.Now().UTC()
	users := &fakeUserRepo{
		byEmail: map[string]entities.User{"sso@example.com": {Email: "sso@example.com", Password: nil}},
		logins:  map[string]time.Time{},
	}
	svc := newService(users, &fakeTokenRepo{byID: map[string]entities.AuthToken{}}, now)

	_, _, err := svc.VerifyCredentials(context.Background(), "sso@example.com", "anything")

	require.Error(t, err)
	assert.True(t, coreerrors.Is(err, coreerrors.CodeInvalidCredentials))
}

func TestVerifyToken(t *testing.T) {
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("valid token extends expiry and returns user", func(t *testing.T) {
		later := issued.Add(time.Hour)
		users := &fakeUserRepo{
			byEmail: map[string]entities.User{"a@example.com": {Email: "a@example.com"}},
			logins:  map[string]time.Time{},
		}
		tokens := &fakeTokenRepo{byID: map[string]entities.AuthToken{
			"K:tok": {ID: "K:tok", Email: "a@example.com", Expiry: issued.Add(entities.TokenLifetime)},
		}}
		svc := newService(users, tokens, later)

		user, err := svc.VerifyToken(context.Background(), "K:tok")

		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "a@example.com", user.Email)
		assert.WithinDuration(t, later.Add(entities.TokenLifetime), tokens.byID["K:tok"].Expiry, 0)
		assert.Equal(t, later, users.logins["a@example.com"])
	})

	t.Run("unknown token returns nil, nil", func(t *testing.T) {
		svc := newService(&fakeUserRepo{byEmail: map[string]entities.User{}, logins: map[string]time.Time{}},
			&fakeTokenRepo{byID: map[string]entities.AuthToken{}}, issued)

		user, err := svc.VerifyToken(context.Background(), "K:missing")

		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("expired token returns nil, nil", func(t *testing.T) {
		tokens := &fakeTokenRepo{byID: map[string]entities.AuthToken{
			"K:old": {ID: "K:old", Email: "a@example.com", Expiry: issued},
		}}
		svc := newService(&fakeUserRepo{byEmail: map[string]entities.User{}, logins: map[string]time.Time{}},
			tokens, issued.Add(time.Second))

		user, err := svc.VerifyToken(context.Background(), "K:old")

		require.NoError(t, err)
		assert.Nil(t, user)
	})
}
