//go:build integration

package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/migrate"
	"github.com/shandysiswandi/otpgate/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func newTestDB(t *testing.T) (*DB, *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithDatabase("otpgate"),
		postgres.WithUsername("otpgate"),
		postgres.WithPassword("otpgate"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, migrate.Up(ctx, pool, migrations.FS))

	_, err = pool.Exec(ctx, `INSERT INTO identity_users (id, email, full_name, password, status, email_verified_at)
		VALUES (1, 'Alice@Example.com', 'Alice', 'hashed', 2, now())`)
	require.NoError(t, err)

	return NewDB(pool, instrument.NewNoop()), pool
}

func TestDB_LoginOTP(t *testing.T) {
	ctx := context.Background()
	db, pool := newTestDB(t)
	now := time.Now().UTC().Truncate(time.Microsecond)

	u, err := db.GetUserLoginInfo(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, entity.UserStatusActive, u.Status)
	assert.True(t, u.EmailVerified())
	assert.False(t, u.HasPendingOTP())

	_, err = db.GetUserLoginInfo(ctx, "nobody@example.com")
	require.ErrorIs(t, err, goerror.ErrNotFound)

	require.NoError(t, db.SetUserLoginOTP(ctx, 1, "digest-1", now.Add(5*time.Minute)))
	require.NoError(t, db.SetUserLoginOTP(ctx, 1, "digest-2", now.Add(5*time.Minute)))
	require.ErrorIs(t, db.SetUserLoginOTP(ctx, 99, "digest", now), goerror.ErrNotFound)

	u, err = db.GetUserLoginInfo(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "digest-2", u.OTPCode)
	assert.True(t, u.OTPExpiresAt.Equal(now.Add(5*time.Minute)))

	t.Run("ReplacedDigestIsNotConsumed", func(t *testing.T) {
		ok, err := db.ConsumeUserLoginOTP(ctx, 1, "digest-1", now)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ExpiredDigestIsNotConsumed", func(t *testing.T) {
		ok, err := db.ConsumeUserLoginOTP(ctx, 1, "digest-2", now.Add(6*time.Minute))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ConsumedOnce", func(t *testing.T) {
		ok, err := db.ConsumeUserLoginOTP(ctx, 1, "digest-2", now.Add(5*time.Minute))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = db.ConsumeUserLoginOTP(ctx, 1, "digest-2", now)
		require.NoError(t, err)
		assert.False(t, ok)

		u, err := db.GetUserLoginInfo(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.False(t, u.HasPendingOTP())
	})

	t.Run("HalfSetOTPIsRejected", func(t *testing.T) {
		_, err := pool.Exec(ctx, `UPDATE identity_users SET otp_code = 'x' WHERE id = 1`)
		require.Error(t, err)
	})
}

func TestDB_RefreshToken(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t)
	exp := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)

	require.NoError(t, db.CreateRefreshToken(ctx, entity.RefreshToken{
		ID: 10, UserID: 1, Token: "t1", ExpiresAt: exp, Metadata: map[string]any{"ip": "10.0.0.1"},
	}))
	require.ErrorIs(t, db.CreateRefreshToken(ctx, entity.RefreshToken{ID: 11, UserID: 1, Token: "t1", ExpiresAt: exp}), goerror.ErrConflict)
	require.ErrorIs(t, db.CreateRefreshToken(ctx, entity.RefreshToken{ID: 12, UserID: 99, Token: "t9", ExpiresAt: exp}), goerror.ErrNotFound)

	rt, err := db.GetUserRefreshToken(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), rt.RefreshID)
	assert.Equal(t, "Alice@Example.com", rt.UserEmail)
	assert.False(t, rt.RefreshRevoked)
	assert.Nil(t, rt.RefreshReplacedByTokenID)

	rotate := entity.RotateRefreshToken{NewID: 20, OldID: 10, UserID: 1, NewToken: "t2", NewExpiresAt: exp}
	require.NoError(t, db.RotateRefreshToken(ctx, rotate))

	old, err := db.GetUserRefreshToken(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, old.RefreshRevoked)
	require.NotNil(t, old.RefreshReplacedByTokenID)
	assert.Equal(t, int64(20), *old.RefreshReplacedByTokenID)

	rotate.NewID, rotate.NewToken = 21, "t3"
	require.ErrorIs(t, db.RotateRefreshToken(ctx, rotate), goerror.ErrNotFound)
	_, err = db.GetUserRefreshToken(ctx, "t3")
	require.ErrorIs(t, err, goerror.ErrNotFound)

	require.NoError(t, db.RevokeRefreshToken(ctx, 2, "t2"))
	cur, err := db.GetUserRefreshToken(ctx, "t2")
	require.NoError(t, err)
	assert.False(t, cur.RefreshRevoked)

	require.NoError(t, db.RevokeAllRefreshToken(ctx, 1))
	cur, err = db.GetUserRefreshToken(ctx, "t2")
	require.NoError(t, err)
	assert.True(t, cur.RefreshRevoked)
}

func TestDB_EmailVerification(t *testing.T) {
	ctx := context.Background()
	db, pool := newTestDB(t)

	t.Run("ActiveWithoutVerifiedAtReadsUnverified", func(t *testing.T) {
		_, err := pool.Exec(ctx, `INSERT INTO identity_users (id, email, password, status)
			VALUES (2, 'bob@example.com', 'hashed', 2)`)
		require.NoError(t, err)

		u, err := db.GetUserLoginInfo(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, entity.UserStatusActive, u.Status)
		assert.False(t, u.EmailVerified())
	})

	t.Run("UnverifiedStatusCannotCarryVerifiedAt", func(t *testing.T) {
		_, err := pool.Exec(ctx, `INSERT INTO identity_users (id, email, password, status, email_verified_at)
			VALUES (3, 'carol@example.com', 'hashed', 1, now())`)

		var pgErr *pgconn.PgError
		require.ErrorAs(t, err, &pgErr)
		assert.Equal(t, "23514", pgErr.Code)
		assert.Equal(t, "identity_users_unverified_email", pgErr.ConstraintName)
	})
}
