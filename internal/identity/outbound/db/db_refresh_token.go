package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

const (
	queryCreateRefreshToken = `
		INSERT INTO identity_refresh_tokens (id, user_id, token, expires_at, metadata)
		VALUES ($1, $2, $3, $4, $5)`

	queryGetUserRefreshToken = `
		SELECT u.id, u.email, u.status, rt.id, rt.revoked, rt.replaced_by_token_id, rt.expires_at
		FROM identity_refresh_tokens rt
		JOIN identity_users u ON u.id = rt.user_id
		WHERE rt.token = $1 AND u.deleted_at IS NULL`

	queryReplaceRefreshToken = `
		UPDATE identity_refresh_tokens
		SET revoked = TRUE, replaced_by_token_id = $2, updated_at = now()
		WHERE id = $1 AND user_id = $3 AND NOT revoked`

	queryRevokeRefreshToken = `
		UPDATE identity_refresh_tokens
		SET revoked = TRUE, updated_at = now()
		WHERE token = $1 AND user_id = $2 AND NOT revoked`

	queryRevokeAllRefreshToken = `
		UPDATE identity_refresh_tokens
		SET revoked = TRUE, updated_at = now()
		WHERE user_id = $1 AND NOT revoked`
)

func (s *DB) CreateRefreshToken(ctx context.Context, in entity.RefreshToken) (err error) {
	ctx, span := s.startSpan(ctx, "CreateRefreshToken")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryCreateRefreshToken, in.ID, in.UserID, in.Token, in.ExpiresAt, in.Metadata)
	return s.mapError(err)
}

func (s *DB) GetUserRefreshToken(ctx context.Context, token string) (_ *entity.UserRefreshToken, err error) {
	ctx, span := s.startSpan(ctx, "GetUserRefreshToken")
	defer func() { s.endSpan(span, err) }()

	var (
		rt         entity.UserRefreshToken
		replacedBy pgtype.Int8
	)
	err = s.conn.QueryRow(ctx, queryGetUserRefreshToken, token).Scan(
		&rt.UserID,
		&rt.UserEmail,
		&rt.UserStatus,
		&rt.RefreshID,
		&rt.RefreshRevoked,
		&replacedBy,
		&rt.RefreshExpiresAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	if replacedBy.Valid {
		rt.RefreshReplacedByTokenID = &replacedBy.Int64
	}

	return &rt, nil
}

// RotateRefreshToken revokes the old token and stores its replacement in one
// transaction. It returns goerror.ErrNotFound when the old token was already
// revoked, which happens when two refreshes race.
func (s *DB) RotateRefreshToken(ctx context.Context, ro entity.RotateRefreshToken) (err error) {
	ctx, span := s.startSpan(ctx, "RotateRefreshToken")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback", "error", rErr)
		}
	}()

	// The new row goes first so replaced_by_token_id points at something real.
	if _, err := tx.Exec(ctx, queryCreateRefreshToken, ro.NewID, ro.UserID, ro.NewToken, ro.NewExpiresAt, ro.Metadata); err != nil {
		return s.mapError(err)
	}

	tag, err := tx.Exec(ctx, queryReplaceRefreshToken, ro.OldID, ro.NewID, ro.UserID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) RevokeRefreshToken(ctx context.Context, userID int64, token string) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeRefreshToken")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryRevokeRefreshToken, token, userID)
	return s.mapError(err)
}

func (s *DB) RevokeAllRefreshToken(ctx context.Context, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeAllRefreshToken")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryRevokeAllRefreshToken, userID)
	return s.mapError(err)
}
