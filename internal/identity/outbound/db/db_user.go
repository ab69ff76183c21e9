package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shandysiswandi/otpgate/internal/identity/entity"
)

const (
	queryGetUserLoginInfo = `
		SELECT id, email, status, password, email_verified_at, otp_code, otp_expires_at
		FROM identity_users
		WHERE lower(email) = lower($1) AND deleted_at IS NULL`

	queryGetUserByID = `
		SELECT id, email, full_name, status, email_verified_at
		FROM identity_users
		WHERE id = $1 AND deleted_at IS NULL`

	querySetUserLoginOTP = `
		UPDATE identity_users
		SET otp_code = $2, otp_expires_at = $3, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`

	// The digest and expiry are re-checked here so a code replaced or expired
	// after it was read can not be consumed.
	queryConsumeUserLoginOTP = `
		UPDATE identity_users
		SET otp_code = NULL, otp_expires_at = NULL, updated_at = now()
		WHERE id = $1 AND otp_code = $2 AND otp_expires_at >= $3 AND deleted_at IS NULL`
)

func (s *DB) GetUserLoginInfo(ctx context.Context, email string) (_ *entity.UserLoginInfo, err error) {
	ctx, span := s.startSpan(ctx, "GetUserLoginInfo")
	defer func() { s.endSpan(span, err) }()

	var (
		u          entity.UserLoginInfo
		verifiedAt pgtype.Timestamptz
		code       pgtype.Text
		expiresAt  pgtype.Timestamptz
	)
	err = s.conn.QueryRow(ctx, queryGetUserLoginInfo, email).
		Scan(&u.ID, &u.Email, &u.Status, &u.Password, &verifiedAt, &code, &expiresAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	if verifiedAt.Valid {
		u.EmailVerifiedAt = &verifiedAt.Time
	}

	if code.Valid && expiresAt.Valid {
		u.OTPCode = code.String
		u.OTPExpiresAt = &expiresAt.Time
	}

	return &u, nil
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	var (
		u          entity.User
		verifiedAt pgtype.Timestamptz
	)
	err = s.conn.QueryRow(ctx, queryGetUserByID, id).
		Scan(&u.ID, &u.Email, &u.FullName, &u.Status, &verifiedAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	if verifiedAt.Valid {
		u.EmailVerifiedAt = &verifiedAt.Time
	}

	return &u, nil
}

func (s *DB) SetUserLoginOTP(ctx context.Context, userID int64, digest string, expiresAt time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "SetUserLoginOTP")
	defer func() { s.endSpan(span, err) }()

	return s.exec(ctx, querySetUserLoginOTP, userID, digest, expiresAt)
}

func (s *DB) ConsumeUserLoginOTP(ctx context.Context, userID int64, digest string, now time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeUserLoginOTP")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryConsumeUserLoginOTP, userID, digest, now)
	if err != nil {
		return false, s.mapError(err)
	}

	return tag.RowsAffected() == 1, nil
}
