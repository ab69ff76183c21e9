package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type RefreshTokenInput struct {
	RefreshToken string `validate:"required"`
	Client       ClientMeta
}

func (s *Usecase) RefreshToken(ctx context.Context, in RefreshTokenInput) (*SessionOutput, error) {
	ctx, span := s.startSpan(ctx, "RefreshToken")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	oldHash, err := s.hmac.Hash(in.RefreshToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash old refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	rt, err := s.repoDB.GetUserRefreshToken(ctx, string(oldHash))
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user refresh token not found")
		return nil, goerror.NewBusiness(msgInvalidRefresh, goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	if rt.RefreshRevoked {
		// A rotated token showing up again means it leaked; end every session.
		if rt.RefreshReplacedByTokenID != nil {
			if err := s.repoDB.RevokeAllRefreshToken(ctx, rt.UserID); err != nil {
				slog.ErrorContext(ctx, "failed to repo revoke all refresh token", "user_id", rt.UserID, "error", err)
			}

			slog.WarnContext(ctx, "refresh token reuse detected", "user_id", rt.UserID, "refresh_token_id", rt.RefreshID)
			return nil, goerror.NewBusiness("Token reuse detected, please log in again.", goerror.CodeForbidden)
		}

		slog.WarnContext(ctx, "refresh token is revoked", "refresh_token_id", rt.RefreshID)
		return nil, goerror.NewBusiness(msgInvalidRefresh, goerror.CodeUnauthorized)
	}

	if s.clock.Now().After(rt.RefreshExpiresAt) {
		slog.WarnContext(ctx, "user refresh token is expired", "refresh_token_id", rt.RefreshID)
		return nil, goerror.NewBusiness(msgInvalidRefresh, goerror.CodeUnauthorized)
	}

	if err := s.ensureUserStatusAllowed(ctx, rt.UserID, rt.UserStatus); err != nil {
		return nil, err
	}

	acToken, err := s.jwt.Generate(rt.UserID, rt.UserEmail)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", rt.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	newToken := s.opaque.Generate()
	newHash, err := s.hmac.Hash(newToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash new refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	err = s.repoDB.RotateRefreshToken(ctx, entity.RotateRefreshToken{
		NewID:        s.uid.Generate(),
		OldID:        rt.RefreshID,
		UserID:       rt.UserID,
		NewToken:     string(newHash),
		NewExpiresAt: s.clock.Now().Add(s.cfg.GetDay("modules.identity.refresh_token_ttl_days")),
		Metadata:     in.Client.toMap(),
	})
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "refresh token already rotated or revoked", "refresh_token_id", rt.RefreshID)
		return nil, goerror.NewBusiness(msgInvalidRefresh, goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo rotate refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &SessionOutput{AccessToken: acToken, RefreshToken: newToken}, nil
}
