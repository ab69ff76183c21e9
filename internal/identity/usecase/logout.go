package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
)

type LogoutInput struct {
	RefreshToken string
}

// Logout revokes the presented refresh token. The access token simply runs
// out. Unknown or malformed refresh tokens are ignored.
func (s *Usecase) Logout(ctx context.Context, in LogoutInput) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return goerror.NewBusiness(msgAuthRequired, goerror.CodeUnauthorized)
	}

	if len(in.RefreshToken) != uid.OpaqueLen {
		return nil
	}

	tokenHash, err := s.hmac.Hash(in.RefreshToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "error", err)
		return goerror.NewServer(err)
	}

	if err := s.repoDB.RevokeRefreshToken(ctx, clm.UserID, string(tokenHash)); err != nil {
		slog.ErrorContext(ctx, "failed to repo revoke refresh token", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
