package services

import (
	"context"

	"github.com/splittyhq/splitty_backend/internal/dto"
)

// AuthSvcFacade is the identity/session provider: it verifies
// credentials against the remote profiles table and issues session
// tokens. Sign-out is client-side token discard; sessions are stateless.
type AuthSvcFacade interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error)
}
