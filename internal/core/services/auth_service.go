package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/splittyhq/splitty_backend/internal/apperrors"
	portsrepo "github.com/splittyhq/splitty_backend/internal/core/ports/repositories"
	portssvc "github.com/splittyhq/splitty_backend/internal/core/ports/services"
	"github.com/splittyhq/splitty_backend/internal/dto"
	"github.com/splittyhq/splitty_backend/internal/middleware"
	"github.com/splittyhq/splitty_backend/internal/platform/config"
	"github.com/splittyhq/splitty_backend/internal/utils"
)

// AuthService verifies the owner's credentials against the remote
// profiles table and issues stateless session tokens. Sign-out is a
// client-side token discard; nothing is tracked server side.
type AuthService struct {
	profiles portsrepo.ProfileRepository
	cfg      *config.Config
}

var _ portssvc.AuthSvcFacade = (*AuthService)(nil)

func NewAuthService(profiles portsrepo.ProfileRepository, cfg *config.Config) *AuthService {
	return &AuthService{profiles: profiles, cfg: cfg}
}

// Login verifies email and password and issues an access/refresh token pair.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	userID, passwordHash, err := s.profiles.FindCredentialsByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Same answer as a wrong password so login probes can't
			// enumerate accounts.
			return nil, fmt.Errorf("invalid email or password: %w", apperrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to verify credentials: %w", err)
	}

	if !utils.CheckPasswordHash(req.Password, passwordHash) {
		logger.Warn("Login failed, wrong password", "email", req.Email)
		return nil, fmt.Errorf("invalid email or password: %w", apperrors.ErrUnauthorized)
	}

	logger.Info("Login successful", "user_id", userID)
	return s.issueTokens(ctx, userID)
}

// Refresh validates a refresh token and issues a fresh token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	claims, err := utils.ParseAndValidateJWT(refreshToken, s.cfg.RefreshTokenSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", apperrors.ErrUnauthorized)
	}
	return s.issueTokens(ctx, claims.Subject)
}

func (s *AuthService) issueTokens(ctx context.Context, userID string) (*dto.AuthResponse, error) {
	profile, err := s.profiles.FindProfileByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", userID, err)
	}

	accessToken, err := utils.GenerateJWT(userID, s.cfg.JWTSecret, s.cfg.JWTExpiryDuration, s.cfg.JWTIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refreshToken, err := utils.GenerateJWT(userID, s.cfg.RefreshTokenSecret, s.cfg.RefreshTokenExpiryDuration, s.cfg.JWTIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.JWTExpiryDuration.Seconds()),
		User:         dto.ToProfileResponse(profile, utils.CurrencySymbol(profile.DefaultCurrency)),
	}, nil
}
