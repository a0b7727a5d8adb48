package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gunuduru/assignment-auth/internal/dto/req"
	"github.com/gunuduru/assignment-auth/internal/dto/resp"
	"github.com/gunuduru/assignment-auth/internal/errs"
	"github.com/gunuduru/assignment-auth/internal/model"
	"github.com/gunuduru/assignment-auth/internal/repository"
	"github.com/gunuduru/assignment-auth/pkg/logger"
	"go.uber.org/zap"
)

const (
	Issuer = "assignment-auth-service"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type UserClaims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"sub"`
	Role     string `json:"role"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

type AuthConfig struct {
	Secret          []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type AuthService struct {
	users    repository.UserInterface
	sessions repository.SessionInterface
	hasher   PasswordHasher
	cfg      AuthConfig
	now      func() time.Time
}

func NewAuthService(users repository.UserInterface, sessions repository.SessionInterface, hasher PasswordHasher, cfg AuthConfig) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, r req.RegisterReq) (*resp.RegisterResp, error) {
	taken, err := s.users.ExistsByUsername(ctx, r.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errs.ErrUsernameTaken
	}
	taken, err = s.users.ExistsBySSN(ctx, r.SSN)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errs.ErrSSNTaken
	}

	hash, err := s.hasher.Hash(r.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     r.Username,
		PasswordHash: hash,
		Name:         r.Name,
		SSN:          r.SSN,
		PhoneNumber:  r.PhoneNumber,
		Address:      r.Address,
		Role:         model.RoleUser,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info("user registered", zap.Int64("id", user.ID), zap.String("username", user.Username))
	return &resp.RegisterResp{
		ID:        user.ID,
		Username:  user.Username,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	}, nil
}

// Login authenticates a user and returns a pair of tokens.
func (s *AuthService) Login(ctx context.Context, r req.LoginReq) (*resp.TokenResp, error) {
	user, err := s.users.FindByUsername(ctx, r.Username)
	if errors.Is(err, errs.ErrUserNotFound) {
		return nil, errs.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Compare(user.PasswordHash, r.Password) {
		return nil, errs.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, errs.ErrInactiveUser
	}
	return s.generateTokens(ctx, user)
}

// Refresh rotates the token pair. The presented refresh token must be the
// one currently stored for the user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*resp.TokenResp, error) {
	claims, err := s.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	stored, err := s.sessions.Get(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if stored != refreshToken {
		// an old token was replayed; drop the session so both parties must log in again
		if err := s.sessions.Delete(ctx, claims.UserID); err != nil {
			logger.Warn("failed to revoke session after token reuse", zap.Int64("user_id", claims.UserID), zap.Error(err))
		}
		return nil, errs.ErrTokenInvalid
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, errs.ErrUserNotFound) {
		return nil, errs.ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errs.ErrInactiveUser
	}
	return s.generateTokens(ctx, user)
}

func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	return s.sessions.Delete(ctx, userID)
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (*resp.ProfileResp, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &resp.ProfileResp{
		ID:                   user.ID,
		Account:              user.Username,
		Name:                 user.Name,
		SSN:                  MaskSSN(user.SSN),
		PhoneNumber:          user.PhoneNumber,
		AdministrativeRegion: AdministrativeRegion(user.Address),
		IsActive:             user.IsActive,
		CreatedAt:            user.CreatedAt,
		UpdatedAt:            user.UpdatedAt,
	}, nil
}

// ParseAccessToken validates an access token and returns its claims.
func (s *AuthService) ParseAccessToken(token string) (*UserClaims, error) {
	return s.parse(token, tokenTypeAccess)
}

func (s *AuthService) parse(token, typ string) (*UserClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &UserClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.cfg.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(Issuer))
	if err != nil {
		return nil, errs.ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*UserClaims)
	if !ok || !parsed.Valid || claims.Type != typ {
		return nil, errs.ErrTokenInvalid
	}
	return claims, nil
}

func (s *AuthService) sign(user *model.User, typ string, ttl time.Duration, now time.Time) (string, error) {
	claims := UserClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			ID:        uuid.New().String(), // JTI
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
}

func (s *AuthService) generateTokens(ctx context.Context, user *model.User) (*resp.TokenResp, error) {
	now := s.now()
	accessToken, err := s.sign(user, tokenTypeAccess, s.cfg.AccessTokenTTL, now)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.sign(user, tokenTypeRefresh, s.cfg.RefreshTokenTTL, now)
	if err != nil {
		return nil, err
	}

	// allow-list: only the latest refresh token per user is accepted
	if err := s.sessions.Save(ctx, user.ID, refreshToken, s.cfg.RefreshTokenTTL); err != nil {
		return nil, err
	}

	return &resp.TokenResp{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.cfg.AccessTokenTTL.Seconds()),
		User: resp.UserInfo{
			ID:       user.ID,
			Username: user.Username,
			Name:     user.Name,
			Role:     string(user.Role),
			IsActive: user.IsActive,
		},
	}, nil
}

// MaskSSN hides the seven digits after the dash.
func MaskSSN(ssn string) string {
	front, back, ok := strings.Cut(ssn, "-")
	if !ok || len(front) != 6 || len(back) != 7 {
		return ssn
	}
	return front + "-*******"
}

// AdministrativeRegion returns the leading 시/도 part of a Korean address,
// e.g. "서울특별시" from "서울특별시 강남구 ...".
func AdministrativeRegion(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}
	first, _, _ := strings.Cut(address, " ")
	if strings.HasSuffix(first, "시") || strings.HasSuffix(first, "도") {
		return first
	}

	// no space after the region, cut at whichever marker comes first
	si := strings.Index(address, "시")
	do := strings.Index(address, "도")
	switch {
	case si > 0 && (do == -1 || si < do):
		return address[:si+len("시")]
	case do > 0 && (si == -1 || do < si):
		return address[:do+len("도")]
	}
	return first
}
