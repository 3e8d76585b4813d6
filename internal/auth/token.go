package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleMember  = "member"
	RoleTrainer = "trainer"
	RoleAdmin   = "admin"

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour

	jwtIssuer   = "gymcore-api"
	jwtAudience = "gymcore-users"
)

var (
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrEmptyJWTSecret   = errors.New("jwt secret cannot be empty")
	ErrUnknownRole      = errors.New("unknown role")
)

// ValidRole reports whether role is one the API grants access to.
func ValidRole(role string) bool {
	switch role {
	case RoleMember, RoleTrainer, RoleAdmin:
		return true
	}
	return false
}

// JWTClaims identify the caller. Subject mirrors UserID so standard JWT
// tooling can read it.
type JWTClaims struct {
	UserID    int    `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func (c *JWTClaims) IsMember() bool  { return c.Role == RoleMember }
func (c *JWTClaims) IsTrainer() bool { return c.Role == RoleTrainer }
func (c *JWTClaims) IsAdmin() bool   { return c.Role == RoleAdmin }

func (c *JWTClaims) validate() error {
	if c.UserID <= 0 || c.Subject != strconv.Itoa(c.UserID) {
		return ErrInvalidToken
	}
	if !ValidRole(c.Role) {
		return fmt.Errorf("%w: %w %q", ErrInvalidToken, ErrUnknownRole, c.Role)
	}
	if c.TokenType != TokenTypeAccess && c.TokenType != TokenTypeRefresh {
		return ErrInvalidTokenType
	}
	return nil
}

func signToken(userID int, email, role, tokenType, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptyJWTSecret
	}
	if !ValidRole(role) {
		return "", fmt.Errorf("%w %q", ErrUnknownRole, role)
	}

	now := time.Now()
	claims := &JWTClaims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			Issuer:    jwtIssuer,
			Audience:  []string{jwtAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func GenerateAccessToken(userID int, email, role, secret string) (string, error) {
	return signToken(userID, email, role, TokenTypeAccess, secret, AccessTokenTTL)
}

func GenerateRefreshToken(userID int, email, role, secret string) (string, error) {
	return signToken(userID, email, role, TokenTypeRefresh, secret, RefreshTokenTTL)
}

func GenerateTokens(userID int, email, role, accessSecret, refreshSecret string) (accessToken, refreshToken string, err error) {
	if accessToken, err = GenerateAccessToken(userID, email, role, accessSecret); err != nil {
		return "", "", err
	}
	if refreshToken, err = GenerateRefreshToken(userID, email, role, refreshSecret); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// ValidateToken parses an HS256 token issued by this API and checks that it
// names a known role.
func ValidateToken(tokenString, secret string) (*JWTClaims, error) {
	if secret == "" {
		return nil, ErrEmptyJWTSecret
	}

	claims := &JWTClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jwtIssuer),
		jwt.WithAudience(jwtAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if err := claims.validate(); err != nil {
		return nil, err
	}
	return claims, nil
}

// RefreshAccessToken trades a refresh token for a new access token carrying
// the same identity and role.
func RefreshAccessToken(refreshToken, refreshSecret, accessSecret string) (string, *JWTClaims, error) {
	claims, err := ValidateToken(refreshToken, refreshSecret)
	if err != nil {
		return "", nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return "", nil, ErrInvalidTokenType
	}

	access, err := GenerateAccessToken(claims.UserID, claims.Email, claims.Role, accessSecret)
	if err != nil {
		return "", nil, err
	}
	return access, claims, nil
}
