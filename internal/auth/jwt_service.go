// Package auth 校验身份服务签发的访问令牌，本服务不签发令牌
package auth

import (
	"errors"
	"fmt"

	"github.com/anoixa/image-gallery/database/models"
	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength HS256 密钥最小长度
const MinSecretLength = 32

var (
	// ErrInvalidToken 令牌无法解析或已过期
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrMissingClaim 令牌缺少必需的声明
	ErrMissingClaim = errors.New("missing token claim")
)

// TokenClaims 访问令牌中的身份信息
type TokenClaims struct {
	UserID   uint
	Username string
	Role     string
}

// JWTService 只做校验的 JWT 服务
type JWTService struct {
	secret []byte
}

// NewJWTService 创建 JWT 校验服务
func NewJWTService(secret string) (*JWTService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("JWT secret must be at least %d characters long, got %d", MinSecretLength, len(secret))
	}
	return &JWTService{secret: []byte(secret)}, nil
}

// ParseToken 解析和验证 JWT 令牌
func (s *JWTService) ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractClaims 从令牌中提取用户身份，role 缺省为 user
func (s *JWTService) ExtractClaims(tokenString string) (*TokenClaims, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return nil, fmt.Errorf("%w: user_id", ErrMissingClaim)
	}
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return nil, fmt.Errorf("%w: username", ErrMissingClaim)
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = models.RoleUser
	}

	return &TokenClaims{
		UserID:   uint(userID),
		Username: username,
		Role:     role,
	}, nil
}
