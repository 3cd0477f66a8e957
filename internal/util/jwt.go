package util

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenSigner 负责签发和校验 JWT，密钥、算法、有效期来自配置
type TokenSigner struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// NewTokenSigner 构造函数；algorithm 为 HS256/HS384/HS512
func NewTokenSigner(secret, algorithm string, ttl time.Duration) (*TokenSigner, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not HMAC", algorithm)
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &TokenSigner{secret: []byte(secret), method: method, ttl: ttl}, nil
}

// Generate 生成 subject 的 JWT（sub=email），返回 token 及过期时间
func (s *TokenSigner) Generate(subject string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}

	token, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse 解析并验证 JWT（签名、算法、exp 必填），返回 Claims
func (s *TokenSigner) Parse(tokenStr string) (*jwt.RegisteredClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// IsExpired reports whether err came from an expired token.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}
