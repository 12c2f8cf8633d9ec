package jwt

import (
	"context"
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrTokenExpired is returned when a token has expired.
	ErrTokenExpired = errors.New("token is expired")
	ErrTokenRevoked = errors.New("token is revoked")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims identifies a console operator.
type Claims struct {
	OperatorID string `json:"operator_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	jwtlib.RegisteredClaims
}

// Operator is the identity a token is issued for.
type Operator struct {
	ID    string
	Name  string
	Email string
}

// TokenManager provides methods for generating, validating, and revoking operator tokens.
type TokenManager interface {
	GenerateToken(op Operator, ttl time.Duration) (string, error)
	ValidateAccessToken(ctx context.Context, tokenString string) (*Claims, error)
	RevokeToken(ctx context.Context, tokenString string) error
	IsTokenRevoked(ctx context.Context, tokenString string) (bool, error)
}

// NewTokenManager creates a new TokenManager with the given secret key and Redis client.
// A nil client disables revocation.
func NewTokenManager(secretKey string, redisClient *redis.Client) TokenManager {
	return &tokenManager{secretKey: secretKey, redis: redisClient}
}

// NewTokenManagerWithoutRedis creates a TokenManager that only checks signatures and expiry.
func NewTokenManagerWithoutRedis(secretKey string) TokenManager {
	return &tokenManager{secretKey: secretKey}
}

type tokenManager struct {
	secretKey string
	redis     *redis.Client
}

// GenerateToken signs an HS256 access token for op.
func (j *tokenManager) GenerateToken(op Operator, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		OperatorID: op.ID,
		Name:       op.Name,
		Email:      op.Email,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   op.ID,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

func (j *tokenManager) parse(tokenString string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenString, &Claims{}, func(token *jwtlib.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(j.secretKey), nil
	})
	if errors.Is(err, jwtlib.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAccessToken parses the token and, when Redis is configured, rejects revoked tokens.
func (j *tokenManager) ValidateAccessToken(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := j.parse(tokenString)
	if err != nil {
		return nil, err
	}
	revoked, err := j.IsTokenRevoked(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// RevokeToken blacklists the token in Redis until it would naturally expire.
func (j *tokenManager) RevokeToken(ctx context.Context, tokenString string) error {
	if j.redis == nil {
		return errors.New("redis client not configured")
	}
	claims, err := j.parse(tokenString)
	if err != nil {
		return errors.New("invalid token for revocation")
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil // already expired
	}
	return j.redis.Set(ctx, j.redisKey(tokenString), "revoked", ttl).Err()
}

// IsTokenRevoked checks if the token is blacklisted in Redis.
func (j *tokenManager) IsTokenRevoked(ctx context.Context, tokenString string) (bool, error) {
	if j.redis == nil {
		return false, nil
	}
	res, err := j.redis.Exists(ctx, j.redisKey(tokenString)).Result()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// redisKey generates a Redis key for a JWT token.
func (j *tokenManager) redisKey(tokenString string) string {
	return "jwt:blacklist:" + tokenString
}
