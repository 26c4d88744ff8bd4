package jwt

import (
	"errors"
	"fmt"
	"time"

	"identity_service/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	SessionID string `json:"id"`
	jwt.RegisteredClaims
}

type Secret struct {
	Key string
	TTL time.Duration
}

// * Issuer подписывает access и refresh токены разными секретами
type Issuer struct {
	access  Secret
	refresh Secret
	now     func() time.Time
}

func New(access, refresh Secret) *Issuer {
	return &Issuer{
		access:  access,
		refresh: refresh,
		now:     time.Now,
	}
}

func (i *Issuer) CreateTokens(sessionID string) (models.Tokens, error) {
	const op = "lib.jwt.CreateTokens"

	accessToken, err := i.sign(sessionID, i.access)
	if err != nil {
		return models.Tokens{}, fmt.Errorf("%s: access: %w", op, err)
	}

	refreshToken, err := i.sign(sessionID, i.refresh)
	if err != nil {
		return models.Tokens{}, fmt.Errorf("%s: refresh: %w", op, err)
	}

	return models.Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (i *Issuer) ParseAccess(token string) (string, error) {
	return i.parse(token, i.access)
}

func (i *Issuer) ParseRefresh(token string) (string, error) {
	return i.parse(token, i.refresh)
}

// * RefreshTTL время жизни refresh токена, оно же время жизни сессии
func (i *Issuer) RefreshTTL() time.Duration {
	return i.refresh.TTL
}

func (i *Issuer) sign(sessionID string, s Secret) (string, error) {
	now := i.now()

	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.Key))
}

func (i *Issuer) parse(tokenStr string, s Secret) (string, error) {
	const op = "lib.jwt.parse"

	var claims Claims

	parsed, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.Key), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}

	if !parsed.Valid || claims.SessionID == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims.SessionID, nil
}
