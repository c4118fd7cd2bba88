package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Signer seals small payloads into HS256 tokens so that values kept in
// client storage can be checked for tampering when read back.
type Signer struct {
	secretKey []byte
	now       func() time.Time
}

func NewSigner(secret string) *Signer {
	return &Signer{
		secretKey: []byte(secret),
		now:       time.Now,
	}
}

// Sign issues a token for subject carrying claims. A positive ttl sets the
// exp claim.
func (s *Signer) Sign(subject string, claims map[string]any, ttl time.Duration) (string, error) {
	mc := jwt.MapClaims{
		"sub": subject,
		"iat": s.now().Unix(),
	}
	if ttl > 0 {
		mc["exp"] = s.now().Add(ttl).Unix()
	}
	for k, v := range claims {
		mc[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of tokenString and returns its claims.
func (s *Signer) Verify(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
