package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const photoTokenAudience = "photo-download"

// PhotoClaims identify one stored photo.
type PhotoClaims struct {
	Path string `json:"path"`
	jwt.RegisteredClaims
}

// PhotoTokenSigner issues short lived download tokens for stored photos.
type PhotoTokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewPhotoTokenSigner returns a signer; a non-positive ttl defaults to 30 minutes.
func NewPhotoTokenSigner(secret string, ttl time.Duration) *PhotoTokenSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &PhotoTokenSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token for the photo at rel belonging to subject (usually the
// inspection item id) and its expiry.
func (s *PhotoTokenSigner) Sign(subject, rel string) (string, time.Time, error) {
	if subject == "" || rel == "" {
		return "", time.Time{}, errors.New("subject and path required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("signing secret missing")
	}
	issued := s.now()
	expires := issued.Add(s.ttl)
	claims := PhotoClaims{
		Path: rel,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{photoTokenAudience},
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign photo token: %w", err)
	}
	return token, expires, nil
}

// Verify checks signature, audience and expiry and returns the claims.
func (s *PhotoTokenSigner) Verify(token string) (*PhotoClaims, error) {
	claims := &PhotoClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(photoTokenAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("verify photo token: %w", err)
	}
	if !parsed.Valid || claims.Path == "" {
		return nil, errors.New("invalid photo token")
	}
	return claims, nil
}
