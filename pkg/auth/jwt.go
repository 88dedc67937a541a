package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Sub   int64  `json:"sub"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func NewAccessToken(sub int64, phone, role, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Sub:   sub,
		Phone: phone,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{"timey-api"},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func Parse(tokenString, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*Claims); ok && tok.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// NewSessionPair issues the access+refresh token pair handed out after a
// successful OTP verification.
func NewSessionPair(masterID int64, phone, secret string, accessTTL, refreshTTL time.Duration) (access, refresh string, err error) {
	access, err = NewAccessToken(masterID, phone, "master", secret, accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = NewAccessToken(masterID, phone, "refresh", secret, refreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func NewGuestSession(guestID int64, deviceID, secret string, ttl time.Duration) (string, error) {
	return NewAccessToken(guestID, deviceID, "guest", secret, ttl)
}
