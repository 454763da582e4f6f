package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"masterboxer.com/project-instaclone/apperrors"
)

// Claims is the session token payload
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue returns a signed token for userID and its expiry
func (i *TokenIssuer) Issue(userID string) (string, time.Time, error) {
	issuedAt := i.now()
	expiresAt := issuedAt.Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, apperrors.Internal("failed to sign token", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature and expiry and returns the user id claim
func (i *TokenIssuer) Parse(tokenString string) (string, error) {
	if tokenString == "" {
		return "", apperrors.Unauthenticated("User not authenticated")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return "", apperrors.Wrap(apperrors.KindUnauthenticated, "Invalid or expired token", err)
	}
	if claims.UserID == "" {
		return "", apperrors.Unauthenticated("Invalid or expired token")
	}
	return claims.UserID, nil
}
