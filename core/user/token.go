package user

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	nowFunc = time.Now // mockable

	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// makeResetToken issues a signed, time-limited password-reset token carrying
// the user's email claim.
func makeResetToken(usr User, secret []byte, timeout time.Duration) (string, error) {
	now := nowFunc()
	claims := jwt.RegisteredClaims{
		Subject:   usr.Email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(timeout)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// verifyResetToken checks the token signature and expiry and returns the
// email claim.
func verifyResetToken(token string, secret []byte) (string, error) {
	parsed, err := jwt.ParseWithClaims(
		token,
		&jwt.RegisteredClaims{},
		func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return nowFunc() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errTokenExpired
		}
		return "", errInvalidToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errInvalidToken
	}
	return claims.Subject, nil
}
