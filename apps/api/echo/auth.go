package echoapi

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/annourmah/etudia/core"
	"github.com/annourmah/etudia/core/user"
)

var (
	contextTokenKey = "userToken"
	contextUserKey  = "user"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email,omitempty"`
	Remember bool   `json:"remember,omitempty"`
}

// GetUserClaims builds the session claims for a freshly authenticated user.
// A remembered session lives 30 days instead of 24 hours.
func GetUserClaims(conf *core.Config, usr user.User, remember bool) *Claims {
	delta := conf.Server.SessionExpirationDelta
	if remember {
		delta = conf.Server.SessionRememberExpirationDelta
	}

	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    conf.AppName,
			Subject:   strconv.FormatInt(usr.ID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(delta)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email:    usr.Email,
		Remember: remember,
	}
}

func authenticate(email, pwd string, svc *user.Service) (user.User, error) {
	usr, err := svc.Authenticate(email, pwd)
	if err != nil {
		if errors.Cause(err) == user.ErrInvalidCredentials {
			return user.User{}, errAuthenticationFailed
		}
		return user.User{}, errors.Wrap(err, "authenticating")
	}
	return usr, nil
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func parseToken(conf *core.Config, tokenStr string) (*jwt.Token, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		new(Claims),
		func(t *jwt.Token) (interface{}, error) { return []byte(conf.SecretKey), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, err
	}
	return token, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc *user.Service) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting context claims")
	}

	usr, err := svc.GetByEmail(claims.Email)
	if err != nil {
		return user.User{}, errUnauthorized
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}
