package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/dropout/core"
	"github.com/trezcool/dropout/core/user"
)

var (
	contextTokenKey   = "userToken"
	contextSessionKey = "session"
	tokenAudience     = "Dashboard"
)

// Claims represents the authorization claims transmitted via a JWT.
// StandardClaims.Id holds the session ID.
type Claims struct {
	jwt.StandardClaims
	Username string    `json:"username,omitempty"`
	Role     user.Role `json:"role,omitempty"`
}

type tokenIssuer struct {
	conf      *core.Config
	jwtConfig middleware.JWTConfig
}

func newTokenIssuer(conf *core.Config) *tokenIssuer {
	return &tokenIssuer{
		conf: conf,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
	}
}

func (ti *tokenIssuer) claims(sess user.Session) *Claims {
	iat := sess.CreatedAt
	if iat.IsZero() {
		iat = time.Now()
	}
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        sess.ID,
			Issuer:    ti.conf.AppName,
			Subject:   sess.Username,
			Audience:  tokenAudience,
			ExpiresAt: iat.Add(ti.conf.JWTExpirationDelta).Unix(),
			IssuedAt:  iat.Unix(),
		},
		Username: sess.Username,
		Role:     sess.Role,
	}
}

// GenerateToken generates a signed JWT token string for the session.
func (ti *tokenIssuer) GenerateToken(sess user.Session) (string, error) {
	method := jwt.GetSigningMethod(ti.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, ti.claims(sess))

	ss, err := token.SignedString(ti.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextSession(ctx echo.Context) (user.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(user.Session); ok {
		return sess, nil
	}
	return user.Session{}, errUnauthorized
}
