package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dropout/core/user"
)

// sessionMiddleware resolves the token's session; tokens of destroyed sessions are rejected.
func sessionMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			sess, err := svc.GetSession(ctx.Request().Context(), claims.Id)
			if err != nil {
				if err == user.ErrSessionNotFound {
					return errSessionExpired
				}
				return errors.Wrap(err, "getting session")
			}
			if sess.Username != claims.Subject {
				return errSessionExpired
			}
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

func roleMiddleware(role user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := getContextSession(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context session")
			}
			if sess.Role == role {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func studentMiddleware() echo.MiddlewareFunc { return roleMiddleware(user.RoleStudent) }

func teacherMiddleware() echo.MiddlewareFunc { return roleMiddleware(user.RoleTeacher) }
