package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/dropout/core/user"
)

var (
	successPasswordChanged = "Password changed."
)

type userApi struct {
	svc    *user.Service
	tokens *tokenIssuer
}

func registerUserAPI(g *echo.Group, auth []echo.MiddlewareFunc, tokens *tokenIssuer, svc *user.Service) {
	api := userApi{svc: svc, tokens: tokens}

	// un-authed endpoints
	g.POST("/login", api.login)

	// authed endpoints
	ag := g.Group("", auth...)
	ag.POST("/logout", api.logout)
	ag.GET("/me", api.me)
	ag.GET("/me/risk", api.report, studentMiddleware())
	ag.PUT("/me/password", api.changePassword)

	sg := ag.Group("/students", teacherMiddleware())
	sg.GET("", api.students)
	sg.GET("/stats", api.stats)
	sg.PUT("/:id", api.updateStudent)
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := ctx.Validate(&data); err != nil {
		return err
	}

	sess, err := api.svc.Login(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		if err == user.ErrInvalidCredentials {
			return errInvalidCredentials
		}
		return errors.Wrap(err, "logging in")
	}
	token, err := api.tokens.GenerateToken(sess)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Session: sess})
}

func (api *userApi) logout(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	if err = api.svc.Logout(ctx.Request().Context(), sess.ID); err != nil && err != user.ErrSessionNotFound {
		return errors.Wrap(err, "logging out")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) me(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	usr, err := api.svc.CurrentUser(ctx.Request().Context(), sess)
	if err != nil {
		return errors.Wrap(err, "getting current user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) report(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	rep, err := api.svc.Report(ctx.Request().Context(), sess)
	if err != nil {
		return errors.Wrap(err, "building risk report")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *userApi) changePassword(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var data user.ChangePassword
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err = api.svc.ChangePassword(ctx.Request().Context(), sess, data); err != nil {
		return errors.Wrap(err, "changing password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: successPasswordChanged})
}

func (api *userApi) students(ctx echo.Context) error {
	students, err := api.svc.Students(ctx.Request().Context(), ctx.QueryParam("search"))
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *userApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *userApi) updateStudent(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHttpNotFound
	}

	var data user.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	sr, err := api.svc.UpdateStudent(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, sr)
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required,notblank"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token   string       `json:"token"`
		Session user.Session `json:"session"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)
