package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/annourmah/etudia/core"
	"github.com/annourmah/etudia/core/user"
)

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
		Remember bool   `json:"remember"`
	}

	LoginResponse struct {
		Token string       `json:"token"`
		User  user.User    `json:"user"`
		Sess  user.Session `json:"session"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (r *LoginRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}

func (r *PasswordResetRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}

type authApi struct {
	conf     *core.Config
	svc      *user.Service
	sessions *user.SessionManager
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := authApi{
		conf:     opts.Conf,
		svc:      opts.UserSvc,
		sessions: opts.Sessions,
		validate: opts.Validate,
	}

	// un-authed endpoints
	g.POST("/register", api.register)
	g.POST("/login", api.login)
	g.POST("/forgot-password", api.forgotPassword)
	g.POST("/reset-password/:token", api.resetPassword)
	g.GET("/session", api.session)

	// authed endpoints
	ag := g.Group("", jwt)
	ag.POST("/logout", api.logout)
	ag.GET("/users", api.query)
}

func (api *authApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Register(data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := authenticate(data.Email, data.Password, api.svc)
	if err != nil {
		return err
	}

	sess := api.sessions.Open(usr, data.Remember)

	token, err := GenerateToken(api.conf, GetUserClaims(api.conf, usr, data.Remember))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, User: usr, Sess: sess})
}

func (api *authApi) logout(ctx echo.Context) error {
	api.sessions.Close()
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Déconnexion réussie."})
}

// session reports the current login state; an expired session reads back as
// logged-out.
func (api *authApi) session(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.sessions.Current())
}

func (api *authApi) forgotPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "Si cette adresse email est associée à un compte, " +
			"un email contenant les instructions de réinitialisation vient d'être envoyé.",
	})
}

func (api *authApi) resetPassword(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	data.Token = ctx.Param("token")
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(data); err != nil {
		if errors.Cause(err) == user.ErrInvalidToken || errors.Cause(err) == user.ErrNotFound {
			return core.NewValidationError(user.ErrInvalidToken)
		}
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Le mot de passe a été réinitialisé."})
}

func (api *authApi) query(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.QueryAll())
}
