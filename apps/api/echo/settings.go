package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/annourmah/etudia/storage/localstore"
)

type (
	Settings struct {
		Theme       string `json:"theme"`
		OfflineMode bool   `json:"offlineMode"`
	}

	UpdateTheme struct {
		Theme string `json:"theme" validate:"required,oneof=light dark"`
	}
)

type settingsApi struct {
	store    *localstore.Store
	validate *validator.Validate
}

func registerSettingsAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := settingsApi{
		store:    opts.Settings,
		validate: opts.Validate,
	}

	sg := g.Group("/settings", jwt)
	sg.GET("", api.retrieve)
	sg.PUT("/theme", api.updateTheme)
}

func (api *settingsApi) retrieve(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, Settings{
		Theme:       api.store.Theme(),
		OfflineMode: api.store.OfflineMode(),
	})
}

func (api *settingsApi) updateTheme(ctx echo.Context) error {
	var data UpdateTheme
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTheme")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	if err := api.store.SetTheme(data.Theme); err != nil {
		return errors.Wrap(err, "saving theme")
	}
	return ctx.JSON(http.StatusOK, Settings{
		Theme:       data.Theme,
		OfflineMode: api.store.OfflineMode(),
	})
}
