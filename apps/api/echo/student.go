package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/annourmah/etudia/core/notif"
	"github.com/annourmah/etudia/core/student"
)

type (
	DeleteStudentsRequest struct {
		IDs []int64 `json:"ids" validate:"required,min=1"`
	}

	DeletedResponse struct {
		Deleted int `json:"deleted"`
	}
)

type studentApi struct {
	svc      *student.Service
	notifs   *notif.Center
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := studentApi{
		svc:      opts.StudentSvc,
		notifs:   opts.Notifs,
		validate: opts.Validate,
	}

	sg := g.Group("/students", jwt)
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.DELETE("", api.destroyMultiple)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
	sg.GET("/:id/results", api.studentResults)
	sg.GET("/:id/report", api.report)

	rg := g.Group("/results", jwt)
	rg.GET("", api.queryResults)
	rg.POST("", api.createResult)
	rg.DELETE("/:id", api.destroyResult)

	g.GET("/stats", api.stats, jwt)
	g.GET("/subjects", api.subjects, jwt)

	ng := g.Group("/notifications", jwt)
	ng.GET("", api.notifications)
	ng.DELETE("/:id", api.dismissNotification)
}

// Handlers

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	filter.Clean()

	return ctx.JSON(http.StatusOK, api.svc.Filter(*filter))
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, api.svc.AddStudent(data))
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	st, ok := api.svc.GetStudent(id)
	if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) update(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, ok := api.svc.UpdateStudent(id, data)
	if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	if !api.svc.DeleteStudent(id) {
		return errHttpNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) destroyMultiple(ctx echo.Context) error {
	var data DeleteStudentsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeleteStudentsRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, DeletedResponse{Deleted: api.svc.DeleteStudents(data.IDs...)})
}

func (api *studentApi) studentResults(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.svc.ResultsForStudent(id))
}

func (api *studentApi) report(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	report, ok := api.svc.Report(id)
	if !ok {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *studentApi) queryResults(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Results())
}

func (api *studentApi) createResult(ctx echo.Context) error {
	var data student.NewResult
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResult")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, api.svc.AddResult(data))
}

func (api *studentApi) destroyResult(ctx echo.Context) error {
	if !api.svc.DeleteResult(ctx.Param("id")) {
		return errHttpNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) stats(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Stats())
}

func (api *studentApi) subjects(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.SubjectSummaries())
}

func (api *studentApi) notifications(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.notifs.Latest())
}

func (api *studentApi) dismissNotification(ctx echo.Context) error {
	api.notifs.Dismiss(ctx.Param("id"))
	return ctx.NoContent(http.StatusNoContent)
}

func pathID(ctx echo.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}
