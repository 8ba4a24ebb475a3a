package echoapi

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/annourmah/etudia/core"
	"github.com/annourmah/etudia/core/exchange"
	"github.com/annourmah/etudia/core/student"
)

type (
	ImportResponse struct {
		Imported int `json:"imported"`
		Skipped  int `json:"skipped,omitempty"`
	}

	ImportErrorResponse struct {
		Errors []string `json:"errors"`
	}
)

type exchangeApi struct {
	svc *student.Service
}

func registerExchangeAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := exchangeApi{svc: opts.StudentSvc}

	g.POST("/import/:entity", api.importEntity, jwt)
	g.GET("/export/:entity", api.exportEntity, jwt)
}

// importEntity accepts a CSV or JSON file under the multipart "file" field.
// The whole file is rejected when any row fails validation; nothing is
// committed in that case.
func (api *exchangeApi) importEntity(ctx echo.Context) error {
	entity := ctx.Param("entity")
	if entity != "students" && entity != "results" {
		return errHttpNotFound
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(errors.New("aucun fichier fourni"))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer file.Close()

	rows, err := parseRows(file, fileHeader.Filename)
	if err != nil {
		return core.NewValidationError(err)
	}

	var validation exchange.Validation
	if entity == "students" {
		validation = exchange.ValidateStudents(rows)
	} else {
		validation = exchange.ValidateResults(rows)
	}
	if !validation.IsValid {
		return ctx.JSON(http.StatusBadRequest, ImportErrorResponse{Errors: validation.Errors})
	}

	if entity == "students" {
		for _, ns := range exchange.DecodeStudents(rows) {
			api.svc.AddStudent(ns)
		}
		return ctx.JSON(http.StatusOK, ImportResponse{Imported: len(rows)})
	}
	return api.importResults(ctx, exchange.DecodeResults(rows))
}

// importResults associates each row with its student by matricule when the
// reference is not numeric. Numeric references are kept as-is even when no
// matching student exists.
func (api *exchangeApi) importResults(ctx echo.Context, imported []exchange.ImportedResult) error {
	byMatricule := make(map[string]int64)
	for _, st := range api.svc.Students() {
		byMatricule[st.Matricule] = st.ID
	}

	var added, skipped int
	for _, res := range imported {
		id, err := strconv.ParseInt(res.StudentRef, 10, 64)
		if err != nil {
			var ok bool
			if id, ok = byMatricule[res.StudentRef]; !ok {
				skipped++
				continue
			}
		}
		api.svc.AddResult(student.NewResult{StudentID: id, Subject: res.Subject, Score: res.Score})
		added++
	}
	return ctx.JSON(http.StatusOK, ImportResponse{Imported: added, Skipped: skipped})
}

func (api *exchangeApi) exportEntity(ctx echo.Context) error {
	entity := ctx.Param("entity")
	if entity != "students" && entity != "results" {
		return errHttpNotFound
	}

	format := ctx.QueryParam("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		return core.NewValidationError(fmt.Errorf("format inconnu: %s", format))
	}

	var buf bytes.Buffer
	var err error
	switch {
	case entity == "students" && format == "csv":
		err = exchange.EncodeStudentsCSV(&buf, api.svc.Students())
	case entity == "students" && format == "json":
		err = exchange.EncodeStudentsJSON(&buf, api.svc.Students())
	case entity == "results" && format == "csv":
		err = exchange.EncodeResultsCSV(&buf, api.svc.Results(), api.svc.Students())
	default:
		err = exchange.EncodeResultsJSON(&buf, api.svc.Results(), api.svc.Students())
	}
	if err != nil {
		return errors.Wrap(err, "encoding export")
	}

	contentType := "text/csv; charset=utf-8"
	if format == "json" {
		contentType = echo.MIMEApplicationJSON
	}
	filename := exchange.Filename(entity, format, time.Now())
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, contentType, buf.Bytes())
}

func parseRows(file io.Reader, filename string) ([]exchange.Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return exchange.ParseCSV(file)
	case ".json":
		return exchange.ParseJSON(file)
	}
	return nil, fmt.Errorf("format de fichier non supporté: %s", filepath.Ext(filename))
}
