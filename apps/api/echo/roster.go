package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Heetpatel09/TimeWise-sub001/core/roster"
)

const ctxObjectKey = "object"

var errObjNotFoundInCtx = errors.New("object not found in echo.Context")

type rosterApi struct {
	svc      *roster.Service
	validate *validator.Validate
}

func registerRosterAPI(g *echo.Group, svc *roster.Service, validate *validator.Validate) {
	api := rosterApi{svc: svc, validate: validate}

	sg := g.Group("/subjects")
	sg.GET("", api.querySubjects)
	sg.POST("", api.createSubject)
	sg.DELETE("", api.destroySubjects)
	sdg := sg.Group("/:id", objectMiddleware(func(ctx echo.Context, id string) (interface{}, error) {
		return svc.GetSubject(ctx.Request().Context(), id)
	}))
	sdg.GET("", api.retrieve)
	sdg.DELETE("", api.destroySubject)

	secg := g.Group("/sections")
	secg.GET("", api.querySections)
	secg.POST("", api.createSection)
	secg.DELETE("", api.destroySections)
	secdg := secg.Group("/:id", objectMiddleware(func(ctx echo.Context, id string) (interface{}, error) {
		return svc.GetSection(ctx.Request().Context(), id)
	}))
	secdg.GET("", api.retrieve)
	secdg.DELETE("", api.destroySection)

	tg := g.Group("/teachers")
	tg.GET("", api.queryTeachers)
	tg.POST("", api.createTeacher)
	tg.DELETE("", api.destroyTeachers)
	tdg := tg.Group("/:id", objectMiddleware(func(ctx echo.Context, id string) (interface{}, error) {
		return svc.GetTeacher(ctx.Request().Context(), id)
	}))
	tdg.GET("", api.retrieve)
	tdg.PUT("", api.updateTeacher)
	tdg.DELETE("", api.destroyTeacher)
}

// objectMiddleware loads the record named by the `:id` path param into the context, or answers 404.
func objectMiddleware(find func(ctx echo.Context, id string) (interface{}, error)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			obj, err := find(ctx, ctx.Param("id"))
			if err != nil {
				if roster.IsNotFound(err) {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding object by ID")
			}
			ctx.Set(ctxObjectKey, obj)
			return next(ctx)
		}
	}
}

func (api *rosterApi) retrieve(ctx echo.Context) error {
	obj := ctx.Get(ctxObjectKey)
	if obj == nil {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, obj)
}

func destroyMultiple(ctx echo.Context, del func(ids ...string) (int, error)) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if len(query.IDs) == 0 {
		return ctx.NoContent(http.StatusNoContent)
	}
	if _, err := del(query.IDs...); err != nil {
		return errors.Wrap(err, "deleting records")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Subjects

func (api *rosterApi) querySubjects(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	subjects, err := api.svc.QuerySubjects(ctx.Request().Context(), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []roster.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *rosterApi) createSubject(ctx echo.Context) error {
	var data roster.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	subj, err := api.svc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, subj)
}

func (api *rosterApi) destroySubject(ctx echo.Context) error {
	subj, ok := ctx.Get(ctxObjectKey).(roster.Subject)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	if _, err := api.svc.DeleteSubjects(ctx.Request().Context(), subj.ID); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *rosterApi) destroySubjects(ctx echo.Context) error {
	return destroyMultiple(ctx, func(ids ...string) (int, error) {
		return api.svc.DeleteSubjects(ctx.Request().Context(), ids...)
	})
}

// Sections

func (api *rosterApi) querySections(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	sections, err := api.svc.QuerySections(ctx.Request().Context(), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying sections")
	}
	if sections == nil {
		sections = []roster.Section{}
	}
	return ctx.JSON(http.StatusOK, sections)
}

func (api *rosterApi) createSection(ctx echo.Context) error {
	var data roster.NewSection
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSection")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	sec, err := api.svc.CreateSection(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating section")
	}
	return ctx.JSON(http.StatusCreated, sec)
}

func (api *rosterApi) destroySection(ctx echo.Context) error {
	sec, ok := ctx.Get(ctxObjectKey).(roster.Section)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	if _, err := api.svc.DeleteSections(ctx.Request().Context(), sec.ID); err != nil {
		return errors.Wrap(err, "deleting section")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *rosterApi) destroySections(ctx echo.Context) error {
	return destroyMultiple(ctx, func(ids ...string) (int, error) {
		return api.svc.DeleteSections(ctx.Request().Context(), ids...)
	})
}

// Teachers

func (api *rosterApi) queryTeachers(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	teachers, err := api.svc.QueryTeachers(ctx.Request().Context(), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	if teachers == nil {
		teachers = []roster.Teacher{}
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *rosterApi) createTeacher(ctx echo.Context) error {
	var data roster.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	tchr, err := api.svc.CreateTeacher(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, tchr)
}

func (api *rosterApi) updateTeacher(ctx echo.Context) error {
	tchr, ok := ctx.Get(ctxObjectKey).(roster.Teacher)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}

	var data roster.UpdateTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}
	if err := data.Validate(ctx.Request().Context(), tchr, api.validate, api.svc); err != nil {
		return err
	}

	tchr, err := api.svc.UpdateTeacher(ctx.Request().Context(), tchr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, tchr)
}

func (api *rosterApi) destroyTeacher(ctx echo.Context) error {
	tchr, ok := ctx.Get(ctxObjectKey).(roster.Teacher)
	if !ok {
		return errors.Wrap(errObjNotFoundInCtx, "retrieving object from context")
	}
	if _, err := api.svc.DeleteTeachers(ctx.Request().Context(), tchr.ID); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *rosterApi) destroyTeachers(ctx echo.Context) error {
	return destroyMultiple(ctx, func(ids ...string) (int, error) {
		return api.svc.DeleteTeachers(ctx.Request().Context(), ids...)
	})
}
