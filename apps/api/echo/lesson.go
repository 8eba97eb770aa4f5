package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/proclass/backend/core"
	"github.com/proclass/backend/core/lesson"
	"github.com/proclass/backend/core/student"
)

var errLsnNotFoundInCtx = errors.New("lesson object not found in echo.Context")

type lessonApi struct {
	svc      *lesson.Service
	students *student.Service
}

func registerLessonAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *lesson.Service, students *student.Service) {
	api := lessonApi{svc: svc, students: students}

	lg := g.Group("/lessons", jwt, teacherMiddleware())
	lg.POST("", api.create)
	lg.GET("", api.query)

	dg := lg.Group("/:id", ctxLessonMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *lessonApi) create(ctx echo.Context) error {
	var data lesson.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	std, err := api.students.GetByID(ctx.Request().Context(), data.StudentID)
	if err != nil || (std.TeacherID != claims.Subject && !claims.IsAdmin) {
		if err != nil && errors.Cause(err) != student.ErrNotFound {
			return errors.Wrap(err, "finding student by ID")
		}
		return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "student not found"})
	}

	lsn, err := api.svc.Create(ctx.Request().Context(), std.TeacherID, data)
	if err != nil {
		return errors.Wrap(err, "creating lesson")
	}
	return ctx.JSON(http.StatusCreated, lsn)
}

func (api *lessonApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(lesson.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []lesson.Lesson{})
	}

	lessons, err := api.svc.Filter(ctx.Request().Context(), claims.Subject, *filter)
	if err != nil {
		return errors.Wrap(err, "querying lessons")
	}
	if lessons == nil {
		lessons = []lesson.Lesson{}
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *lessonApi) retrieve(ctx echo.Context) error {
	lsn, ok := ctx.Get("object").(lesson.Lesson)
	if !ok {
		return errors.Wrap(errLsnNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *lessonApi) update(ctx echo.Context) error {
	lsn, ok := ctx.Get("object").(lesson.Lesson)
	if !ok {
		return errors.Wrap(errLsnNotFoundInCtx, "retrieving object from context")
	}

	var data lesson.UpdateLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	lsn, err := api.svc.Update(ctx.Request().Context(), lsn, data)
	if err != nil {
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *lessonApi) destroy(ctx echo.Context) error {
	lsn, ok := ctx.Get("object").(lesson.Lesson)
	if !ok {
		return errors.Wrap(errLsnNotFoundInCtx, "retrieving object from context")
	}

	if err := api.svc.Delete(ctx.Request().Context(), lsn.ID); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func ctxLessonMiddleware(svc *lesson.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			lsn, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == lesson.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding lesson by ID")
			}
			if lsn.TeacherID != claims.Subject && !claims.IsAdmin {
				return errHttpNotFound
			}

			ctx.Set("object", lsn)
			return next(ctx)
		}
	}
}
