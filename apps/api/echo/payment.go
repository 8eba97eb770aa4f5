package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/proclass/backend/core"
	"github.com/proclass/backend/core/payment"
	"github.com/proclass/backend/core/student"
)

var errPmtNotFoundInCtx = errors.New("payment object not found in echo.Context")

type paymentApi struct {
	svc      *payment.Service
	students *student.Service
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *payment.Service, students *student.Service) {
	api := paymentApi{svc: svc, students: students}

	pg := g.Group("/payments", jwt, teacherMiddleware())
	pg.POST("", api.create)
	pg.GET("", api.query)

	dg := pg.Group("/:id", ctxPaymentMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.POST("/mark-paid", api.markPaid)
	dg.DELETE("", api.destroy)
}

func (api *paymentApi) create(ctx echo.Context) error {
	var data payment.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	// the payment's student must belong to the requesting teacher
	std, err := api.students.GetByID(ctx.Request().Context(), data.StudentID)
	if err != nil || (std.TeacherID != claims.Subject && !claims.IsAdmin) {
		if err != nil && errors.Cause(err) != student.ErrNotFound {
			return errors.Wrap(err, "finding student by ID")
		}
		return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "student not found"})
	}

	pmt, err := api.svc.Create(ctx.Request().Context(), std.TeacherID, data)
	if err != nil {
		return errors.Wrap(err, "creating payment")
	}
	return ctx.JSON(http.StatusCreated, pmt)
}

func (api *paymentApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(payment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []payment.Payment{})
	}

	var payments []payment.Payment
	if filter.IsEmpty() {
		payments, err = api.svc.QueryByTeacher(ctx.Request().Context(), claims.Subject)
	} else {
		payments, err = api.svc.Filter(ctx.Request().Context(), claims.Subject, *filter)
	}
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	if payments == nil {
		payments = []payment.Payment{}
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *paymentApi) retrieve(ctx echo.Context) error {
	pmt, ok := ctx.Get("object").(payment.Payment)
	if !ok {
		return errors.Wrap(errPmtNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, pmt)
}

func (api *paymentApi) update(ctx echo.Context) error {
	pmt, ok := ctx.Get("object").(payment.Payment)
	if !ok {
		return errors.Wrap(errPmtNotFoundInCtx, "retrieving object from context")
	}

	var data payment.UpdatePayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePayment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	pmt, err := api.svc.Update(ctx.Request().Context(), pmt, data)
	if err != nil {
		return errors.Wrap(err, "updating payment")
	}
	return ctx.JSON(http.StatusOK, pmt)
}

func (api *paymentApi) markPaid(ctx echo.Context) error {
	pmt, ok := ctx.Get("object").(payment.Payment)
	if !ok {
		return errors.Wrap(errPmtNotFoundInCtx, "retrieving object from context")
	}

	pmt, err := api.svc.MarkPaid(ctx.Request().Context(), pmt)
	if err != nil {
		return errors.Wrap(err, "marking payment as paid")
	}
	return ctx.JSON(http.StatusOK, pmt)
}

func (api *paymentApi) destroy(ctx echo.Context) error {
	pmt, ok := ctx.Get("object").(payment.Payment)
	if !ok {
		return errors.Wrap(errPmtNotFoundInCtx, "retrieving object from context")
	}

	if err := api.svc.Delete(ctx.Request().Context(), pmt.ID); err != nil {
		return errors.Wrap(err, "deleting payment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func ctxPaymentMiddleware(svc *payment.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}

			pmt, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == payment.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding payment by ID")
			}
			if pmt.TeacherID != claims.Subject && !claims.IsAdmin {
				return errHttpNotFound
			}

			ctx.Set("object", pmt)
			return next(ctx)
		}
	}
}
