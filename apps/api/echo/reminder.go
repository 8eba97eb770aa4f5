package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/proclass/backend/core"
	"github.com/proclass/backend/core/reminder"
	"github.com/proclass/backend/core/user"
)

type reminderApi struct {
	svc   *reminder.Service
	users *user.Service
}

// PolicyResponse mirrors reminder.Policy but swaps the secret for its mask.
type PolicyResponse struct {
	reminder.Policy
	AuthToken string `json:"auth_token"`
}

func newPolicyResponse(pol reminder.Policy) PolicyResponse {
	return PolicyResponse{Policy: pol, AuthToken: pol.MaskedAuthToken()}
}

// RunRequest optionally narrows a scheduled run to a single teacher.
type RunRequest struct {
	TeacherID string `json:"teacher_id"`
}

// RunAllResponse aggregates a scheduled run across every teacher.
type RunAllResponse struct {
	Teachers int                             `json:"teachers"`
	Results  map[string]reminder.BatchResult `json:"results"`
}

// SendResponse carries the channel message ID of a direct send.
type SendResponse struct {
	MessageID string `json:"message_id"`
}

func registerReminderAPI(g *echo.Group, jwt echo.MiddlewareFunc, conf *core.Config, svc *reminder.Service, users *user.Service) {
	api := reminderApi{svc: svc, users: users}

	rg := g.Group("/reminders")
	// scheduled trigger; authenticated by shared secret, not by JWT
	rg.POST("/run", api.runAll, cronSecretMiddleware(conf.Reminder.CronSecret))

	tg := rg.Group("", jwt, teacherMiddleware())
	tg.GET("/settings", api.retrievePolicy)
	tg.PUT("/settings", api.updatePolicy)
	tg.GET("/alerts", api.alerts)
	tg.GET("/log", api.log)
	tg.POST("/send-all", api.sendAll)
	tg.POST("/send-one", api.sendOne)
}

func (api *reminderApi) retrievePolicy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	pol, err := api.svc.GetPolicy(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "getting reminder policy")
	}
	return ctx.JSON(http.StatusOK, newPolicyResponse(pol))
}

func (api *reminderApi) updatePolicy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data reminder.UpdatePolicy
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePolicy")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	pol, err := api.svc.UpdatePolicy(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "updating reminder policy")
	}
	return ctx.JSON(http.StatusOK, newPolicyResponse(pol))
}

func (api *reminderApi) alerts(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	alerts, err := api.svc.PendingAlerts(ctx.Request().Context(), claims.Subject, time.Now())
	if err != nil {
		return errors.Wrap(err, "querying pending alerts")
	}
	if alerts == nil {
		alerts = []reminder.Alert{}
	}
	return ctx.JSON(http.StatusOK, alerts)
}

func (api *reminderApi) log(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	entries, err := api.svc.Log(ctx.Request().Context(), claims.Subject, ctx.QueryParam("month"))
	if err != nil {
		return errors.Wrap(err, "querying reminder log")
	}
	if entries == nil {
		entries = []reminder.LogEntry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *reminderApi) sendAll(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	res, err := api.svc.SendAllPending(ctx.Request().Context(), claims.Subject, time.Now())
	if err != nil {
		return errors.Wrap(err, "sending pending reminders")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *reminderApi) sendOne(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data reminder.DirectSend
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DirectSend")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	msgID, err := api.svc.SendDirect(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SendResponse{MessageID: msgID})
}

// runAll runs the automatic batch, for one teacher when the body names one and
// for every teacher otherwise; failures are isolated per teacher so one broken
// policy cannot block the rest of the schedule.
func (api *reminderApi) runAll(ctx echo.Context) error {
	var data RunRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RunRequest")
	}

	var teachers []user.User
	if data.TeacherID != "" {
		tch, err := api.users.GetByID(ctx.Request().Context(), data.TeacherID)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "getting teacher")
		}
		teachers = []user.User{tch}
	} else {
		var err error
		teachers, err = api.users.Filter(ctx.Request().Context(), user.QueryFilter{Roles: []string{user.RoleTeacher}})
		if err != nil {
			return errors.Wrap(err, "querying teachers")
		}
	}

	resp := RunAllResponse{Results: make(map[string]reminder.BatchResult, len(teachers))}
	now := time.Now()
	for _, t := range teachers {
		res, err := api.svc.RunForTeacher(ctx.Request().Context(), t.ID, now)
		if err != nil {
			res = reminder.BatchResult{Note: err.Error()}
		}
		resp.Results[t.ID] = res
		resp.Teachers++
	}
	return ctx.JSON(http.StatusOK, resp)
}
