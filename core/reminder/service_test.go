package reminder_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proclass/backend/core"
	"github.com/proclass/backend/core/payment"
	"github.com/proclass/backend/core/reminder"
	"github.com/proclass/backend/core/student"
	dummy "github.com/proclass/backend/storage/database/dummy"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// channelMock records sent messages and can be told to fail for given numbers.
type channelMock struct {
	mu      sync.Mutex
	sent    []core.TextMessage
	failFor map[string]error
	nextID  int
}

func (m *channelMock) Send(_ context.Context, msg core.TextMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[msg.To]; ok {
		return "", err
	}
	m.sent = append(m.sent, msg)
	m.nextID++
	return fmt.Sprintf("SM%03d", m.nextID), nil
}

func (m *channelMock) sentTo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	tos := make([]string, len(m.sent))
	for i, msg := range m.sent {
		tos[i] = msg.To
	}
	return tos
}

type testEnv struct {
	svc      *reminder.Service
	students student.Repository
	payments payment.Repository
	policies reminder.PolicyRepository
	ledger   reminder.Ledger
	channel  *channelMock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := dummy.Open()
	require.NoError(t, err)

	env := &testEnv{
		students: dummy.NewStudentRepository(db),
		payments: dummy.NewPaymentRepository(db),
		policies: dummy.NewPolicyRepository(db),
		ledger:   dummy.NewReminderLedger(db),
		channel:  &channelMock{failFor: make(map[string]error)},
	}
	env.svc = reminder.NewService(
		core.NewTestConfig(),
		env.students,
		env.payments,
		env.policies,
		env.ledger,
		func(reminder.Policy) core.MessagingService { return env.channel },
		nopLogger{},
	)
	return env
}

func (env *testEnv) upsertPolicy(t *testing.T, pol reminder.Policy) {
	t.Helper()
	_, err := env.policies.UpsertPolicy(context.Background(), pol)
	require.NoError(t, err)
}

func enabledPolicy(teacherID string) reminder.Policy {
	return reminder.Policy{
		TeacherID:       teacherID,
		Enabled:         true,
		AutoSendEnabled: true,
		LeadDays:        3,
		MessageTemplate: "Olá {aluno}, R$ {valor} vence dia {vencimento}.",
		AccountSID:      "ACtest",
		AuthToken:       "token",
		FromNumber:      "+14155238886",
	}
}

func (env *testEnv) createStudent(t *testing.T, teacherID, name, phone string, fee float64, dueDay int) student.Student {
	t.Helper()
	amount := decimal.NewFromFloat(fee)
	std, err := env.students.CreateStudent(context.Background(), student.Student{
		ID:         name, // readable IDs in assertions
		TeacherID:  teacherID,
		Name:       name,
		Phone:      phone,
		Status:     student.StatusActive,
		MonthlyFee: &amount,
		PaymentDay: &dueDay,
		ChargeFee:  true,
	})
	require.NoError(t, err)
	return std
}

func batchDay(d int) time.Time {
	return time.Date(2021, time.March, d, 8, 0, 0, 0, time.UTC)
}

func Test_Service_RunForTeacher(t *testing.T) {
	ctx := context.Background()
	teacherID := "tch-1"
	today := batchDay(7) // lead 3 put students with due day 10 on target

	env := newTestEnv(t)
	env.upsertPolicy(t, enabledPolicy(teacherID))

	env.createStudent(t, teacherID, "ana", "(11) 98888-0001", 150, 10)  // on target
	env.createStudent(t, teacherID, "bruno", "(11) 98888-0002", 200, 5) // overdue
	env.createStudent(t, teacherID, "carla", "(11) 98888-0003", 100, 20) // not due yet
	paid := env.createStudent(t, teacherID, "dani", "(11) 98888-0004", 120, 10)
	_, err := env.payments.CreatePayment(ctx, payment.Payment{
		ID:             "pmt-1",
		StudentID:      paid.ID,
		TeacherID:      teacherID,
		Amount:         decimal.NewFromInt(120),
		Status:         payment.StatusPaid,
		ReferenceMonth: "2021-03",
	})
	require.NoError(t, err)
	// different teacher, never touched
	env.createStudent(t, "tch-2", "zoe", "(11) 98888-0009", 90, 10)

	res, err := env.svc.RunForTeacher(ctx, teacherID, today)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 2, res.Skipped)

	byStudent := make(map[string]reminder.Outcome, len(res.Outcomes))
	for _, o := range res.Outcomes {
		byStudent[o.StudentID] = o
	}
	assert.Equal(t, reminder.OutcomeSent, byStudent["ana"].Status)
	assert.False(t, byStudent["ana"].Overdue)
	assert.Equal(t, reminder.OutcomeSent, byStudent["bruno"].Status)
	assert.True(t, byStudent["bruno"].Overdue)
	assert.Equal(t, "skip_not_due", byStudent["carla"].Reason)
	assert.Equal(t, "skip_already_sent", byStudent["dani"].Reason)

	assert.ElementsMatch(t, []string{"5511988880001", "5511988880002"}, env.channel.sentTo())

	entries, err := env.svc.Log(ctx, teacherID, "2021-03")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, reminder.DeliverySent, e.DeliveryStatus)
		assert.NotEmpty(t, e.ChannelMessageID)
	}
}

func Test_Service_RunForTeacher_idempotent(t *testing.T) {
	ctx := context.Background()
	teacherID := "tch-1"
	today := batchDay(7)

	env := newTestEnv(t)
	env.upsertPolicy(t, enabledPolicy(teacherID))
	env.createStudent(t, teacherID, "ana", "(11) 98888-0001", 150, 10)
	env.createStudent(t, teacherID, "bruno", "(11) 98888-0002", 200, 5)

	first, err := env.svc.RunForTeacher(ctx, teacherID, today)
	require.NoError(t, err)
	require.Equal(t, 2, first.Sent)

	second, err := env.svc.RunForTeacher(ctx, teacherID, today)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Sent)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 2, second.Skipped)
	for _, o := range second.Outcomes {
		assert.Equal(t, "already reminded this month", o.Reason)
	}

	// nothing new left the channel, nothing new hit the ledger
	assert.Len(t, env.channel.sent, 2)
	entries, err := env.svc.Log(ctx, teacherID, "2021-03")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// the next month starts clean
	nextMonth := time.Date(2021, time.April, 7, 8, 0, 0, 0, time.UTC)
	third, err := env.svc.RunForTeacher(ctx, teacherID, nextMonth)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Sent)
}

func Test_Service_RunForTeacher_failureIsolation(t *testing.T) {
	ctx := context.Background()
	teacherID := "tch-1"
	today := batchDay(7)

	env := newTestEnv(t)
	env.upsertPolicy(t, enabledPolicy(teacherID))
	env.createStudent(t, teacherID, "ana", "(11) 98888-0001", 150, 10)
	env.createStudent(t, teacherID, "bruno", "(11) 98888-0002", 200, 10)
	env.createStudent(t, teacherID, "carla", "(11) 98888-0003", 100, 10)
	env.channel.failFor["5511988880002"] = errors.New("provider unreachable")

	res, err := env.svc.RunForTeacher(ctx, teacherID, today)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, res.Failed)

	entries, err := env.svc.Log(ctx, teacherID, "2021-03")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	var failed int
	for _, e := range entries {
		if e.DeliveryStatus == reminder.DeliveryFailed {
			failed++
			assert.Equal(t, "provider unreachable", e.ErrorDetail)
			assert.Empty(t, e.ChannelMessageID)
		}
	}
	assert.Equal(t, 1, failed)

	// the failed student is not retried within the month
	second, err := env.svc.RunForTeacher(ctx, teacherID, today)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Sent)
	assert.Equal(t, 3, second.Skipped)
}

func Test_Service_batchGates(t *testing.T) {
	ctx := context.Background()
	teacherID := "tch-1"
	today := batchDay(7)

	setup := func(t *testing.T, mutate func(*reminder.Policy)) *testEnv {
		env := newTestEnv(t)
		pol := enabledPolicy(teacherID)
		if mutate != nil {
			mutate(&pol)
			env.upsertPolicy(t, pol)
		}
		env.createStudent(t, teacherID, "ana", "(11) 98888-0001", 150, 10)
		return env
	}

	t.Run("no policy is a clean no-op", func(t *testing.T) {
		env := setup(t, nil)
		res, err := env.svc.RunForTeacher(ctx, teacherID, today)
		require.NoError(t, err)
		assert.Equal(t, "reminders not configured", res.Note)
		assert.Empty(t, env.channel.sent)
	})

	t.Run("disabled policy blocks both triggers", func(t *testing.T) {
		env := setup(t, func(pol *reminder.Policy) { pol.Enabled = false })
		res, err := env.svc.RunForTeacher(ctx, teacherID, today)
		require.NoError(t, err)
		assert.NotEmpty(t, res.Note)

		res, err = env.svc.SendAllPending(ctx, teacherID, today)
		require.NoError(t, err)
		assert.Equal(t, "reminders disabled", res.Note)
		assert.Empty(t, env.channel.sent)
	})

	t.Run("auto-send off blocks the schedule but not the manual trigger", func(t *testing.T) {
		env := setup(t, func(pol *reminder.Policy) { pol.AutoSendEnabled = false })
		res, err := env.svc.RunForTeacher(ctx, teacherID, today)
		require.NoError(t, err)
		assert.Equal(t, "automatic reminders disabled", res.Note)
		assert.Empty(t, env.channel.sent)

		res, err = env.svc.SendAllPending(ctx, teacherID, today)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Sent)
	})

	t.Run("missing credentials is a no-op", func(t *testing.T) {
		env := setup(t, func(pol *reminder.Policy) { pol.AuthToken = "" })
		res, err := env.svc.RunForTeacher(ctx, teacherID, today)
		require.NoError(t, err)
		assert.Equal(t, "messaging channel not configured", res.Note)
		assert.Empty(t, env.channel.sent)
	})
}

func Test_Service_PendingAlerts(t *testing.T) {
	ctx := context.Background()
	teacherID := "tch-1"
	today := batchDay(7)

	env := newTestEnv(t)
	env.upsertPolicy(t, enabledPolicy(teacherID))
	env.createStudent(t, teacherID, "ana", "(11) 98888-0001", 150, 10)
	env.createStudent(t, teacherID, "bruno", "(11) 98888-0002", 200, 5)
	env.createStudent(t, teacherID, "carla", "(11) 98888-0003", 100, 20)

	alerts, err := env.svc.PendingAlerts(ctx, teacherID, today)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	byStudent := make(map[string]reminder.Alert, len(alerts))
	for _, a := range alerts {
		byStudent[a.StudentID] = a
	}
	assert.False(t, byStudent["ana"].Overdue)
	assert.True(t, byStudent["bruno"].Overdue)

	// dashboard reads leave no trace
	assert.Empty(t, env.channel.sent)
	entries, err := env.svc.Log(ctx, teacherID, "")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func Test_Service_SendDirect(t *testing.T) {
	ctx := context.Background()
	teacherID := "tch-1"

	env := newTestEnv(t)
	env.upsertPolicy(t, enabledPolicy(teacherID))

	ds := reminder.DirectSend{
		Phone:       "(11) 98888-0001",
		StudentName: "Ana",
		Amount:      decimal.NewFromInt(150),
		DueDay:      10,
	}
	require.NoError(t, ds.Validate())

	msgID, err := env.svc.SendDirect(ctx, teacherID, ds)
	require.NoError(t, err)
	assert.NotEmpty(t, msgID)
	require.Len(t, env.channel.sent, 1)
	assert.Equal(t, "5511988880001", env.channel.sent[0].To)
	assert.Equal(t, "Olá Ana, R$ 150.00 vence dia 10.", env.channel.sent[0].Body)

	// direct sends never touch the ledger, so repeating is allowed
	_, err = env.svc.SendDirect(ctx, teacherID, ds)
	require.NoError(t, err)
	assert.Len(t, env.channel.sent, 2)
	entries, err := env.svc.Log(ctx, teacherID, "")
	require.NoError(t, err)
	assert.Empty(t, entries)

	t.Run("custom message overrides the template", func(t *testing.T) {
		ds := ds
		ds.CustomMessage = "Oi {aluno}! Não esquece o pagamento."
		require.NoError(t, ds.Validate())
		_, err := env.svc.SendDirect(ctx, teacherID, ds)
		require.NoError(t, err)
		last := env.channel.sent[len(env.channel.sent)-1]
		assert.Equal(t, "Oi Ana! Não esquece o pagamento.", last.Body)
	})

	t.Run("missing credentials fail validation", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.SendDirect(ctx, teacherID, ds)
		require.Error(t, err)
		var vErr *core.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("invalid request", func(t *testing.T) {
		bad := reminder.DirectSend{Phone: "(11) 98888-0001", StudentName: "Ana", DueDay: 40}
		assert.Error(t, bad.Validate())
	})
}

func Test_Service_Policy(t *testing.T) {
	ctx := context.Background()
	teacherID := "tch-1"
	env := newTestEnv(t)

	t.Run("defaults when never configured", func(t *testing.T) {
		pol, err := env.svc.GetPolicy(ctx, teacherID)
		require.NoError(t, err)
		assert.Equal(t, teacherID, pol.TeacherID)
		assert.False(t, pol.Enabled)
		assert.Equal(t, 3, pol.LeadDays)
		assert.NotEmpty(t, pol.MessageTemplate)
	})

	t.Run("update keeps the stored token when omitted", func(t *testing.T) {
		env.upsertPolicy(t, enabledPolicy(teacherID))

		lead := 5
		up := reminder.UpdatePolicy{LeadDays: &lead}
		require.NoError(t, up.Validate())
		pol, err := env.svc.UpdatePolicy(ctx, teacherID, up)
		require.NoError(t, err)
		assert.Equal(t, 5, pol.LeadDays)
		assert.Equal(t, "token", pol.AuthToken)
		assert.True(t, pol.Enabled)
	})
}
