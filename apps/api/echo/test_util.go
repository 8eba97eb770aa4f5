package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/proclass/backend/core"
	"github.com/proclass/backend/core/lesson"
	"github.com/proclass/backend/core/payment"
	"github.com/proclass/backend/core/reminder"
	"github.com/proclass/backend/core/student"
	"github.com/proclass/backend/core/user"
	whatsappsvc "github.com/proclass/backend/services/whatsapp"
	dummydb "github.com/proclass/backend/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// channelMock records sent messages instead of hitting the provider.
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

type testEnv struct {
	conf        *core.Config
	userRepo    user.Repository
	studentRepo student.Repository
	paymentRepo payment.Repository
	lessonRepo  lesson.Repository
	policyRepo  reminder.PolicyRepository
	ledger      reminder.Ledger
	channel     *channelMock
	server      *Server
}

func initServer(t *testing.T) *testEnv {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("initServer() failed: %v", err)
	}

	env := &testEnv{
		conf:        core.NewTestConfig(),
		userRepo:    dummydb.NewUserRepository(db),
		studentRepo: dummydb.NewStudentRepository(db),
		paymentRepo: dummydb.NewPaymentRepository(db),
		lessonRepo:  dummydb.NewLessonRepository(db),
		policyRepo:  dummydb.NewPolicyRepository(db),
		ledger:      dummydb.NewReminderLedger(db),
		channel:     &channelMock{failFor: make(map[string]error)},
	}

	logger := nopLogger{}
	msgSvc := whatsappsvc.NewConsoleServiceMock()
	factory := func(reminder.Policy) core.MessagingService { return env.channel }

	env.server = NewServer(ServerDeps{
		Conf:           env.conf,
		Logger:         logger,
		UserSvc:        user.NewService(env.conf, env.userRepo, msgSvc, logger),
		StudentSvc:     student.NewService(env.studentRepo),
		PaymentSvc:     payment.NewService(env.paymentRepo),
		LessonSvc:      lesson.NewService(env.lessonRepo),
		ReminderSvc:    reminder.NewService(env.conf, env.studentRepo, env.paymentRepo, env.policyRepo, env.ledger, factory, logger),
		DisableReqLogs: true,
	})
	return env
}

func (env *testEnv) do(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	env.server.ServeHTTP(rec, req)
	return rec
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func createUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func createStudent(t *testing.T, repo student.Repository, std student.Student) student.Student {
	now := time.Now().UTC()
	if std.ID == "" {
		std.ID = uuid.New().String()
	}
	if std.Status == "" {
		std.Status = student.StatusActive
	}
	std.CreatedAt, std.UpdatedAt = now, now
	std, err := repo.CreateStudent(context.Background(), std)
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return std
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
