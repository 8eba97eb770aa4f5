package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proclass/backend/core/user"
)

func Test_userApi_login(t *testing.T) {
	env := initServer(t)

	createUser(t, env.userRepo, "Ms Magda", "magda", "magda@test.br", "LePass123", user.TeacherRoles, true)
	createUser(t, env.userRepo, "Gone", "gone", "gone@test.br", "LePass123", user.TeacherRoles, false)

	tests := []httpTest{
		{
			name: "valid credentials", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{Username: "magda", Password: "LePass123"}),
			wantCode: http.StatusOK,
		},
		{
			name: "login by email", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{Username: "magda@test.br", Password: "LePass123"}),
			wantCode: http.StatusOK,
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{Username: "magda", Password: "nope"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{Username: "ghost", Password: "LePass123"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, LoginRequest{Username: "gone", Password: "LePass123"}),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "missing fields", method: http.MethodPost, path: "/v1/users/login",
			body:     []byte("{}"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt)
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			var resp LoginResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Token)
		})
	}
}

func Test_userApi_tokenRefresh(t *testing.T) {
	env := initServer(t)

	teacher := createUser(t, env.userRepo, "Ms Magda", "magda", "magda@test.br", "LePass123", user.TeacherRoles, true)
	token := getToken(t, teacher)

	tt := httpTest{method: http.MethodPost, path: "/v1/users/token-refresh", token: token, wantCode: http.StatusOK}
	rec := env.do(tt)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)

	// no token
	rec = env.do(httpTest{method: http.MethodPost, path: "/v1/users/token-refresh"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_userApi_query(t *testing.T) {
	env := initServer(t)

	admin := createUser(t, env.userRepo, "Admin", "admin", "admin@test.br", "LePass123", user.AdminRoles, true)
	teacher := createUser(t, env.userRepo, "Ms Magda", "magda", "magda@test.br", "LePass123", user.TeacherRoles, true)
	adminToken := getToken(t, admin)
	teacherToken := getToken(t, teacher)

	tests := []httpTest{
		{
			name: "anonymous is rejected", method: http.MethodGet, path: "/v1/users",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "teacher is not admin", method: http.MethodGet, path: "/v1/users", token: teacherToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "admin lists everyone", method: http.MethodGet, path: "/v1/users", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, admin, teacher),
		},
		{
			name: "filter by role", method: http.MethodGet, path: "/v1/users?role=teacher:", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, teacher),
		},
		{
			name: "filter by search", method: http.MethodGet, path: "/v1/users?search=magda", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, teacher),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_detail(t *testing.T) {
	env := initServer(t)

	admin := createUser(t, env.userRepo, "Admin", "admin", "admin@test.br", "LePass123", user.AdminRoles, true)
	teacher := createUser(t, env.userRepo, "Ms Magda", "magda", "magda@test.br", "LePass123", user.TeacherRoles, true)
	other := createUser(t, env.userRepo, "Mr Caio", "caio", "caio@test.br", "LePass123", user.TeacherRoles, true)
	adminToken := getToken(t, admin)
	teacherToken := getToken(t, teacher)

	tests := []httpTest{
		{
			name: "own account", method: http.MethodGet, path: "/v1/users/" + teacher.ID, token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, teacher),
		},
		{
			name: "someone else's account is hidden", method: http.MethodGet, path: "/v1/users/" + other.ID, token: teacherToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "admin sees anyone", method: http.MethodGet, path: "/v1/users/" + other.ID, token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, other),
		},
		{
			name: "non-admin cannot change roles", method: http.MethodPut, path: "/v1/users/" + teacher.ID, token: teacherToken,
			body:     marchallObj(t, map[string][]string{"roles": user.AdminRoles}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "non-admin cannot delete", method: http.MethodDelete, path: "/v1/users/" + teacher.ID, token: teacherToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "admin cannot delete themselves", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: adminToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt)
			checkCodeAndData(t, tt, rec)
		})
	}

	// rename via own account
	rec := env.do(httpTest{
		method: http.MethodPut, path: "/v1/users/" + teacher.ID, token: teacherToken,
		body: marchallObj(t, user.UpdateUser{Name: "Magda Silva"}),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated user.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Magda Silva", updated.Name)

	// admin deletes another user
	rec = env.do(httpTest{method: http.MethodDelete, path: "/v1/users/" + other.ID, token: adminToken})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(httpTest{method: http.MethodGet, path: "/v1/users/" + other.ID, token: adminToken})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_userApi_register(t *testing.T) {
	env := initServer(t)

	admin := createUser(t, env.userRepo, "Admin", "admin", "admin@test.br", "LePass123", user.AdminRoles, true)
	adminToken := getToken(t, admin)

	body := marchallObj(t, user.NewUser{
		Name:            "Mr Caio",
		Username:        "caio",
		Email:           "caio@test.br",
		Password:        "LePass123",
		PasswordConfirm: "LePass123",
		Roles:           user.TeacherRoles,
	})
	rec := env.do(httpTest{method: http.MethodPost, path: "/v1/users/register", token: adminToken, body: body})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created user.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "caio", created.Username)
	assert.True(t, created.IsTeacher())

	// duplicate username
	rec = env.do(httpTest{method: http.MethodPost, path: "/v1/users/register", token: adminToken, body: body})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_userApi_queryRoles(t *testing.T) {
	env := initServer(t)

	admin := createUser(t, env.userRepo, "Admin", "admin", "admin@test.br", "LePass123", user.AdminRoles, true)

	tt := httpTest{
		method: http.MethodGet, path: "/v1/users/roles", token: getToken(t, admin),
		wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles),
	}
	rec := env.do(tt)
	checkCodeAndData(t, tt, rec)
}
