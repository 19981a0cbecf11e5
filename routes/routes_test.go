package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"study-backend/auth"
	"study-backend/config"
	"study-backend/controllers"
	"study-backend/eventhandlers"
	"study-backend/listparams"
	"study-backend/models"
	"study-backend/services"
	"study-backend/store"
)

// mockStore implements the methods the tests exercise; any other call
// panics through the nil embedded interface.
type mockStore struct {
	controllers.Store
	mock.Mock
}

func (m *mockStore) Version(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockStore) GetUser(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockStore) ListUsers(ctx context.Context, p listparams.Params, roles []string) ([]models.User, int, error) {
	args := m.Called(ctx, p, roles)
	u, _ := args.Get(0).([]models.User)
	return u, args.Int(1), args.Error(2)
}

func (m *mockStore) CreateUser(ctx context.Context, in models.UserCreate, hashed string) (*models.User, error) {
	args := m.Called(ctx, in, hashed)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockStore) DeleteUser(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockStore) ListDisciplines(ctx context.Context, p listparams.Params) ([]models.Discipline, int, error) {
	args := m.Called(ctx, p)
	d, _ := args.Get(0).([]models.Discipline)
	return d, args.Int(1), args.Error(2)
}

func (m *mockStore) CreateDiscipline(ctx context.Context, in models.DisciplineCreate) (*models.Discipline, error) {
	args := m.Called(ctx, in)
	d, _ := args.Get(0).(*models.Discipline)
	return d, args.Error(1)
}

func (m *mockStore) GetDiscipline(ctx context.Context, id int) (*models.Discipline, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*models.Discipline)
	return d, args.Error(1)
}

func (m *mockStore) CreateStudyGroupWithDisciplines(ctx context.Context, in models.StudyGroupCreate) ([]models.StudyGroup, error) {
	args := m.Called(ctx, in)
	g, _ := args.Get(0).([]models.StudyGroup)
	return g, args.Error(1)
}

func (m *mockStore) GetTaskStudent(ctx context.Context, id int) (*models.TaskStudent, error) {
	args := m.Called(ctx, id)
	ts, _ := args.Get(0).(*models.TaskStudent)
	return ts, args.Error(1)
}

func (m *mockStore) UpdateTaskStudent(ctx context.Context, id int, in models.TaskStudentUpdate) (*models.TaskStudent, error) {
	args := m.Called(ctx, id, in)
	ts, _ := args.Get(0).(*models.TaskStudent)
	return ts, args.Error(1)
}

func (m *mockStore) DeleteTaskStudent(ctx context.Context, id int) (*models.TaskStudent, error) {
	args := m.Called(ctx, id)
	ts, _ := args.Get(0).(*models.TaskStudent)
	return ts, args.Error(1)
}

func (m *mockStore) ListTaskStudentDetails(ctx context.Context, studentID int) ([]models.TaskStudentDetail, error) {
	args := m.Called(ctx, studentID)
	d, _ := args.Get(0).([]models.TaskStudentDetail)
	return d, args.Error(1)
}

var (
	admin   = &models.User{ID: 1, Username: "admin", Email: "admin@uni.edu", Role: models.RoleAdmin, IsActive: true, IsSuperuser: true}
	teacher = &models.User{ID: 2, Username: "petrov", Email: "petrov@uni.edu", Role: models.RoleTeacher, IsActive: true}
	retired = &models.User{ID: 3, Username: "sidorov", Email: "sidorov@uni.edu", Role: models.RoleTeacher}
)

type testEnv struct {
	app    *fiber.App
	st     *mockStore
	tokens *auth.TokenManager
}

func newTestEnv(t *testing.T, opts ...func(*Deps)) *testEnv {
	t.Helper()
	tokens, err := auth.NewTokenManager("test-secret", "HS256", time.Hour)
	require.NoError(t, err)

	st := new(mockStore)
	log := zerolog.Nop()
	d := Deps{
		Config: &config.Config{
			ProjectName:  "study-backend",
			ImageVersion: "test",
			APIV1Str:     "/api/v1",
			CORSOrigins:  "*",
		},
		Log:     log,
		Store:   st,
		Tokens:  tokens,
		Events:  eventhandlers.NewPublisher("", "", log),
		Users:   services.NewUserService(log),
		Reports: services.NewReportService(t.TempDir()),
	}
	for _, o := range opts {
		o(&d)
	}
	return &testEnv{app: New(d), st: st, tokens: tokens}
}

// as stubs the token lookup for u and returns its bearer header value.
func (e *testEnv) as(t *testing.T, u *models.User) string {
	t.Helper()
	e.st.On("GetUser", mock.Anything, u.ID).Return(u, nil)
	token, err := e.tokens.CreateAccessToken(u.ID, u.Role)
	require.NoError(t, err)
	return "Bearer " + token
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body interface{}) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func detail(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Detail
}

func TestHealth(t *testing.T) {
	t.Run("database up", func(t *testing.T) {
		e := newTestEnv(t)
		e.st.On("Version", mock.Anything).Return("PostgreSQL 16.2", nil)

		resp := e.do(t, http.MethodGet, "/api/v1/health", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "study-backend", body["project"])
		assert.Equal(t, "PostgreSQL 16.2", body["database"])
	})

	t.Run("database down", func(t *testing.T) {
		e := newTestEnv(t)
		e.st.On("Version", mock.Anything).Return("", errors.New("connection refused"))

		resp := e.do(t, http.MethodGet, "/api/v1/health", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "go_goroutines")
}

func login(e *testEnv, t *testing.T, form url.Values) *http.Response {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/login/access-token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestLoginAccessToken(t *testing.T) {
	hashed, err := auth.HashPassword("secret1")
	require.NoError(t, err)

	t.Run("issues a bearer token", func(t *testing.T) {
		e := newTestEnv(t)
		u := *teacher
		u.HashedPassword = hashed
		e.st.On("GetUserByEmail", mock.Anything, u.Email).Return(&u, nil)

		resp := login(e, t, url.Values{"username": {u.Email}, "password": {"secret1"}})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var tok models.Token
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))
		assert.Equal(t, "bearer", tok.TokenType)
		id, claims, err := e.tokens.ParseAccessToken(tok.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, u.ID, id)
		assert.Equal(t, models.RoleTeacher, claims.Scopes)
	})

	t.Run("wrong password", func(t *testing.T) {
		e := newTestEnv(t)
		u := *teacher
		u.HashedPassword = hashed
		e.st.On("GetUserByEmail", mock.Anything, u.Email).Return(&u, nil)

		resp := login(e, t, url.Values{"username": {u.Email}, "password": {"nope"}})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Incorrect email or password", detail(t, resp))
	})

	t.Run("inactive user", func(t *testing.T) {
		e := newTestEnv(t)
		u := *retired
		u.HashedPassword = hashed
		e.st.On("GetUserByEmail", mock.Anything, u.Email).Return(&u, nil)

		resp := login(e, t, url.Values{"username": {u.Email}, "password": {"secret1"}})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Inactive user", detail(t, resp))
	})

	t.Run("missing fields", func(t *testing.T) {
		e := newTestEnv(t)
		resp := login(e, t, url.Values{"username": {"a@b.c"}})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestAuthentication(t *testing.T) {
	t.Run("no token", func(t *testing.T) {
		e := newTestEnv(t)
		resp := e.do(t, http.MethodGet, "/api/v1/users/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
		assert.Equal(t, "Not authenticated", detail(t, resp))
	})

	t.Run("bad token", func(t *testing.T) {
		e := newTestEnv(t)
		resp := e.do(t, http.MethodGet, "/api/v1/users/me", "Bearer not.a.jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Could not validate credentials", detail(t, resp))
	})

	t.Run("unknown user", func(t *testing.T) {
		e := newTestEnv(t)
		e.st.On("GetUser", mock.Anything, 99).Return(nil, store.ErrNotFound)
		token, err := e.tokens.CreateAccessToken(99, "")
		require.NoError(t, err)

		resp := e.do(t, http.MethodGet, "/api/v1/users/me", "Bearer "+token, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("inactive user", func(t *testing.T) {
		e := newTestEnv(t)
		resp := e.do(t, http.MethodGet, "/api/v1/users/me", e.as(t, retired), nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Inactive user", detail(t, resp))
	})

	t.Run("test token returns the user", func(t *testing.T) {
		e := newTestEnv(t)
		resp := e.do(t, http.MethodPost, "/api/v1/login/test-token", e.as(t, teacher), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var u models.User
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&u))
		assert.Equal(t, teacher.Email, u.Email)
	})
}

func TestRoleSessionBindsRequestStore(t *testing.T) {
	session := new(mockStore)
	released := false
	var opened *models.User
	e := newTestEnv(t, func(d *Deps) {
		d.Sessions = func(ctx context.Context, user *models.User) (controllers.Store, func(), error) {
			opened = user
			return session, func() { released = true }, nil
		}
	})
	session.On("ListDisciplines", mock.Anything, mock.Anything).Return([]models.Discipline{}, 0, nil)

	resp := e.do(t, http.MethodGet, "/api/v1/disciplines/", e.as(t, teacher), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, teacher.ID, opened.ID)
	assert.True(t, released)
	session.AssertExpectations(t)
	e.st.AssertNotCalled(t, "ListDisciplines", mock.Anything, mock.Anything)
}

func TestRoleSessionRejectsInactiveUser(t *testing.T) {
	e := newTestEnv(t, func(d *Deps) {
		d.Sessions = func(ctx context.Context, user *models.User) (controllers.Store, func(), error) {
			return nil, nil, store.ErrInactiveUser
		}
	})
	resp := e.do(t, http.MethodGet, "/api/v1/disciplines/", e.as(t, retired), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "user is not active", detail(t, resp))
}

func TestRoleSessionRejectsPrivilegedRole(t *testing.T) {
	e := newTestEnv(t, func(d *Deps) {
		d.Sessions = func(ctx context.Context, user *models.User) (controllers.Store, func(), error) {
			return nil, nil, fmt.Errorf("%w: u_postgres", store.ErrPrivilegedRole)
		}
	})
	resp := e.do(t, http.MethodGet, "/api/v1/disciplines/", e.as(t, teacher), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "database role not allowed", detail(t, resp))
}

func TestListSetsContentRange(t *testing.T) {
	e := newTestEnv(t)
	bearer := e.as(t, teacher)
	e.st.On("ListDisciplines", mock.Anything, mock.MatchedBy(func(p listparams.Params) bool {
		return p.Skip == 10 && p.Limit == 10 && p.SortColumn == "title" && !p.SortDesc
	})).Return([]models.Discipline{{ID: 11, Title: "Algebra"}, {ID: 12, Title: "Biology"}}, 12, nil)

	q := url.Values{"range": {"[10,19]"}, "sort": {`["title","ASC"]`}}
	resp := e.do(t, http.MethodGet, "/api/v1/disciplines/?"+q.Encode(), bearer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "10-12/12", resp.Header.Get("Content-Range"))

	var items []models.Discipline
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	assert.Len(t, items, 2)
}

func TestListRejectsBadParams(t *testing.T) {
	e := newTestEnv(t)
	bearer := e.as(t, teacher)

	for _, q := range []url.Values{
		{"sort": {`["title","sideways"]`}},
		{"sort": {`["password","ASC"]`}},
		{"filter": {`{"nope":1}`}},
		{"range": {"[5,1]"}},
	} {
		resp := e.do(t, http.MethodGet, "/api/v1/disciplines/?"+q.Encode(), bearer, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q.Encode())
	}
}

func TestCORSExposesContentRange(t *testing.T) {
	e := newTestEnv(t)
	e.st.On("Version", mock.Anything).Return("PostgreSQL 16.2", nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	assert.Contains(t, resp.Header.Get("Access-Control-Expose-Headers"), "Content-Range")
}

func TestCreateValidation(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodPost, "/api/v1/disciplines/", e.as(t, teacher), map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "title: failed on required", detail(t, resp))
}

func TestCreateConflictIsBadRequest(t *testing.T) {
	e := newTestEnv(t)
	bearer := e.as(t, teacher)
	e.st.On("CreateDiscipline", mock.Anything, models.DisciplineCreate{Title: "Algebra"}).
		Return(nil, fmt.Errorf("%w: Key (title)=(Algebra) already exists.", store.ErrConflict))

	resp := e.do(t, http.MethodPost, "/api/v1/disciplines/", bearer, map[string]string{"title": "Algebra"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReadMissingIsNotFound(t *testing.T) {
	e := newTestEnv(t)
	bearer := e.as(t, teacher)
	e.st.On("GetDiscipline", mock.Anything, 404).Return(nil, store.ErrNotFound)

	resp := e.do(t, http.MethodGet, "/api/v1/disciplines/404", bearer, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Item not found", detail(t, resp))

	resp = e.do(t, http.MethodGet, "/api/v1/disciplines/abc", bearer, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestStudyGroupCreate(t *testing.T) {
	e := newTestEnv(t)
	bearer := e.as(t, admin)
	in := models.StudyGroupCreate{ID: "IVT-21", DisciplineID: []int{1, 2}}
	e.st.On("CreateStudyGroupWithDisciplines", mock.Anything, in).
		Return([]models.StudyGroup{{ID: "IVT-21", DisciplineID: 1}, {ID: "IVT-21", DisciplineID: 2}}, nil)

	resp := e.do(t, http.MethodPost, "/api/v1/study-groups/", bearer, in)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rows []models.StudyGroup
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	assert.Len(t, rows, 2)
}

func TestUsersMe(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodGet, "/api/v1/users/me", e.as(t, teacher), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0-1/1", resp.Header.Get("Content-Range"))

	body, _ := io.ReadAll(resp.Body)
	assert.NotContains(t, string(body), "hashed_password")
}

func TestCreateUser(t *testing.T) {
	in := models.UserCreate{Username: "ivanov", Email: "ivanov@uni.edu", Password: "secret1"}

	t.Run("existing email", func(t *testing.T) {
		e := newTestEnv(t)
		bearer := e.as(t, admin)
		e.st.On("GetUserByEmail", mock.Anything, in.Email).Return(&models.User{ID: 9}, nil)

		resp := e.do(t, http.MethodPost, "/api/v1/users/", bearer, in)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "The user with this username already exists in the system.", detail(t, resp))
	})

	t.Run("not a superuser", func(t *testing.T) {
		e := newTestEnv(t)
		bearer := e.as(t, teacher)
		e.st.On("GetUserByEmail", mock.Anything, in.Email).Return(nil, store.ErrNotFound)

		resp := e.do(t, http.MethodPost, "/api/v1/users/", bearer, in)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "privelegies error", detail(t, resp))
	})

	t.Run("created", func(t *testing.T) {
		e := newTestEnv(t)
		bearer := e.as(t, admin)
		e.st.On("GetUserByEmail", mock.Anything, in.Email).Return(nil, store.ErrNotFound)
		e.st.On("CreateUser", mock.Anything, in, mock.AnythingOfType("string")).
			Return(&models.User{ID: 10, Username: in.Username, Email: in.Email, Role: models.RoleStudent, IsActive: true}, nil)

		resp := e.do(t, http.MethodPost, "/api/v1/users/", bearer, in)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var u models.User
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&u))
		assert.Equal(t, 10, u.ID)
	})

	t.Run("invalid email", func(t *testing.T) {
		e := newTestEnv(t)
		bad := in
		bad.Email = "not-an-email"
		resp := e.do(t, http.MethodPost, "/api/v1/users/", e.as(t, admin), bad)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "email: failed on email", detail(t, resp))
	})

	t.Run("password longer than bcrypt accepts", func(t *testing.T) {
		e := newTestEnv(t)
		long := in
		long.Password = strings.Repeat("p", 80)
		resp := e.do(t, http.MethodPost, "/api/v1/users/", e.as(t, admin), long)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Equal(t, "password: failed on max=72", detail(t, resp))
		e.st.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUpdateMeLongPassword(t *testing.T) {
	e := newTestEnv(t)
	resp := e.do(t, http.MethodPut, "/api/v1/users/me", e.as(t, teacher),
		map[string]string{"password": strings.Repeat("p", 73)})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "password: failed on max=72", detail(t, resp))
}

func TestSuperuserOnlyRoutes(t *testing.T) {
	e := newTestEnv(t)
	bearer := e.as(t, teacher)

	resp := e.do(t, http.MethodPut, "/api/v1/users/5", bearer, map[string]string{"full_name": "X"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "The user doesn't have enough privileges", detail(t, resp))

	resp = e.do(t, http.MethodPost, "/api/v1/users/report", bearer, models.ReportUserCreate{UserID: 2, Ext: "csv"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteUser(t *testing.T) {
	cases := []struct {
		name   string
		target *models.User
		err    error
		want   string
	}{
		{name: "missing", err: store.ErrNotFound, want: "Item not found"},
		{name: "active", target: &models.User{ID: 7, IsActive: true}, want: "Acive user cannot be removed"},
		{name: "superuser", target: &models.User{ID: 7, IsSuperuser: true}, want: "Superuser cannot be removed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEnv(t)
			bearer := e.as(t, admin)
			e.st.On("GetUser", mock.Anything, 7).Return(tc.target, tc.err)

			resp := e.do(t, http.MethodDelete, "/api/v1/users/7", bearer, nil)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.Equal(t, tc.want, detail(t, resp))
		})
	}

	t.Run("deletes through the store", func(t *testing.T) {
		e := newTestEnv(t)
		bearer := e.as(t, admin)
		gone := &models.User{ID: 7, Username: "Ivanov"}
		e.st.On("GetUser", mock.Anything, 7).Return(gone, nil)
		e.st.On("DeleteUser", mock.Anything, 7).Return(gone, nil)

		resp := e.do(t, http.MethodDelete, "/api/v1/users/7", bearer, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		e.st.AssertCalled(t, "DeleteUser", mock.Anything, 7)
	})

	t.Run("remover replaces the plain delete", func(t *testing.T) {
		var removed int
		e := newTestEnv(t, func(d *Deps) {
			d.RemoveUser = func(ctx context.Context, id int) (*models.User, error) {
				removed = id
				return &models.User{ID: id, Username: "Ivanov"}, nil
			}
		})
		bearer := e.as(t, admin)
		e.st.On("GetUser", mock.Anything, 7).Return(&models.User{ID: 7, Username: "Ivanov"}, nil)

		resp := e.do(t, http.MethodDelete, "/api/v1/users/7", bearer, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 7, removed)
		e.st.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	})

	t.Run("failed role drop keeps the user", func(t *testing.T) {
		e := newTestEnv(t, func(d *Deps) {
			d.RemoveUser = func(ctx context.Context, id int) (*models.User, error) {
				return nil, errors.New("drop db role: role is in use")
			}
		})
		bearer := e.as(t, admin)
		e.st.On("GetUser", mock.Anything, 7).Return(&models.User{ID: 7, Username: "Ivanov"}, nil)

		resp := e.do(t, http.MethodDelete, "/api/v1/users/7", bearer, nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestUsersByRole(t *testing.T) {
	e := newTestEnv(t)
	bearer := e.as(t, teacher)
	e.st.On("ListUsers", mock.Anything, mock.Anything, []string{models.RoleStudent}).
		Return([]models.User{{ID: 4, Role: models.RoleStudent}}, 1, nil)

	resp := e.do(t, http.MethodGet, "/api/v1/users/role/student", bearer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0-1/1", resp.Header.Get("Content-Range"))

	resp = e.do(t, http.MethodGet, "/api/v1/users/role/janitor", bearer, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "role not set", detail(t, resp))
}

func TestUserReport(t *testing.T) {
	e := newTestEnv(t)
	bearer := e.as(t, admin)
	e.st.On("ListTaskStudentDetails", mock.Anything, admin.ID).Return([]models.TaskStudentDetail{
		{TaskStudent: models.TaskStudent{ID: 1, TaskID: 3, StudentID: admin.ID, Status: models.StatusPending}, TaskTitle: "Lab 1"},
	}, nil)

	resp := e.do(t, http.MethodPost, "/api/v1/users/report", bearer, models.ReportUserCreate{UserID: admin.ID, Ext: "json"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/json", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "user_1_report.json")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Lab 1")

	e.st.On("GetUser", mock.Anything, 42).Return(nil, store.ErrNotFound)
	resp = e.do(t, http.MethodPost, "/api/v1/users/report", bearer, models.ReportUserCreate{UserID: 42, Ext: "csv"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTaskStudentDelete(t *testing.T) {
	t.Run("uncompleted", func(t *testing.T) {
		e := newTestEnv(t)
		bearer := e.as(t, teacher)
		e.st.On("GetTaskStudent", mock.Anything, 5).Return(&models.TaskStudent{ID: 5, Status: models.StatusSubmitted}, nil)

		resp := e.do(t, http.MethodDelete, "/api/v1/task-students/5", bearer, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Uncompleted task cannot be removed", detail(t, resp))
		e.st.AssertNotCalled(t, "DeleteTaskStudent", mock.Anything, 5)
	})

	t.Run("completed", func(t *testing.T) {
		e := newTestEnv(t)
		bearer := e.as(t, teacher)
		done := &models.TaskStudent{ID: 5, Status: models.StatusCompleted}
		e.st.On("GetTaskStudent", mock.Anything, 5).Return(done, nil)
		e.st.On("DeleteTaskStudent", mock.Anything, 5).Return(done, nil)

		resp := e.do(t, http.MethodDelete, "/api/v1/task-students/5", bearer, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestTaskStudentUpdate(t *testing.T) {
	e := newTestEnv(t)
	bearer := e.as(t, teacher)
	status := models.StatusCompleted
	grade := 90
	in := models.TaskStudentUpdate{Status: &status, Grade: &grade}
	e.st.On("GetTaskStudent", mock.Anything, 5).Return(&models.TaskStudent{ID: 5, Status: models.StatusSubmitted}, nil)
	e.st.On("UpdateTaskStudent", mock.Anything, 5, in).Return(&models.TaskStudent{ID: 5, Status: status, Grade: &grade}, nil)

	resp := e.do(t, http.MethodPut, "/api/v1/task-students/5", bearer, in)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	bad := "graded"
	resp = e.do(t, http.MethodPut, "/api/v1/task-students/5", bearer, models.TaskStudentUpdate{Status: &bad})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "status: failed on status", detail(t, resp))
}
