package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appsvc "account-service/internal/app"
	"account-service/internal/model"
	"account-service/internal/pkg/jwtutil"
	"account-service/internal/repository"
)

// userTable is an in-memory credential store with unique email and username.
type userTable struct {
	mu    sync.Mutex
	users []*model.User
}

func (s *userTable) Create(_ context.Context, user *model.User) error {
	if err := user.Prepare(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	user.ID = uint(len(s.users) + 1)
	user.CreatedAt = time.Now().UTC().Truncate(time.Second)
	cp := *user
	s.users = append(s.users, &cp)
	return nil
}

func (s *userTable) find(match func(*model.User) bool) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (s *userTable) GetByEmailOrUsername(_ context.Context, email, username string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.Email == email || u.Username == username }), nil
}

func (s *userTable) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.Email == email }), nil
}

func (s *userTable) GetByID(_ context.Context, id uint) (*model.User, error) {
	return s.find(func(u *model.User) bool { return u.ID == id }), nil
}

func (s *userTable) UpdateLastLogin(_ context.Context, user *model.User, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == user.ID {
			u.LastLoginAt = &at
		}
	}
	user.LastLoginAt = &at
	return nil
}

func (s *userTable) delete(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.users {
		if u.ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return
		}
	}
}

type testServer struct {
	engine *gin.Engine
	users  *userTable
	now    time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		users: &userTable{},
		now:   time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return ts.now }

	tokens, err := jwtutil.NewIssuer("integration-secret", 30*24*time.Hour, jwtutil.WithClock(clock))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	accounts := appsvc.NewAccountService(ts.users, tokens, logger, appsvc.WithClock(clock))
	ts.engine = NewEngine(RouterDeps{GinMode: gin.TestMode, Logger: logger, Accounts: accounts})
	return ts
}

func (ts *testServer) request(method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://frontend.test")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRegisterThenProfile(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/api/users/register", `{"username":"ana","email":"ana@x.com","password":"p@ss1234"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	reg := decodeBody(t, rec)
	token, _ := reg["token"].(string)
	require.NotEmpty(t, token)

	rec = ts.request(http.MethodGet, "/api/users/profile", "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	profile := decodeBody(t, rec)
	assert.Equal(t, "ana", profile["username"])
	assert.Equal(t, reg["id"], profile["id"])
	assert.Contains(t, profile, "createdAt")
	assert.Contains(t, profile, "lastLoginDate")
	for key := range profile {
		assert.NotContains(t, strings.ToLower(key), "password")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/api/users/register", `{"username":"ana","email":"ana@x.com","password":"p@ss1234"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.request(http.MethodPost, "/api/users/register", `{"username":"ana","email":"other@x.com","password":"p@ss1234"}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"User already exists"}`, rec.Body.String())
	assert.Len(t, ts.users.users, 1)
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/api/users/register", `{"username":"ana","email":"ana-at-x","password":"p@ss1234"}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Validation failed", body["message"])
	errs, ok := body["errors"].([]any)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "email", errs[0].(map[string]any)["field"])
}

func TestRegisterPasswordOverBcryptLimit(t *testing.T) {
	ts := newTestServer(t)

	for name, password := range map[string]string{
		"ascii":     strings.Repeat("p", 100),
		"multibyte": strings.Repeat("\U0001F600", 20),
	} {
		t.Run(name, func(t *testing.T) {
			payload, err := json.Marshal(map[string]string{"username": "ana", "email": "ana@x.com", "password": password})
			require.NoError(t, err)

			rec := ts.request(http.MethodPost, "/api/users/register", string(payload), "")
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.JSONEq(t, `{"message":"Validation failed","errors":[{"field":"password","message":"must be at most 72 bytes"}]}`, rec.Body.String())
		})
	}
	assert.Empty(t, ts.users.users)
}

func TestLoginWithPaddedEmail(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/api/users/register", `{"username":"ana","email":" ana@x.com ","password":"p@ss1234"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.request(http.MethodPost, "/api/users/login", `{"email":" ana@x.com ","password":"p@ss1234"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ana@x.com", decodeBody(t, rec)["email"])
}

func TestLoginFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/api/users/register", `{"username":"ana","email":"ana@x.com","password":"p@ss1234"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	wrong := ts.request(http.MethodPost, "/api/users/login", `{"email":"ana@x.com","password":"nope"}`, "")
	unknown := ts.request(http.MethodPost, "/api/users/login", `{"email":"ghost@x.com","password":"p@ss1234"}`, "")
	require.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, wrong.Body.Bytes(), unknown.Body.Bytes())

	ts.now = ts.now.Add(2 * time.Hour)
	rec = ts.request(http.MethodPost, "/api/users/login", `{"email":"ana@x.com","password":"p@ss1234"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	token, _ := decodeBody(t, rec)["token"].(string)
	require.NotEmpty(t, token)

	rec = ts.request(http.MethodGet, "/api/users/profile", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-09-01T14:00:00Z", decodeBody(t, rec)["lastLoginDate"])
}

func TestProfileRejectionsAreIdentical(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/api/users/register", `{"username":"ana","email":"ana@x.com","password":"p@ss1234"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	token, _ := decodeBody(t, rec)["token"].(string)

	parts := strings.Split(token, ".")
	forged := parts[0] + "." + parts[1] + ".c2lnbmF0dXJlLWZyb20tc29tZXdoZXJlLWVsc2U"

	responses := []*httptest.ResponseRecorder{
		ts.request(http.MethodGet, "/api/users/profile", "", ""),
		ts.request(http.MethodGet, "/api/users/profile", "", "not.a.jwt"),
		ts.request(http.MethodGet, "/api/users/profile", "", forged),
	}

	ts.now = ts.now.Add(31 * 24 * time.Hour)
	responses = append(responses, ts.request(http.MethodGet, "/api/users/profile", "", token))

	for i, rec := range responses {
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "case %d", i)
		assert.JSONEq(t, `{"message":"Session expired. Please log in again."}`, rec.Body.String(), "case %d", i)
	}
}

func TestProfileAfterUserDeleted(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/api/users/register", `{"username":"ana","email":"ana@x.com","password":"p@ss1234"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	token, _ := decodeBody(t, rec)["token"].(string)

	ts.users.delete(1)

	rec = ts.request(http.MethodGet, "/api/users/profile", "", token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/users/profile", nil)
	req.Header.Set("Origin", "http://frontend.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	allowed := strings.ToLower(rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Contains(t, allowed, "authorization")
	assert.Contains(t, allowed, "content-type")
}

func TestCORSHeaderWithoutOrigin(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
