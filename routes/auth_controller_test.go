package routes_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndProfile(t *testing.T) {
	h := newTestApp(t)

	id, token := registerUser(t, h, "alice", "a@x.com")

	rec := doJSON(t, h, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	profile := map[string]any{}
	decodeBody(t, rec, &profile)
	assert.Equal(t, float64(id), profile["id"])
	assert.Equal(t, "alice", profile["username"])
	assert.Equal(t, "a@x.com", profile["email"])
	assert.NotContains(t, profile, "password")
	assert.NotContains(t, profile, "passwordHash")
}

func TestRegisterAcceptsNameInsteadOfUsername(t *testing.T) {
	h := newTestApp(t)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     "bob the builder",
		"email":    "bob@x.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := map[string]any{}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "bob the builder", resp["username"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h := newTestApp(t)
	registerUser(t, h, "alice", "a@x.com")

	// a different username and password do not help
	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "another",
		"email":    "a@x.com",
		"password": "different1",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := map[string]any{}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "User already exists", resp["message"])
}

func TestRegisterValidation(t *testing.T) {
	h := newTestApp(t)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": "al",
		"email":    "not-an-email",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Message string `json:"message"`
		Errors  []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Validation failed", resp.Message)
	assert.Len(t, resp.Errors, 3)
}

func TestLoginWrongPasswordIsGeneric(t *testing.T) {
	h := newTestApp(t)
	registerUser(t, h, "alice", "a@x.com")

	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "a@x.com",
		"password": "wrongpw",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := map[string]any{}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Invalid email or password", resp["message"])

	// unknown email yields the exact same response shape
	rec = doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "nobody@x.com",
		"password": "wrongpw",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	other := map[string]any{}
	decodeBody(t, rec, &other)
	assert.Equal(t, resp, other)
}

func TestLoginIssuesWorkingToken(t *testing.T) {
	h := newTestApp(t)
	id, _ := registerUser(t, h, "alice", "a@x.com")

	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    "a@x.com",
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		ID    int64  `json:"id"`
		Token string `json:"token"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, id, resp.ID)

	me := doJSON(t, h, http.MethodGet, "/api/auth/me", resp.Token, nil)
	assert.Equal(t, http.StatusOK, me.Code)
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	h := newTestApp(t)

	rec := doJSON(t, h, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/forms", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
