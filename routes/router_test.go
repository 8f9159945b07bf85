package routes_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/formsend/formsend/app"
	"github.com/formsend/formsend/config"
	"github.com/formsend/formsend/database"
	"github.com/formsend/formsend/httpx"
	"github.com/formsend/formsend/routes"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) http.Handler {
	t.Helper()

	cfg := config.Config{
		DBUrl:       filepath.Join(t.TempDir(), "test.sqlite"),
		TokenSecret: "test-secret",
		TokenTTL:    time.Hour,
	}

	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return routes.Wire(app.App{
		DB:     db,
		Tokens: httpx.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL),
		Config: cfg,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func registerUser(t *testing.T, h http.Handler, username, email string) (int64, string) {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]any{
		"username": username,
		"email":    email,
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ID    int64  `json:"id"`
		Token string `json:"token"`
	}
	decodeBody(t, rec, &resp)
	require.NotZero(t, resp.ID)
	require.NotEmpty(t, resp.Token)
	return resp.ID, resp.Token
}

func formPayload(title string) map[string]any {
	return map[string]any{
		"formTitle": title,
		"order":     1,
		"sections": []any{
			map[string]any{
				"sectionId":    "s1",
				"sectionTitle": "S",
				"order":        1,
				"questions": []any{
					map[string]any{
						"questionId":   "q1",
						"questionText": "Q",
						"type":         "text",
						"order":        1,
						"options":      []any{},
					},
				},
			},
		},
	}
}

func createForm(t *testing.T, h http.Handler, token string, payload map[string]any) map[string]any {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/api/forms", token, payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	form := map[string]any{}
	decodeBody(t, rec, &form)
	return form
}
