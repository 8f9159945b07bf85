package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/formsend/formsend/app"
	"github.com/formsend/formsend/database"
	"github.com/formsend/formsend/httpx"
	"github.com/formsend/formsend/log"
	"github.com/formsend/formsend/model"
	"github.com/formsend/formsend/routes/middlewares"
	"github.com/go-chi/render"
)

var reEmail = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type registerRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Register(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := registerRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.Error(w, r, http.StatusBadRequest, "request.parse_body", "Invalid request body format")
			return
		}

		// either username or name satisfies the identity-name requirement
		username := strings.TrimSpace(req.Username)
		if username == "" {
			username = strings.TrimSpace(req.Name)
		}
		log.Debugf("registration attempt: username=%q email=%q password_length=%d",
			username, req.Email, len(req.Password))

		var errs model.ValidationErrors
		if len(username) < 3 {
			errs = append(errs, model.FieldError{Field: "username", Message: "Username must be at least 3 characters long"})
		}
		if !reEmail.MatchString(req.Email) {
			errs = append(errs, model.FieldError{Field: "email", Message: "Please enter a valid email"})
		}
		if len(req.Password) < 6 {
			errs = append(errs, model.FieldError{Field: "password", Message: "Password must be at least 6 characters long"})
		}
		if len(errs) > 0 {
			httpx.ValidationFailed(w, r, "auth.register.validate", "Validation failed", errs)
			return
		}

		var exists bool
		err = app.QueryRowContext(r.Context(), `
			SELECT 1 FROM user WHERE email = ?`, req.Email).
			Scan(&exists)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			httpx.Internal(w, r, "db.get_user", err)
			return
		}
		if exists {
			httpx.Error(w, r, http.StatusBadRequest, "auth.register.duplicate", "User already exists")
			return
		}

		hash, err := httpx.HashPassword(req.Password)
		if err != nil {
			httpx.Internal(w, r, "auth.register.hash", err)
			return
		}

		var userID int64
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO user (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)
			RETURNING id`,
			username,
			req.Email,
			hash,
			time.Now().UTC(),
		).Scan(&userID)
		if database.IsUniqueViolation(err) {
			httpx.Error(w, r, http.StatusBadRequest, "db.insert_user.duplicate", "User already exists")
			return
		}
		if err != nil {
			httpx.Internal(w, r, "db.insert_user", err)
			return
		}

		token, err := app.Tokens.Issue(userID)
		if err != nil {
			httpx.Internal(w, r, "auth.register.token", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id":       userID,
			"username": username,
			"email":    req.Email,
			"token":    token,
		})
	}
}

func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := loginRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.Error(w, r, http.StatusBadRequest, "request.parse_body", "Invalid request body format")
			return
		}

		var errs model.ValidationErrors
		if !reEmail.MatchString(req.Email) {
			errs = append(errs, model.FieldError{Field: "email", Message: "Please enter a valid email"})
		}
		if req.Password == "" {
			errs = append(errs, model.FieldError{Field: "password", Message: "Password is required"})
		}
		if len(errs) > 0 {
			httpx.ValidationFailed(w, r, "auth.login.validate", "Validation failed", errs)
			return
		}

		user := model.User{}
		var hash string
		err = app.QueryRowContext(r.Context(), `
			SELECT id, username, email, password_hash FROM user WHERE email = ?`, req.Email).
			Scan(&user.ID, &user.Username, &user.Email, &hash)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			httpx.Internal(w, r, "db.get_user", err)
			return
		}
		// same response whether the email is unknown or the password is wrong
		if errors.Is(err, sql.ErrNoRows) || !httpx.VerifyPassword(hash, req.Password) {
			httpx.Error(w, r, http.StatusUnauthorized, "auth.login", "Invalid email or password")
			return
		}

		token, err := app.Tokens.Issue(user.ID)
		if err != nil {
			httpx.Internal(w, r, "auth.login.token", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"token":    token,
		})
	}
}

func Profile(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := middlewares.Principal(r)

		user := model.User{}
		err := app.QueryRowContext(r.Context(), `
			SELECT id, username, email FROM user WHERE id = ?`, principal.ID).
			Scan(&user.ID, &user.Username, &user.Email)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.Error(w, r, http.StatusNotFound, "auth.profile", "User not found")
			return
		}
		if err != nil {
			httpx.Internal(w, r, "db.get_user", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		})
	}
}
