package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/formsend/formsend/app"
	"github.com/formsend/formsend/database"
	"github.com/formsend/formsend/httpx"
	"github.com/formsend/formsend/model"
	"github.com/formsend/formsend/routes/middlewares"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gofrs/uuid"
)

const formColumns = `id, form_id, user_id, title, description, ord, is_public, version, sections, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanForm(row rowScanner) (form model.Form, err error) {
	var sections []byte
	err = row.Scan(
		&form.ID, &form.FormID, &form.UserID, &form.Title, &form.Description,
		&form.Order, &form.IsPublic, &form.Version, &sections,
		&form.CreatedAt, &form.UpdatedAt,
	)
	if err != nil {
		return
	}
	err = json.Unmarshal(sections, &form.Sections)
	return
}

func fetchFormByID(ctx context.Context, app app.App, id int64) (model.Form, error) {
	row := app.QueryRowContext(ctx, `
		SELECT `+formColumns+` FROM form WHERE id = ?`, id)
	return scanForm(row)
}

// newFormID generates a unique-enough user-facing form id; collisions are
// left to the (user_id, form_id) uniqueness constraint.
func newFormID() string {
	suffix := strings.ReplaceAll(uuid.Must(uuid.NewV4()).String(), "-", "")[:9]
	return fmt.Sprintf("form_%d_%s", time.Now().UnixMilli(), suffix)
}

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := middlewares.Principal(r)

		form := model.Form{}
		err := render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.Error(w, r, http.StatusBadRequest, "request.parse_body", "Invalid request body format")
			return
		}

		if errs := model.ValidateForm(&form); len(errs) > 0 {
			httpx.ValidationFailed(w, r, "forms.create.validate", "Validation failed", errs)
			return
		}

		form.UserID = model.ID(principal.ID)
		form.Version = 1
		if form.Order < 1 {
			form.Order = 1
		}
		if form.FormID == "" {
			form.FormID = newFormID()
		}
		now := time.Now().UTC()
		form.CreatedAt, form.UpdatedAt = now, now

		sections, err := json.Marshal(form.Sections)
		if err != nil {
			httpx.Internal(w, r, "forms.create.encode_sections", err)
			return
		}

		err = app.QueryRowContext(r.Context(), `
			INSERT INTO form (user_id, form_id, title, description, ord, is_public, version, sections, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			principal.ID,
			form.FormID,
			form.Title,
			form.Description,
			form.Order,
			form.IsPublic,
			form.Version,
			string(sections),
			now,
			now,
		).Scan(&form.ID)
		if database.IsUniqueViolation(err) {
			httpx.Error(w, r, http.StatusConflict, "db.insert_form.duplicate", "A form with this formId already exists")
			return
		}
		if err != nil {
			httpx.Internal(w, r, "db.insert_form", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, form)
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := middlewares.Principal(r)

		rows, err := app.QueryContext(r.Context(), `
			SELECT `+formColumns+` FROM form WHERE user_id = ? ORDER BY id`, principal.ID)
		if err != nil {
			httpx.Internal(w, r, "db.get_forms", err)
			return
		}
		defer rows.Close()

		forms := []model.Form{}
		for rows.Next() {
			form, err := scanForm(rows)
			if err != nil {
				httpx.Internal(w, r, "db.get_forms.scan", err)
				return
			}
			forms = append(forms, form)
		}

		render.JSON(w, r, forms)
	}
}

func GetFormByID(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := middlewares.Principal(r)

		formID, err := strconv.ParseInt(chi.URLParam(r, "formId"), 10, 64)
		if err != nil {
			httpx.Error(w, r, http.StatusBadRequest, "request.get_url_param.formId", "Invalid form id")
			return
		}

		// ownership is part of the lookup filter: not-owned reads as absent
		form, err := scanForm(app.QueryRowContext(r.Context(), `
			SELECT `+formColumns+` FROM form WHERE id = ? AND user_id = ?`,
			formID, principal.ID))
		if err == sql.ErrNoRows {
			httpx.Error(w, r, http.StatusNotFound, "forms.get", "Form not found")
			return
		}
		if err != nil {
			httpx.Internal(w, r, "db.get_form", err)
			return
		}

		render.JSON(w, r, form)
	}
}

func GetFormByFormID(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := middlewares.Principal(r)
		customID := chi.URLParam(r, "formId")

		// explicit userId query parameter overrides the principal, for the
		// public/integration surface
		userID := principal.ID
		if q := r.URL.Query().Get("userId"); q != "" {
			override, err := strconv.ParseInt(q, 10, 64)
			if err != nil {
				httpx.Error(w, r, http.StatusBadRequest, "request.get_query_param.userId", "Invalid userId")
				return
			}
			userID = override
		}

		form, err := scanForm(app.QueryRowContext(r.Context(), `
			SELECT `+formColumns+` FROM form WHERE form_id = ? AND user_id = ?`,
			customID, userID))
		if err == sql.ErrNoRows {
			httpx.Error(w, r, http.StatusNotFound, "forms.get_by_form_id", "Form not found")
			return
		}
		if err != nil {
			httpx.Internal(w, r, "db.get_form", err)
			return
		}

		render.JSON(w, r, form)
	}
}

func updateForm(app app.App, w http.ResponseWriter, r *http.Request, existing model.Form, payload model.Form) {
	// preserve identity and bump the version no matter what the caller sent
	payload.ID = existing.ID
	payload.UserID = existing.UserID
	payload.Version = existing.Version + 1
	if payload.Order < 1 {
		payload.Order = existing.Order
		if payload.Order < 1 {
			payload.Order = 1
		}
	}
	if payload.FormID == "" {
		payload.FormID = existing.FormID
	}
	payload.CreatedAt = existing.CreatedAt
	payload.UpdatedAt = time.Now().UTC()

	sections, err := json.Marshal(payload.Sections)
	if err != nil {
		httpx.Internal(w, r, "forms.update.encode_sections", err)
		return
	}

	_, err = app.ExecContext(r.Context(), `
		UPDATE form
		SET
			form_id = ?,
			title = ?,
			description = ?,
			ord = ?,
			is_public = ?,
			version = ?,
			sections = ?,
			updated_at = ?
		WHERE id = ?`,
		payload.FormID,
		payload.Title,
		payload.Description,
		payload.Order,
		payload.IsPublic,
		payload.Version,
		string(sections),
		payload.UpdatedAt,
		payload.ID,
	)
	if database.IsUniqueViolation(err) {
		httpx.Error(w, r, http.StatusConflict, "db.update_form.duplicate", "A form with this formId already exists")
		return
	}
	if err != nil {
		httpx.Internal(w, r, "db.update_form", err)
		return
	}

	render.JSON(w, r, payload)
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := middlewares.Principal(r)

		formID, err := strconv.ParseInt(chi.URLParam(r, "formId"), 10, 64)
		if err != nil {
			httpx.Error(w, r, http.StatusBadRequest, "request.get_url_param.formId", "Invalid form id")
			return
		}

		payload := model.Form{}
		err = render.DecodeJSON(r.Body, &payload)
		if err != nil {
			httpx.Error(w, r, http.StatusBadRequest, "request.parse_body", "Invalid request body format")
			return
		}
		if errs := model.ValidateForm(&payload); len(errs) > 0 {
			httpx.ValidationFailed(w, r, "forms.update.validate", "Validation failed", errs)
			return
		}

		existing, err := scanForm(app.QueryRowContext(r.Context(), `
			SELECT `+formColumns+` FROM form WHERE id = ? AND user_id = ?`,
			formID, principal.ID))
		if err == sql.ErrNoRows {
			httpx.Error(w, r, http.StatusNotFound, "forms.update", "Form not found")
			return
		}
		if err != nil {
			httpx.Internal(w, r, "db.get_form", err)
			return
		}

		updateForm(app, w, r, existing, payload)
	}
}

func UpdateFormByFormID(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := middlewares.Principal(r)
		customID := chi.URLParam(r, "formId")

		payload := model.Form{}
		err := render.DecodeJSON(r.Body, &payload)
		if err != nil {
			httpx.Error(w, r, http.StatusBadRequest, "request.parse_body", "Invalid request body format")
			return
		}
		if errs := model.ValidateForm(&payload); len(errs) > 0 {
			httpx.ValidationFailed(w, r, "forms.update_by_form_id.validate", "Validation failed", errs)
			return
		}

		// userId in the body overrides the principal ("act on behalf of")
		userID := principal.ID
		if payload.UserID != 0 {
			userID = int64(payload.UserID)
		}

		existing, err := scanForm(app.QueryRowContext(r.Context(), `
			SELECT `+formColumns+` FROM form WHERE form_id = ? AND user_id = ?`,
			customID, userID))
		if err == sql.ErrNoRows {
			httpx.Error(w, r, http.StatusNotFound, "forms.update_by_form_id", "Form not found")
			return
		}
		if err != nil {
			httpx.Internal(w, r, "db.get_form", err)
			return
		}

		// the path parameter wins over anything in the body
		payload.FormID = customID
		updateForm(app, w, r, existing, payload)
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := middlewares.Principal(r)

		formID, err := strconv.ParseInt(chi.URLParam(r, "formId"), 10, 64)
		if err != nil {
			httpx.Error(w, r, http.StatusBadRequest, "request.get_url_param.formId", "Invalid form id")
			return
		}

		// submissions are left behind on purpose
		res, err := app.ExecContext(r.Context(), `
			DELETE FROM form WHERE id = ? AND user_id = ?`,
			formID, principal.ID)
		if err != nil {
			httpx.Internal(w, r, "db.delete_form", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.Internal(w, r, "db.delete_form.verify", err)
			return
		}
		if n < 1 {
			httpx.Error(w, r, http.StatusNotFound, "forms.delete", "Form not found")
			return
		}

		render.JSON(w, r, map[string]any{"message": "Form removed"})
	}
}

func PublicGetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customID := chi.URLParam(r, "formId")
		userParam := r.URL.Query().Get("userId")

		var errs model.ValidationErrors
		if customID == "" {
			errs = append(errs, model.FieldError{Field: "formId", Message: "formId is required"})
		}
		userID, err := strconv.ParseInt(userParam, 10, 64)
		if userParam == "" || err != nil {
			errs = append(errs, model.FieldError{Field: "userId", Message: "userId is required in query parameters"})
		}
		if len(errs) > 0 {
			httpx.ValidationFailed(w, r, "forms.public.validate", "Missing required parameters", errs)
			return
		}

		// the public flag is deliberately not checked here: the reduced
		// projection is reachable by anyone holding (formId, userId)
		form, err := scanForm(app.QueryRowContext(r.Context(), `
			SELECT `+formColumns+` FROM form WHERE form_id = ? AND user_id = ?`,
			customID, userID))
		if err == sql.ErrNoRows {
			httpx.Error(w, r, http.StatusNotFound, "forms.public", "Form not found")
			return
		}
		if err != nil {
			httpx.Internal(w, r, "db.get_form", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"formId":      form.FormID,
			"formTitle":   form.Title,
			"description": form.Description,
			"sections":    form.Sections,
			"version":     form.Version,
			"isPublic":    form.IsPublic,
		})
	}
}
