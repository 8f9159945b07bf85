package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/formsend/formsend/app"
	"github.com/formsend/formsend/httpx"
	"github.com/formsend/formsend/log"
	"github.com/formsend/formsend/model"
	"github.com/formsend/formsend/routes/middlewares"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

const submissionColumns = `id, form_id, user_id, data, status, submitted_at, created_at, updated_at`

func scanSubmission(row rowScanner) (sub model.Submission, err error) {
	var data []byte
	err = row.Scan(
		&sub.ID, &sub.FormID, &sub.UserID, &data, &sub.Status,
		&sub.SubmittedAt, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return
	}
	err = json.Unmarshal(data, &sub.Data)
	return
}

func insertSubmission(ctx context.Context, app app.App, sub *model.Submission) error {
	data, err := json.Marshal(sub.Data)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	sub.SubmittedAt = now
	sub.CreatedAt, sub.UpdatedAt = now, now
	if sub.Status == "" {
		sub.Status = model.StatusSubmitted
	}

	return app.QueryRowContext(ctx, `
		INSERT INTO submission (form_id, user_id, data, status, submitted_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		sub.FormID,
		sub.UserID,
		string(data),
		sub.Status,
		sub.SubmittedAt,
		now,
		now,
	).Scan(&sub.ID)
}

// querySubmissions lists submissions for a form, newest first, resolving the
// submitter's identity for display. submitterID restricts to one submitter
// when > 0.
func querySubmissions(ctx context.Context, app app.App, formID, submitterID int64) ([]model.Submission, error) {
	query := `
		SELECT
			s.id, s.form_id, s.user_id, s.data, s.status,
			s.submitted_at, s.created_at, s.updated_at,
			u.username, u.email
		FROM submission s
		LEFT OUTER JOIN user u ON (s.user_id = u.id)
		WHERE s.form_id = ?`
	args := []any{formID}
	if submitterID > 0 {
		query += ` AND s.user_id = ?`
		args = append(args, submitterID)
	}
	query += ` ORDER BY s.submitted_at DESC, s.id DESC`

	rows, err := app.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := []model.Submission{}
	for rows.Next() {
		sub := model.Submission{}
		var data []byte
		var username, email sql.NullString
		err = rows.Scan(
			&sub.ID, &sub.FormID, &sub.UserID, &data, &sub.Status,
			&sub.SubmittedAt, &sub.CreatedAt, &sub.UpdatedAt,
			&username, &email,
		)
		if err != nil {
			return nil, err
		}
		err = json.Unmarshal(data, &sub.Data)
		if err != nil {
			return nil, err
		}
		if username.Valid {
			sub.Submitter = &model.User{ID: sub.UserID, Username: username.String, Email: email.String}
		}
		submissions = append(submissions, sub)
	}
	return submissions, rows.Err()
}

type submitRequest struct {
	Data   *model.SubmissionData `json:"data"`
	Status string                `json:"status,omitempty"`
}

func Submit(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := middlewares.Principal(r)

		formID, err := strconv.ParseInt(chi.URLParam(r, "formId"), 10, 64)
		if err != nil {
			httpx.Error(w, r, http.StatusBadRequest, "request.get_url_param.formId", "Invalid form id")
			return
		}

		// the payload is rejected at the boundary, before any form lookup
		req := submitRequest{}
		err = render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.Error(w, r, http.StatusBadRequest, "request.parse_body", "Invalid request body format")
			return
		}

		var errs model.ValidationErrors
		if req.Data == nil {
			errs = append(errs, model.FieldError{Field: "data", Message: "Data must be an object"})
		}
		if err := model.ValidateStatus(req.Status); err != nil {
			errs = append(errs, *err)
		}
		if len(errs) > 0 {
			httpx.ValidationFailed(w, r, "data.submit.validate", "Validation failed", errs)
			return
		}

		form, err := fetchFormByID(r.Context(), app, formID)
		if err == sql.ErrNoRows {
			httpx.Error(w, r, http.StatusNotFound, "data.submit", "Form not found")
			return
		}
		if err != nil {
			httpx.Internal(w, r, "db.get_form", err)
			return
		}
		if !middlewares.OwnerAllowed(principal, int64(form.UserID), form.IsPublic, true) {
			httpx.Error(w, r, http.StatusForbidden, "data.submit.owner", "Not authorized to submit this form")
			return
		}

		sub := model.Submission{
			FormID: form.ID,
			UserID: principal.ID,
			Data:   *req.Data,
			Status: req.Status,
		}
		err = insertSubmission(r.Context(), app, &sub)
		if err != nil {
			httpx.Internal(w, r, "db.insert_submission", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, sub)
	}
}

// loadOwnedForm resolves the form and enforces strict ownership: reading or
// deleting submissions of a public form still requires owning it.
func loadOwnedForm(app app.App, w http.ResponseWriter, r *http.Request, msg string) (model.Form, bool) {
	formID, err := strconv.ParseInt(chi.URLParam(r, "formId"), 10, 64)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "request.get_url_param.formId", "Invalid form id")
		return model.Form{}, false
	}

	form, err := fetchFormByID(r.Context(), app, formID)
	if err == sql.ErrNoRows {
		httpx.Error(w, r, http.StatusNotFound, "data.get_form", "Form not found")
		return model.Form{}, false
	}
	if err != nil {
		httpx.Internal(w, r, "db.get_form", err)
		return model.Form{}, false
	}

	principal := middlewares.Principal(r)
	if !middlewares.OwnerAllowed(principal, int64(form.UserID), form.IsPublic, false) {
		httpx.Error(w, r, http.StatusForbidden, "data.owner", msg)
		return model.Form{}, false
	}
	return form, true
}

func ListSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := loadOwnedForm(app, w, r, "Not authorized to view submissions")
		if !ok {
			return
		}

		submissions, err := querySubmissions(r.Context(), app, form.ID, 0)
		if err != nil {
			httpx.Internal(w, r, "db.get_submissions", err)
			return
		}

		render.JSON(w, r, submissions)
	}
}

func GetSubmission(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := loadOwnedForm(app, w, r, "Not authorized to view submission")
		if !ok {
			return
		}

		submissionID, err := strconv.ParseInt(chi.URLParam(r, "submissionId"), 10, 64)
		if err != nil {
			httpx.Error(w, r, http.StatusBadRequest, "request.get_url_param.submissionId", "Invalid submission id")
			return
		}

		sub, err := scanSubmission(app.QueryRowContext(r.Context(), `
			SELECT `+submissionColumns+` FROM submission WHERE id = ? AND form_id = ?`,
			submissionID, form.ID))
		if err == sql.ErrNoRows {
			httpx.Error(w, r, http.StatusNotFound, "data.get_submission", "Submission not found")
			return
		}
		if err != nil {
			httpx.Internal(w, r, "db.get_submission", err)
			return
		}

		user := model.User{}
		err = app.QueryRowContext(r.Context(), `
			SELECT id, username, email FROM user WHERE id = ?`, sub.UserID).
			Scan(&user.ID, &user.Username, &user.Email)
		if err == nil {
			sub.Submitter = &user
		} else if !errors.Is(err, sql.ErrNoRows) {
			httpx.Internal(w, r, "db.get_submission.user", err)
			return
		}

		render.JSON(w, r, sub)
	}
}

func DeleteSubmission(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := loadOwnedForm(app, w, r, "Not authorized to delete submission")
		if !ok {
			return
		}

		submissionID, err := strconv.ParseInt(chi.URLParam(r, "submissionId"), 10, 64)
		if err != nil {
			httpx.Error(w, r, http.StatusBadRequest, "request.get_url_param.submissionId", "Invalid submission id")
			return
		}

		res, err := app.ExecContext(r.Context(), `
			DELETE FROM submission WHERE id = ? AND form_id = ?`,
			submissionID, form.ID)
		if err != nil {
			httpx.Internal(w, r, "db.delete_submission", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.Internal(w, r, "db.delete_submission.verify", err)
			return
		}
		if n < 1 {
			httpx.Error(w, r, http.StatusNotFound, "data.delete_submission", "Submission not found")
			return
		}

		render.JSON(w, r, map[string]any{"message": "Submission removed"})
	}
}

// resolvePublicForm finds the target form for an unauthenticated submission:
// exact (formId, userId) match first, then case-insensitive formId, then the
// supplied formId as a database id.
func resolvePublicForm(ctx context.Context, app app.App, formID string, userID int64) (model.Form, error) {
	form, err := scanForm(app.QueryRowContext(ctx, `
		SELECT `+formColumns+` FROM form WHERE form_id = ? AND user_id = ?`,
		formID, userID))
	if err != sql.ErrNoRows {
		return form, err
	}

	form, err = scanForm(app.QueryRowContext(ctx, `
		SELECT `+formColumns+` FROM form WHERE form_id = ? COLLATE NOCASE AND user_id = ?`,
		formID, userID))
	if err != sql.ErrNoRows {
		return form, err
	}

	if id, perr := strconv.ParseInt(formID, 10, 64); perr == nil {
		form, err = scanForm(app.QueryRowContext(ctx, `
			SELECT `+formColumns+` FROM form WHERE id = ? AND user_id = ?`,
			id, userID))
		if err != sql.ErrNoRows {
			return form, err
		}
	}

	return model.Form{}, sql.ErrNoRows
}

func PublicSubmit(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := model.PublicSubmission{}
		err := render.DecodeJSON(r.Body, &payload)
		if err != nil {
			httpx.ErrorDetails(w, r, http.StatusBadRequest, "request.parse_body",
				"Invalid request body format", "Request body should be a valid JSON object")
			return
		}

		if errs := model.ValidatePublicSubmission(&payload); len(errs) > 0 {
			httpx.ValidationFailed(w, r, "data.public_submit.validate", "Missing or invalid required fields", errs)
			return
		}

		userID := int64(payload.UserID)
		form, err := resolvePublicForm(r.Context(), app, string(payload.FormID), userID)
		if err == sql.ErrNoRows {
			// include the owner's forms to help integrators diagnose id mixups
			available := []map[string]any{}
			rows, qerr := app.QueryContext(r.Context(), `
				SELECT form_id, title FROM form WHERE user_id = ?`, userID)
			if qerr == nil {
				defer rows.Close()
				for rows.Next() {
					var id, title string
					if rows.Scan(&id, &title) == nil {
						available = append(available, map[string]any{"formId": id, "formTitle": title})
					}
				}
			}
			log.Debugf("data.public_submit: no form %q for user %d, %d forms available",
				payload.FormID, userID, len(available))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]any{
				"message":        "Form not found",
				"details":        "No form found with the provided formId and userId combination.",
				"availableForms": available,
			})
			return
		}
		if err != nil {
			httpx.Internal(w, r, "db.get_form", err)
			return
		}

		sub := model.Submission{
			FormID: form.ID,
			UserID: userID,
			Data:   payload.Normalize(),
			Status: payload.Status,
		}
		err = insertSubmission(r.Context(), app, &sub)
		if err != nil {
			httpx.Internal(w, r, "db.insert_submission", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message":      "Form submission successful",
			"submissionId": sub.ID,
			"submittedAt":  sub.SubmittedAt,
			"data":         sub.Data,
		})
	}
}

func FormWithSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := loadOwnedForm(app, w, r, "Not authorized")
		if !ok {
			return
		}

		// only the owner's own submissions on the authenticated variant
		principal := middlewares.Principal(r)
		submissions, err := querySubmissions(r.Context(), app, form.ID, principal.ID)
		if err != nil {
			httpx.Internal(w, r, "db.get_submissions", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"form":        form,
			"submissions": submissions,
		})
	}
}

func PublicFormWithSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, err := strconv.ParseInt(chi.URLParam(r, "formId"), 10, 64)
		userID, uerr := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
		if err != nil || uerr != nil {
			httpx.ErrorDetails(w, r, http.StatusBadRequest, "data.public_form.params",
				"Missing required parameters", "Both formId and userId are required as valid identifiers")
			return
		}

		form, err := fetchFormByID(r.Context(), app, formID)
		if err == sql.ErrNoRows {
			httpx.ErrorDetails(w, r, http.StatusNotFound, "data.public_form",
				"Form not found", "No form found with the provided database id")
			return
		}
		if err != nil {
			httpx.Internal(w, r, "db.get_form", err)
			return
		}

		if int64(form.UserID) != userID {
			httpx.ErrorDetails(w, r, http.StatusForbidden, "data.public_form.owner",
				"Invalid userId for form", "The specified userId does not match the form owner")
			return
		}

		// all submissions for the form, regardless of submitter
		submissions, err := querySubmissions(r.Context(), app, form.ID, 0)
		if err != nil {
			httpx.Internal(w, r, "db.get_submissions", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"form":        form,
			"submissions": submissions,
			"count":       len(submissions),
		})
	}
}
