package httpx

import (
	"net/http"

	"github.com/formsend/formsend/log"
	"github.com/formsend/formsend/model"
	"github.com/go-chi/render"
)

// ErrorBody is the JSON error envelope every failure is reported with.
type ErrorBody struct {
	Message string                 `json:"message"`
	Errors  model.ValidationErrors `json:"errors,omitempty"`
	Details string                 `json:"details,omitempty"`
}

// Error logs the error code at debug level and sends a JSON error body with
// the given status and message.
func Error(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	log.Debugf("%s: %s", code, msg)
	render.Status(r, status)
	render.JSON(w, r, ErrorBody{Message: msg})
}

// ErrorDetails is Error with a free-text details line in the body.
func ErrorDetails(w http.ResponseWriter, r *http.Request, status int, code, msg, details string) {
	log.Debugf("%s: %s (%s)", code, msg, details)
	render.Status(r, status)
	render.JSON(w, r, ErrorBody{Message: msg, Details: details})
}

// Internal logs the underlying error and sends a 500 with the message passed
// through to the caller.
func Internal(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.Errorf("%s: %s", code, err)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, ErrorBody{Message: err.Error()})
}

// ValidationFailed rejects a request at the boundary with the per-field
// error list.
func ValidationFailed(w http.ResponseWriter, r *http.Request, code, msg string, errs model.ValidationErrors) {
	log.Debugf("%s: %s", code, errs.Error())
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorBody{Message: msg, Errors: errs})
}
