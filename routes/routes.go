package routes

import (
	"net/http"

	"github.com/formsend/formsend/app"
	"github.com/formsend/formsend/routes/middlewares"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)
	root.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	root.Get("/", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{"message": "Hello World"})
	})

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()
	authenticated := middlewares.Authenticated(app)

	api.Route("/auth", func(r chi.Router) {
		r.Post("/register", Register(app))
		r.Post("/login", Login(app))
		r.With(authenticated).Get("/me", Profile(app))
	})

	api.Route("/forms", func(r chi.Router) {
		r.Get("/public/{formId}", PublicGetForm(app))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/", CreateForm(app))
			r.Get("/", ListForms(app))
			r.Get("/byFormId/{formId}", GetFormByFormID(app))
			r.Put("/byFormId/{formId}", UpdateFormByFormID(app))
			r.Get("/{formId}", GetFormByID(app))
			r.Put("/{formId}", UpdateForm(app))
			r.Delete("/{formId}", DeleteForm(app))
		})
	})

	api.Route("/data", func(r chi.Router) {
		r.Post("/public/submit", PublicSubmit(app))
		r.Get("/public/form-with-submissions/{formId}", PublicFormWithSubmissions(app))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/form-with-submissions/{formId}", FormWithSubmissions(app))
			r.Post("/{formId}", Submit(app))
			r.Get("/{formId}", ListSubmissions(app))
			r.Get("/{formId}/{submissionId}", GetSubmission(app))
			r.Delete("/{formId}/{submissionId}", DeleteSubmission(app))
		})
	})

	return api
}
