package http

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authmw "github.com/mind-engage/mindengage-admin/internal/auth/middleware"
	"github.com/mind-engage/mindengage-admin/internal/platform/logger"
	"github.com/mind-engage/mindengage-admin/internal/rbac"
	"github.com/mind-engage/mindengage-admin/internal/validation"
	"github.com/mind-engage/mindengage-admin/internal/wizard"
)

// AdminAPI is everything the gateway needs from the upstream admin API;
// *adminapi.Client satisfies it.
type AdminAPI interface {
	authmw.Upstream
	CourseCreator
	CourseAPI
	SubjectAPI
	UserAPI
	Ping(ctx context.Context) error
}

type Deps struct {
	API         AdminAPI
	Auth        *authmw.AuthService
	Local       authmw.LocalAdmin
	Wizards     wizard.Store
	Validator   *validation.Validator
	Log         *logger.Logger
	CORSOrigins []string
	// Timeout bounds every request; zero means 30s.
	Timeout time.Duration
}

func NewRouter(d Deps) nethttp.Handler {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Validator == nil {
		d.Validator = validation.New()
	}
	if d.Timeout <= 0 {
		d.Timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(d.Log), middleware.Recoverer)
	r.Use(middleware.Timeout(d.Timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept-Language"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", authmw.LoginHandler(d.Auth, d.API, d.Local, d.Validator, d.Log))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))

		pr.Get("/auth/me", MeHandler(d.API))

		// Course creation wizard
		pr.Route("/wizard", func(wr chi.Router) {
			wr.Use(rbac.Require(rbac.PermCourseCreate))
			wr.Post("/", OpenWizardHandler(d.Wizards, d.Log))
			wr.Get("/", GetWizardHandler(d.Wizards))
			wr.Delete("/", CancelWizardHandler(d.Wizards))
			wr.Patch("/fields", SetFieldHandler(d.Wizards))
			wr.Post("/chapters", AddChapterHandler(d.Wizards))
			wr.Delete("/chapters/{ci}", RemoveChapterHandler(d.Wizards))
			wr.Post("/chapters/{ci}/lessons", AddLessonHandler(d.Wizards))
			wr.Delete("/chapters/{ci}/lessons/{li}", RemoveLessonHandler(d.Wizards))
			wr.Put("/chapters/{ci}/lessons/{li}/explanation", SetExplanationHandler(d.Wizards))
			wr.Post("/chapters/{ci}/lessons/{li}/options/{oi}/toggle", ToggleCorrectHandler(d.Wizards))
			wr.Post("/next", NextStepHandler(d.Wizards))
			wr.Post("/back", BackStepHandler(d.Wizards))
			wr.Post("/submit", SubmitWizardHandler(d.Wizards, d.API, d.Log))
		})

		// Courses
		pr.With(rbac.Require(rbac.PermCourseRead)).
			Get("/courses", ListCoursesHandler(d.API))
		pr.With(rbac.Require(rbac.PermCourseExport)).
			Get("/courses/export", ExportCoursesHandler(d.API))
		pr.With(rbac.Require(rbac.PermCourseRead)).
			Get("/courses/{id}", GetCourseHandler(d.API))
		pr.With(rbac.Require(rbac.PermCourseDelete)).
			Delete("/courses/{id}", DeleteCourseHandler(d.API, d.Log))

		// Subjects
		pr.With(rbac.Require(rbac.PermSubjectRead)).
			Get("/subjects", ListSubjectsHandler(d.API, d.Validator))
		pr.With(rbac.Require(rbac.PermSubjectExport)).
			Get("/subjects/export", ExportSubjectsHandler(d.API))
		pr.With(rbac.Require(rbac.PermSubjectRead)).
			Get("/subjects/{id}", GetSubjectHandler(d.API))
		pr.With(rbac.Require(rbac.PermSubjectWrite)).
			Post("/subjects", CreateSubjectHandler(d.API, d.Validator, d.Log))
		pr.With(rbac.Require(rbac.PermSubjectWrite)).
			Put("/subjects/{id}", UpdateSubjectHandler(d.API, d.Validator))
		pr.With(rbac.Require(rbac.PermSubjectDelete)).
			Delete("/subjects/{id}", DeleteSubjectHandler(d.API, d.Log))

		// Users
		pr.With(rbac.Require(rbac.PermUsersList)).
			Get("/users", ListUsersHandler(d.API, d.Validator))
		pr.With(rbac.Require(rbac.PermUsersExport)).
			Get("/users/export", ExportUsersHandler(d.API))
		pr.With(rbac.Require(rbac.PermUsersDetail)).
			Get("/users/{id}", UserDetailHandler(d.API))
	})

	r.Get("/healthz", func(w nethttp.ResponseWriter, r *nethttp.Request) { w.WriteHeader(200) })
	r.Get("/readyz", ReadyHandler(d.API))
	return r
}

// GET /readyz reports whether the upstream answers.
func ReadyHandler(api interface {
	Ping(ctx context.Context) error
}) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := api.Ping(ctx); err != nil {
			writeErr(w, nethttp.StatusServiceUnavailable, "upstream unavailable")
			return
		}
		w.WriteHeader(nethttp.StatusOK)
	}
}
