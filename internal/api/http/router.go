package http

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	auth "github.com/mind-engage/quizbank/internal/auth/middleware"
	"github.com/mind-engage/quizbank/internal/bank"
	"github.com/mind-engage/quizbank/internal/grading"
	"github.com/mind-engage/quizbank/internal/ratelimit"
	"github.com/mind-engage/quizbank/internal/rbac"
	"github.com/mind-engage/quizbank/internal/revision"
	"github.com/mind-engage/quizbank/internal/storage"
	syncx "github.com/mind-engage/quizbank/internal/sync"
)

type Deps struct {
	Store    bank.Store
	Blobs    storage.BlobStore
	Events   syncx.Recorder
	Feed     EventSource // nil hides GET /events
	Sessions *revision.Sessions
	Grader   *grading.Grader
	Auth     *auth.AuthService
	Creds    auth.Credentials
	Limiter  *ratelimit.Limiter // nil disables rate limiting
	DB       *sql.DB            // nil: /readyz only checks the process
	Log      *slog.Logger

	LocalAuth    bool
	CORSOrigins  []string
	ExportPretty bool
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Events == nil {
		d.Events = syncx.Discard{}
	}
	if d.Grader == nil {
		d.Grader = grading.NewDefaultGrader()
	}
	if d.Sessions == nil {
		d.Sessions = revision.NewSessions(0)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// keyed on the socket peer, so it runs before RealIP rewrites RemoteAddr
	if d.Limiter != nil {
		r.Use(d.Limiter.Middleware)
	}
	r.Use(middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", PasswordHeader},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition", "X-Export-Warning"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if d.LocalAuth {
		r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Creds))
	}

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.With(rbac.Require(rbac.PermBankView)).
			Post("/questions/classify", ClassifyHandler())
		pr.With(rbac.Require(rbac.PermPracticeRun)).
			Post("/questions/validate", ValidateHandler(d.Grader))

		pr.With(rbac.Require(rbac.PermBankView)).Get("/banks", ListBanksHandler(d.Store))
		pr.With(rbac.Require(rbac.PermBankCreate)).Post("/banks", CreateBankHandler(d.Store))
		pr.With(rbac.Require(rbac.PermBankImport)).
			Post("/banks/import", ImportBankHandler(d.Store, d.Events, d.Log))

		pr.Route("/banks/{id}", func(br chi.Router) {
			br.With(rbac.Require(rbac.PermBankView)).Get("/", GetBankHandler(d.Store))
			br.With(rbac.Require(rbac.PermBankDelete)).Delete("/", DeleteBankHandler(d.Store))
			br.With(rbac.Require(rbac.PermBankExport)).
				Get("/export", ExportBankHandler(d.Store, d.Events, d.Log, d.ExportPretty))
			if d.Blobs != nil {
				br.With(rbac.Require(rbac.PermBankExport)).
					Post("/backups", BackupBankHandler(d.Store, d.Blobs, d.Events, d.Log))
			}
			br.With(rbac.Require(rbac.PermPracticeTest)).
				Post("/revision", StartRevisionHandler(d.Store, d.Sessions))
		})

		pr.With(rbac.Require(rbac.PermPracticeTest)).
			Post("/revision/score", ScoreRevisionHandler(d.Sessions))

		if d.Feed != nil {
			pr.With(rbac.Require(rbac.PermEventsView)).Get("/events", ListEventsHandler(d.Feed))
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", readyHandler(d.DB))
	return r
}

func readyHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, "db: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
	}
}
