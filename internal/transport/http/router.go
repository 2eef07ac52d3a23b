package http

import (
	"net/http"
	"time"

	"assessment-engine/internal/app"
	"assessment-engine/internal/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultRequestTimeout stays below the server's write timeout so the 504 can
// still be written.
const DefaultRequestTimeout = 10 * time.Second

// RouterConfig carries the pieces NewRouter wires together.
type RouterConfig struct {
	Service     *app.AssessmentService
	Admitter    ratelimit.Admitter
	CORSOrigins []string
	// RequestTimeout bounds /api handlers; zero means DefaultRequestTimeout.
	RequestTimeout time.Duration
}

// NewRouter builds the HTTP surface. Every route except /healthz sits behind
// admission control under its own policy.
func NewRouter(cfg RouterConfig) http.Handler {
	h := NewHandler(cfg.Service)
	ws := NewWSHandler(cfg.Service, cfg.Admitter)
	limit := func(policy string) func(http.Handler) http.Handler {
		return ratelimit.Middleware(cfg.Admitter, policy)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(ar chi.Router) {
		ar.Use(middleware.Timeout(timeout))

		ar.With(limit(ratelimit.PolicyUpload)).Post("/quizzes", h.UploadQuiz)
		ar.Group(func(gr chi.Router) {
			gr.Use(limit(ratelimit.PolicyGeneral))
			gr.Post("/quizzes/{quizID}/submissions", h.SubmitQuiz)
			gr.Post("/grade", h.Grade)
			gr.Get("/users/{userID}/weaknesses", h.UserWeaknesses)
			gr.Post("/weaknesses", h.AnalyzeWeaknesses)
		})
	})

	r.With(limit(ratelimit.PolicyChat)).Get("/ws/practice", ws.ServeWS)
	return r
}
