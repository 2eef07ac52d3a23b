package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"assessment-engine/internal/app"
	"assessment-engine/internal/assessment"
	"assessment-engine/internal/config"
	"assessment-engine/internal/domain"
	"assessment-engine/internal/infra/memory"
	"assessment-engine/internal/infra/postgres"
	redisstore "assessment-engine/internal/infra/redis"
	"assessment-engine/internal/ratelimit"
	transport "assessment-engine/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the assessment HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	historyTTL := config.TTLDuration(cfg.Redis.TTL, 30*24*time.Hour)

	var (
		pool *pgxpool.Pool
		db   *bun.DB
	)
	if cfg.Postgres.URL != "" {
		db = openDB(cfg.Postgres.URL)
		defer db.Close()
		if err := migrateDB(ctx, db); err != nil {
			return err
		}
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = postgres.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var results app.ResultStore
	switch {
	case db != nil:
		results = postgres.NewResultStore(db)
	case redisClient != nil:
		results = redisstore.NewResultStore(redisClient, historyTTL)
	default:
		results = memory.NewResultStore()
	}

	limiter := ratelimit.NewLimiter(cfg.Policies())
	var admitter ratelimit.Admitter = limiter
	if cfg.RateLimit.Backend == "redis" {
		if redisClient == nil {
			log.Printf("ratelimit backend redis requested without redis.addr; using in-process limiter")
		} else {
			admitter = redisstore.NewAdmissionStore(redisClient, limiter)
		}
	}

	service := app.NewAssessmentService(quizRepo, results, assessment.NewEvaluator(cfg.EvaluatorOptions()...))
	const writeTimeout = 15 * time.Second
	router := transport.NewRouter(transport.RouterConfig{
		Service:        service,
		Admitter:       admitter,
		CORSOrigins:    cfg.CORS.Origins,
		RequestTimeout: writeTimeout - 5*time.Second,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
	}

	go func() {
		log.Printf("starting assessment engine on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes seeds the static loader when no Postgres URL is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"sql-basics": {
			ID:    "sql-basics",
			Title: "SQL basics",
			Questions: []domain.Question{
				{
					ID:              "q1",
					Type:            domain.QuestionSingleChoice,
					Prompt:          "Which clause filters grouped rows?",
					Options:         []string{"WHERE", "HAVING", "ORDER BY"},
					CanonicalAnswer: domain.SingleAnswer("HAVING"),
					Topic:           "aggregation",
				},
				{
					ID:              "q2",
					Type:            domain.QuestionBoolean,
					Prompt:          "A primary key column may contain NULL.",
					CanonicalAnswer: domain.SingleAnswer("false"),
					Topic:           "constraints",
				},
				{
					ID:              "q3",
					Type:            domain.QuestionMultiChoice,
					Prompt:          "Which statements modify data?",
					Options:         []string{"SELECT", "INSERT", "UPDATE", "EXPLAIN"},
					CanonicalAnswer: domain.AnswerSet("INSERT", "UPDATE"),
					Topic:           "dml",
				},
				{
					ID:              "q4",
					Type:            domain.QuestionFreeText,
					Prompt:          "What does an index trade write speed for?",
					CanonicalAnswer: domain.SingleAnswer("faster read queries"),
					Topic:           "indexes",
				},
			},
		},
	}
}
