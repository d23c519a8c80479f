package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/app"
	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/config"
	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/domain"
	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/infra/memory"
	pgloader "github.com/naingseiha/Stunity-Enterprise-sub013/internal/infra/postgres"
	redisinfra "github.com/naingseiha/Stunity-Enterprise-sub013/internal/infra/redis"
	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/logger"
	transport "github.com/naingseiha/Stunity-Enterprise-sub013/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the live quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	log := logger.New("live-quiz-service")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
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
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgloader.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	sessionTTL := config.TTLDuration(cfg.Live.SessionTTL, 30*time.Minute)
	sweepInterval := config.TTLDuration(cfg.Live.SweepInterval, time.Minute)

	var store app.SessionRepository
	if redisClient != nil {
		redisStore := redisinfra.NewSessionStore(redisClient, sessionTTL)
		redisStore.StartSweeper(ctx, sweepInterval)
		store = redisStore
	} else {
		memStore := memory.NewSessionStore(sessionTTL)
		memStore.StartSweeper(sweepInterval)
		defer memStore.Stop()
		store = memStore
	}

	opts := app.Options{
		GracePeriod:             config.TTLDuration(cfg.Live.GracePeriod, 2*time.Second),
		DefaultTimeLimitSeconds: cfg.Live.QuestionTime,
		DefaultBasePoints:       cfg.Live.BasePoints,
	}
	if cfg.Live.SpeedBonusMultiplier > 0 {
		opts.Score = app.SpeedBonusScore(cfg.Live.SpeedBonusMultiplier)
	}
	service := app.NewLiveQuizService(store, quizRepo, opts)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	transport.NewHandler(service, log).Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Infof("starting live quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes backs the no-database setup used in local development.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Arithmetic sprint",
			Questions: []domain.Question{
				{
					ID:            "q1",
					Text:          "What is 2 + 2?",
					Type:          domain.QuestionMultipleChoice,
					Options:       []string{"3", "4", "5"},
					CorrectAnswer: "1",
					BasePoints:    100,
				},
				{
					ID:            "q2",
					Text:          "What is 7 * 8?",
					Type:          domain.QuestionMultipleChoice,
					Options:       []string{"54", "56", "64"},
					CorrectAnswer: "1",
					BasePoints:    100,
				},
				{
					ID:            "q3",
					Text:          "Capital of France?",
					Type:          domain.QuestionOther,
					CorrectAnswer: "Paris",
					BasePoints:    100,
				},
			},
		},
	}
}
