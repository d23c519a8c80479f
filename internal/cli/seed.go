package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/config"
	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/domain"
	pgloader "github.com/naingseiha/Stunity-Enterprise-sub013/internal/infra/postgres"
	"github.com/naingseiha/Stunity-Enterprise-sub013/internal/logger"

	"github.com/jackc/pgx/v4/pgxpool"
)

// NewSeedCmd loads quizzes into Postgres, either from a JSON file passed as
// an argument or the built-in development set.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [quizzes.json]",
		Short: "Seed the quizzes table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}

			quizzes := sampleQuizzes()
			if len(args) == 1 {
				quizzes, err = readQuizFile(args[0])
				if err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			log := logger.New("live-quiz-service")
			store := pgloader.NewQuizLoader(pool)
			for id, quiz := range quizzes {
				if err := store.SaveQuiz(ctx, quiz); err != nil {
					return fmt.Errorf("seed quiz %s: %w", id, err)
				}
				log.Infof("seeded quiz %s (%d questions)", id, len(quiz.Questions))
			}
			return nil
		},
	}
}

func readQuizFile(path string) (map[string]domain.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []domain.Quiz
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	quizzes := make(map[string]domain.Quiz, len(list))
	for _, quiz := range list {
		if quiz.ID == "" {
			return nil, fmt.Errorf("quiz without id in %s", path)
		}
		quizzes[quiz.ID] = quiz
	}
	return quizzes, nil
}
