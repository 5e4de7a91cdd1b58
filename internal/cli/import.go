package cli

import (
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
	"trivia-session-service/internal/config"
	"trivia-session-service/internal/infra/file"
	"trivia-session-service/internal/infra/postgres"
)

// NewImportCmd copies a task file into the questions table.
func NewImportCmd(configPath *string) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a task file (JSON or YAML) into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Log.Level)
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			if path == "" {
				path = cfg.Catalog.Path
			}

			questions, err := file.NewTaskLoader(path).LoadQuestions(ctx)
			if err != nil {
				return err
			}
			if len(questions) == 0 {
				return fmt.Errorf("no questions found in %s", path)
			}

			if err := runMigrations(ctx, cfg, logger); err != nil {
				return err
			}
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			n, err := postgres.NewQuestionStore(pool).ImportQuestions(ctx, questions)
			if err != nil {
				return err
			}
			logger.Info("questions imported", "count", n, "file", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "task file to import (defaults to catalog.path)")
	return cmd
}
