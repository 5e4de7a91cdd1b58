package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"trivia-session-service/internal/app"
	"trivia-session-service/internal/config"
	"trivia-session-service/internal/infra/file"
	"trivia-session-service/internal/infra/memory"
	"trivia-session-service/internal/infra/postgres"
	redisstore "trivia-session-service/internal/infra/redis"
	transport "trivia-session-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
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
	logger := newLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)

	var (
		loader  memory.QuestionLoader = file.NewTaskLoader(cfg.Catalog.Path)
		results app.ResultStore
	)
	if cfg.Postgres.URL != "" {
		db := openBun(cfg.Postgres.URL)
		defer db.Close()
		if err := migrateDB(ctx, db, logger); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		loader = postgres.NewQuestionStore(pool)
		results = postgres.NewResultStore(db)
	} else if redisClient != nil {
		results = redisstore.NewResultStore(redisClient, redisTTL)
	} else {
		results = memory.NewResultStore()
	}

	catalog := memory.NewCatalog(loader)
	counts, err := catalog.Reload(ctx)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded", "total", counts.Total, "categories", len(counts.Categories))

	var rooms app.RoomRepository
	if redisClient != nil {
		rooms = redisstore.NewRoomStore(redisClient, config.TTLDuration(cfg.Game.IdleTimeout, 30*time.Minute), uuid.NewString())
	} else {
		rooms = memory.NewRoomStore()
	}

	recorder := app.NewRecorder(results, logger.With("component", "recorder"))
	service := app.NewGameService(rooms, catalog, recorder, logger, app.Options{
		DefaultRounds: cfg.Game.DefaultRounds,
		CodeAttempts:  cfg.Game.CodeAttempts,
		IdleTimeout:   config.TTLDuration(cfg.Game.IdleTimeout, 30*time.Minute),
		Room: app.RoomOptions{
			MaxPlayers:   cfg.Game.MaxPlayers,
			MinTimeLimit: cfg.Game.MinTimeLimit,
			MaxTimeLimit: cfg.Game.MaxTimeLimit,
			RevealDelay:  config.TTLDuration(cfg.Game.RevealDelay, 5*time.Second),
			Curve:        app.Curve{MaxPoints: cfg.Scoring.MaxPoints, MinPoints: cfg.Scoring.MinPoints},
			Matcher:      app.MatcherByName(cfg.Scoring.Matcher),
		},
	})

	wsHandler := transport.NewWSHandler(service, logger.With("component", "ws"), rate.Limit(cfg.Game.RateLimit), cfg.Game.RateBurst)
	apiHandler := transport.NewAPIHandler(service, logger.With("component", "api"))

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           transport.NewRouter(wsHandler, apiHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting trivia server", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return recorder.Run(gctx)
	})
	g.Go(func() error {
		return service.RunSweeper(gctx, config.TTLDuration(cfg.Game.SweepInterval, time.Minute))
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

