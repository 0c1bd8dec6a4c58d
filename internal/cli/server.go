package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"cloudexam-service/internal/bank"
	"cloudexam-service/internal/config"
	"cloudexam-service/internal/game"
	fileloader "cloudexam-service/internal/infra/file"
	"cloudexam-service/internal/infra/memory"
	pgloader "cloudexam-service/internal/infra/postgres"
	redisbank "cloudexam-service/internal/infra/redis"
	transport "cloudexam-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the exam room server",
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

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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

	bankPath := cfg.Bank.Path
	if bankPath == "" {
		bankPath = "questions.json"
	}
	var loader bank.Loader = fileloader.NewLoader(bankPath)
	if pool != nil {
		loader = pgloader.NewBankLoader(pool)
	}

	bankTTL := config.Duration(cfg.Bank.TTL, 10*time.Minute)
	if redisClient != nil {
		loader = redisbank.NewBankRepository(redisClient, loader, bankTTL)
	} else {
		loader = memory.NewBankRepository(loader, bankTTL)
	}

	questionBank, err := bank.Load(ctx, loader)
	if err != nil {
		return err
	}
	log.Printf("loaded %d questions", questionBank.Count())

	registry := game.NewRegistry(questionBank, game.Config{
		QuestionTime:  config.Duration(cfg.Game.QuestionTime, 180*time.Second),
		EndRoundGrace: config.Duration(cfg.Game.EndRoundGrace, 2*time.Second),
		FinishedGrace: config.Duration(cfg.Game.FinishedGrace, 60*time.Second),
	})

	wsHandler := transport.NewWSHandler(registry)
	apiHandler := transport.NewAPIHandler(registry, questionBank)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	apiHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting exam service on :%s", finalPort)
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
