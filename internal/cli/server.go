package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recall-drill/internal/app"
	"recall-drill/internal/config"
	"recall-drill/internal/domain"
	"recall-drill/internal/infra/memory"
	pgstore "recall-drill/internal/infra/postgres"
	redisdeck "recall-drill/internal/infra/redis"
	sheetsinfra "recall-drill/internal/infra/sheets"
	"recall-drill/internal/score"
	transport "recall-drill/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the drill server",
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

	decks, missions, timelog, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}

	deckTTL := config.TTLDuration(cfg.Deck.TTL, 5*time.Minute)
	var cached app.DeckStore
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cached = redisdeck.NewDeckCache(redisClient, decks, deckTTL)
	} else {
		cached = memory.NewDeckCache(decks, deckTTL)
	}

	var scorer app.Scorer = score.LexicalScorer{}
	apiKey := cfg.OpenAI.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey != "" {
		scorer = score.NewRubricGrader(apiKey, cfg.OpenAI.Model)
	}

	drill := app.NewDrillService(cached, scorer)
	missionSvc := app.NewMissionService(missions, timelog)
	wsHandler := transport.NewWSHandler(drill, missionSvc)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting drill service on :%s", finalPort)
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

// buildStores picks deck/mission/time-log backends from config: Google
// Sheets when a token is configured, then a Postgres mirror, then in-memory
// sample data for local runs.
func buildStores(ctx context.Context, cfg config.Config) (app.DeckStore, app.MissionStore, app.TimeLog, error) {
	token := cfg.Sheets.AccessToken
	if token == "" {
		token = os.Getenv("GOOGLE_SHEETS_TOKEN")
	}

	if token != "" && len(cfg.Deck.Catalog) > 0 {
		svc, err := sheetsinfra.NewService(ctx, token)
		if err != nil {
			return nil, nil, nil, err
		}
		catalog := make(map[string]sheetsinfra.DeckRef, len(cfg.Deck.Catalog))
		for id, src := range cfg.Deck.Catalog {
			catalog[id] = sheetsinfra.DeckRef{
				SpreadsheetID: sheetsinfra.SpreadsheetID(src.Sheet),
				Worksheet:     src.Worksheet,
			}
		}
		decks := sheetsinfra.NewDeckStore(svc, catalog)

		var missions app.MissionStore = memory.NewMissionStore(nil)
		var timelog app.TimeLog = memory.NewTimeLogStore()
		if cfg.Sheets.Missions.Sheet != "" {
			missions = sheetsinfra.NewMissionStore(svc, sheetsinfra.SpreadsheetID(cfg.Sheets.Missions.Sheet), cfg.Sheets.Missions.Worksheet)
		}
		if cfg.Sheets.TimeLog.Sheet != "" {
			timelog = sheetsinfra.NewTimeLog(svc, sheetsinfra.SpreadsheetID(cfg.Sheets.TimeLog.Sheet), cfg.Sheets.TimeLog.Worksheet)
		}
		return decks, missions, timelog, nil
	}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, nil, err
		}
		return pgstore.NewDeckStore(pool), memory.NewMissionStore(nil), memory.NewTimeLogStore(), nil
	}

	return memory.NewDeckStore(sampleDecks()), memory.NewMissionStore(nil), memory.NewTimeLogStore(), nil
}

// sampleDecks provides a minimal deck for local runs without a backing store.
func sampleDecks() map[string][]domain.QuestionRecord {
	return map[string][]domain.QuestionRecord{
		"geography": {
			{
				Subject:         "Capitals",
				Question:        "What is the capital of France?",
				ReferenceAnswer: "Paris",
			},
			{
				Subject:         "Rivers",
				Question:        "Which river runs through Cairo?",
				ReferenceAnswer: "The Nile",
			},
		},
	}
}
