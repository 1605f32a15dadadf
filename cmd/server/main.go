// Command server runs the TinyWorld process: one autonomous character on a
// periodic decision cycle, an HTTP inspection API and a websocket feed for
// viewers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ThoBustos/tinyworld"
	"github.com/ThoBustos/tinyworld/config"
	"github.com/ThoBustos/tinyworld/core"
	"github.com/ThoBustos/tinyworld/httpapi"
	"github.com/ThoBustos/tinyworld/logging"
	"github.com/ThoBustos/tinyworld/memory"
	"github.com/ThoBustos/tinyworld/memory/sqlitestore"
	"github.com/ThoBustos/tinyworld/model"
	anthropicmodel "github.com/ThoBustos/tinyworld/model/anthropic"
	openaimodel "github.com/ThoBustos/tinyworld/model/openai"
	"github.com/ThoBustos/tinyworld/sim"
	"github.com/ThoBustos/tinyworld/transport/ws"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to tinyworld.yaml (empty for defaults)")
		logLevel   = flag.String("log_level", "info", "log level: debug, info, warn, error")
		logFormat  = flag.String("log_format", "json", "log format: json or text")
	)
	flag.Parse()

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     parseLogLevel(*logLevel),
		Format:    *logFormat,
		Output:    os.Stdout,
		Component: "server",
	})

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("config load failed", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireCredential(); err != nil {
		logger.Error("missing model credential", "provider", cfg.Model.Provider, "error", err)
		os.Exit(1)
	}

	llm, embedder := buildModel(cfg)

	store, closeStore, err := buildStore(cfg, embedder, logger)
	if err != nil {
		logger.Error("memory store init failed", "backend", cfg.Memory.Backend, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	hub := ws.NewHub(logger)

	world := tinyworld.New(llm, func(o *tinyworld.Options) {
		if cfg.Cycle.Mode == config.ModeEvent {
			o.Mode = sim.ModeEvent
		}
		o.Bounds = core.Bounds{Width: cfg.World.Width, Height: cfg.World.Height}
		o.WindowCapacity = cfg.Cycle.WindowCapacity
		o.MaxDisplacement = cfg.Cycle.MaxDisplacement
		o.MaxReflectionChars = cfg.Cycle.MaxMessageChars
		o.DecisionInterval = cfg.Cycle.DecisionInterval
		o.MemoryStore = store
		o.Broadcaster = hub
		o.Logger = logger
	})

	mux := http.NewServeMux()
	httpapi.New(world, func(o *httpapi.Options) { o.Logger = logger }).Register(mux)
	mux.Handle("GET /ws", hub.Handler(func(o *ws.HandlerOptions) {
		o.Welcome = func() any {
			snap := world.StateSnapshot()
			return map[string]any{
				"character":    world.Identity().Name,
				"character_id": snap.CharacterID,
				"position":     snap.Position,
				"cycle_count":  snap.CycleCount,
			}
		}
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go world.Run(ctx)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
	}()

	logger.Info("tinyworld listening",
		"addr", cfg.ListenAddr,
		"character", world.Identity().Name,
		"provider", cfg.Model.Provider,
		"memory_backend", cfg.Memory.Backend,
		"decision_interval", cfg.Cycle.DecisionInterval)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("tinyworld stopped")
}

func parseLogLevel(level string) logging.LogLevel {
	switch level {
	case "debug":
		return logging.LogLevelDebug
	case "warn":
		return logging.LogLevelWarn
	case "error":
		return logging.LogLevelError
	default:
		return logging.LogLevelInfo
	}
}

// buildModel constructs the configured provider adapter. The OpenAI client is
// reused for embeddings so the sqlite store can rank memories semantically;
// the Anthropic SDK has no embeddings endpoint, so that provider runs with
// keyword-ranked recall.
func buildModel(cfg config.Config) (model.Model, sqlitestore.Embedder) {
	switch cfg.Model.Provider {
	case config.ProviderAnthropic:
		llm := anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.APIKey = cfg.Model.APIKey
			if cfg.Model.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Model.Name)
			}
		})
		return llm, nil
	default:
		client := openaisdk.NewClient(option.WithAPIKey(cfg.Model.APIKey))
		llm := openaimodel.NewModelFromClient(&client, func(o *openaimodel.Options) {
			if cfg.Model.Name != "" {
				o.Model = cfg.Model.Name
			}
		})
		return llm, openaimodel.NewEmbedderFromClient(&client)
	}
}

func buildStore(cfg config.Config, embedder sqlitestore.Embedder, logger logging.Logger) (core.MemoryStore, func(), error) {
	switch cfg.Memory.Backend {
	case config.BackendSQLite:
		store, err := sqlitestore.Open(cfg.Memory.Path, func(o *sqlitestore.Options) {
			o.Embedder = embedder
			o.Logger = logger
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", cfg.Memory.Path, err)
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("memory store close failed", "error", err)
			}
		}, nil
	default:
		return memory.NewInMemoryStore(), func() {}, nil
	}
}
