package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kindred-ai/kindred/internal/api"
	"github.com/kindred-ai/kindred/internal/completion"
	"github.com/kindred-ai/kindred/internal/config"
	"github.com/kindred-ai/kindred/internal/convo"
	"github.com/kindred-ai/kindred/internal/events"
	"github.com/kindred-ai/kindred/internal/memory"
	"github.com/kindred-ai/kindred/internal/registry"
	"github.com/kindred-ai/kindred/internal/relation"
	"github.com/kindred-ai/kindred/internal/semantic"
	pgstore "github.com/kindred-ai/kindred/internal/store"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting Kindred...")

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/kindred.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	// Completion backend
	completer := completion.NewHTTPClient(completion.Config{
		Endpoint:    cfg.Completion.Endpoint,
		APIKey:      cfg.Completion.APIKey,
		Model:       cfg.Completion.Model,
		Temperature: cfg.Completion.Temperature,
		MaxTokens:   cfg.Completion.MaxTokens,
	}, logger)

	// Core in-process state
	reg := registry.New(logger)
	mem := memory.NewStore(logger)
	if cfg.Memory.HalfLifeHours > 0 {
		mem.SetDecay(memory.DecayConfig{
			HalfLifeHours: cfg.Memory.HalfLifeHours,
			Floor:         memory.DefaultDecay.Floor,
		})
	}

	// PostgreSQL persistence (optional)
	var pg *pgstore.Store
	if cfg.Database.Postgres.DSN != "" {
		ps, pgErr := pgstore.New(cfg.Database.Postgres.DSN, logger)
		if pgErr != nil {
			logger.Warn("PostgreSQL unavailable, running without persistence", zap.Error(pgErr))
		} else {
			if mErr := ps.Migrate(context.Background(), "migrations"); mErr != nil {
				logger.Fatal("migration failed", zap.Error(mErr))
			}
			pg = ps
			reg.SetPersister(pg)
			mem.SetPersister(pg)

			agents, loadErr := pg.LoadAgents(context.Background())
			if loadErr != nil {
				logger.Warn("failed to load agents from DB", zap.Error(loadErr))
			} else {
				for _, a := range agents {
					reg.Load(a)
					recs, memErr := pg.LoadMemories(context.Background(), a.ID)
					if memErr != nil {
						logger.Warn("failed to load memories", zap.String("agent_id", a.ID), zap.Error(memErr))
						mem.Register(a.ID)
						continue
					}
					mem.Restore(a.ID, recs)
				}
				logger.Info("Loaded agents from DB", zap.Int("count", len(agents)))
			}
		}
	}

	// Semantic relevance via embeddings + Qdrant (optional)
	var qdrant *semantic.VectorClient
	if cfg.Embedding.Enabled && cfg.Database.Qdrant.Host != "" {
		qc, qErr := semantic.NewVectorClient(semantic.QdrantConfig{
			Host: cfg.Database.Qdrant.Host,
			Port: cfg.Database.Qdrant.Port,
		})
		if qErr != nil {
			logger.Warn("Qdrant unavailable, using lexical relevance", zap.Error(qErr))
		} else {
			embedder := semantic.NewAPIProvider(semantic.EmbeddingConfig{
				Endpoint:  cfg.Embedding.Endpoint,
				Model:     cfg.Embedding.Model,
				APIKey:    cfg.Embedding.APIKey,
				Dimension: cfg.Embedding.Dimension,
			})
			scorer, sErr := semantic.NewScorer(context.Background(), embedder, qc, logger)
			if sErr != nil {
				logger.Warn("semantic scorer init failed, using lexical relevance", zap.Error(sErr))
				qc.Close()
			} else {
				qdrant = qc
				mem.SetScorer(scorer)
				logger.Info("Semantic relevance enabled")
			}
		}
	}

	// Relationship graph (optional)
	var graph *relation.Graph
	if cfg.Database.Neo4j.URI != "" {
		decay := cfg.Database.Neo4j.DecayRate
		if decay == 0 {
			decay = 0.001
		}
		g, gErr := relation.NewGraph(cfg.Database.Neo4j.URI, cfg.Database.Neo4j.User, cfg.Database.Neo4j.Password, decay, logger)
		if gErr != nil || g.Ping(context.Background()) != nil {
			logger.Warn("Neo4j unavailable, running without relationship graph", zap.Error(gErr))
		} else {
			graph = g
			logger.Info("Relationship graph connected")
		}
	}

	// Event stream (optional)
	var emitter *events.Emitter
	if cfg.Database.Redis.URL != "" {
		em, eErr := events.NewEmitter(cfg.Database.Redis.URL, logger)
		if eErr != nil {
			logger.Warn("Redis unavailable, running without event stream", zap.Error(eErr))
		} else {
			emitter = em
			logger.Info("Event stream connected")
		}
	}

	orch := convo.New(reg, mem, completer, logger)
	if graph != nil {
		orch.SetRelations(graph)
	}
	if emitter != nil {
		orch.SetEmitter(emitter)
	}

	handler := api.NewHandler(reg, mem, orch, logger)

	port := fmt.Sprintf("%d", cfg.Server.Port)
	if port == "0" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("Kindred listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Kindred...")
	ctx := context.Background()
	srv.Shutdown(ctx)
	if emitter != nil {
		emitter.Close()
	}
	if graph != nil {
		graph.Close(ctx)
	}
	if qdrant != nil {
		qdrant.Close()
	}
	if pg != nil {
		pg.Close()
	}
}
