package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/adipk/ragdocs/internal/config"
	"github.com/adipk/ragdocs/internal/data/blob"
	"github.com/adipk/ragdocs/internal/data/cache"
	"github.com/adipk/ragdocs/internal/data/sqlstore"
	"github.com/adipk/ragdocs/internal/docsvc"
	"github.com/adipk/ragdocs/internal/handlers"
	"github.com/adipk/ragdocs/internal/rag"
	"github.com/adipk/ragdocs/internal/rag/embedding"
	"github.com/adipk/ragdocs/internal/rag/embedding/localembed"
	"github.com/adipk/ragdocs/internal/rag/embedding/openaiembed"
	"github.com/adipk/ragdocs/internal/rag/embedding/randomembed"
	"github.com/adipk/ragdocs/internal/rag/llm"
	"github.com/adipk/ragdocs/internal/rag/llm/gemini"
	"github.com/adipk/ragdocs/internal/rag/llm/offline"
	"github.com/adipk/ragdocs/internal/rag/search"
	"github.com/adipk/ragdocs/internal/server"
	"github.com/adipk/ragdocs/internal/worker"
	"github.com/adipk/ragdocs/pkg/logx"
	"github.com/joho/godotenv"
)

func main() {
	logx.Init(config.LogLevel)
	logger := logx.New("main")

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using process environment")
	}
	env := config.LoadEnv()

	var listenAddr string
	flag.StringVar(&listenAddr, "listen-addr", env.ListenAddr, "server listen address")
	flag.Parse()

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	store, err := sqlstore.Open(env.DataDir)
	if err != nil {
		logger.Error("Could not open document store", "error", err)
		return
	}
	defer store.Close()

	blobs, err := blob.NewFileStore(env.DataDir)
	if err != nil {
		logger.Error("Could not open blob store", "error", err)
		return
	}

	var answers cache.AnswerCache
	if redisCache, err := cache.NewRedisCache(serviceContext, env.RedisAddr); err != nil {
		logger.Warn("Redis unavailable, answer caching disabled", "error", err)
		answers = cache.NoopCache{}
	} else {
		answers = redisCache
	}

	embedder := selectEmbedder(env, logger)
	completer := selectCompleter(serviceContext, env, logger)

	searcher := search.NewSearcher(store, embedder)
	pipeline := embedding.NewPipeline(store, embedder)
	ragService := rag.NewService(store, pipeline, searcher, completer, answers)

	pool := worker.NewPool(ragService)
	pool.Start()

	documents := docsvc.New(store, blobs, pool)

	srv := server.New(listenAddr,
		handlers.NewDocumentHandler(documents),
		handlers.NewQueryHandler(ragService),
	)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	go srv.ShutDownHandler(server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		Pool:             pool,
		CloseServices:    closeExternalServices,
	})
	go srv.Run()

	<-stopExecution
	logger.Info("Server stopped")
}

// selectEmbedder picks the provider by priority: the external API when a
// key is present, then the deterministic local hash, then random noise.
// EMBEDDING_PROVIDER forces a specific one.
func selectEmbedder(env config.Env, logger *logx.Logger) embedding.Embedder {
	switch env.EmbeddingProvider {
	case "openai":
		client, err := openaiembed.New(env.OpenAIAPIKey)
		if err != nil {
			logger.Error("Requested openai embeddings but the client failed", "error", err)
			return localembed.New()
		}
		return client
	case "local":
		return localembed.New()
	case "random":
		return randomembed.New()
	}

	if env.OpenAIAPIKey != "" {
		if client, err := openaiembed.New(env.OpenAIAPIKey); err == nil {
			logger.Info("Using openai embeddings", "model", config.OpenAIEmbeddingModel)
			return client
		}
	}
	logger.Warn("No embedding API key configured, falling back to local hash embeddings")
	return localembed.New()
}

func selectCompleter(ctx context.Context, env config.Env, logger *logx.Logger) llm.Completer {
	if env.GeminiAPIKey != "" {
		completer, err := gemini.NewCompleter(ctx, env.GeminiAPIKey, config.GeminiModelName)
		if err == nil {
			return completer
		}
		logger.Error("Gemini client failed to initialize", "error", err)
	}
	return offline.New()
}
