package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"orderboard_agent/internal/config"
	"orderboard_agent/internal/executor"
	"orderboard_agent/internal/language"
	"orderboard_agent/internal/llm"
	"orderboard_agent/internal/logger"
	"orderboard_agent/internal/memory"
	"orderboard_agent/internal/nodes"
	"orderboard_agent/internal/orchestrator"
	"orderboard_agent/internal/server"
	"orderboard_agent/internal/transcript"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// .env is optional; environment variables may be set externally.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := logger.InitLogger(cfg.Log); err != nil {
		logger.Fatal().Err(err).Msg("failed to init logger")
	}

	env, err := config.LoadEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load environment")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The pipeline stages run at different temperatures: deterministic for
	// classification and extraction, warmer for small talk and insights.
	baseModel, err := llm.NewChatModel(ctx, cfg.Model, env.OpenAIAPIKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create chat model")
	}

	smallTalkCfg := cfg.Model
	smallTalkCfg.Temperature = cfg.Model.SmallTalkTemperature
	smallTalkModel, err := llm.NewChatModel(ctx, smallTalkCfg, env.OpenAIAPIKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create small talk model")
	}

	insightCfg := cfg.Model
	insightCfg.Temperature = cfg.Model.InsightTemperature
	insightModel, err := llm.NewChatModel(ctx, insightCfg, env.OpenAIAPIKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create insight model")
	}

	detector := language.NewDetector()

	sink := buildTranscriptSink(ctx, cfg.Transcript, env.RedisURL)
	defer sink.Close()

	pipeline := orchestrator.New(orchestrator.Options{
		Classifier:  nodes.NewIntentClassifier(baseModel),
		Rewriter:    nodes.NewQueryRewriter(baseModel, detector),
		Extractor:   nodes.NewArgumentExtractor(baseModel),
		Insights:    nodes.NewInsightGenerator(insightModel),
		SmallTalk:   nodes.NewSmallTalkResponder(smallTalkModel),
		Speech:      nodes.NewTranscriptCleaner(baseModel),
		Executor:    executor.NewHTTPClient(env.BackendURL),
		Memory:      memory.NewConversationMemory(2 * cfg.Pipeline.MemoryPairs),
		Transcripts: sink,
		MemoryPairs: cfg.Pipeline.MemoryPairs,
		TerseTokens: cfg.Pipeline.TersePromptTokens,
	})

	srv := server.New(cfg.Server, pipeline, env.BackendURL)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Fatal().Err(err).Msg("agent server failed")
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
}

func buildTranscriptSink(ctx context.Context, cfg config.TranscriptConfig, redisURL string) transcript.Sink {
	switch cfg.Sink {
	case "redis":
		if redisURL == "" {
			logger.Warn().Msg("transcript sink is redis but REDIS_URL is unset, disabling transcripts")
			return transcript.NopSink{}
		}
		sink, err := transcript.NewRedisSink(ctx, redisURL, cfg.RedisKey)
		if err != nil {
			logger.Warn().Err(err).Msg("redis transcript sink unavailable, disabling transcripts")
			return transcript.NopSink{}
		}
		return sink
	case "csv":
		return transcript.NewCSVSink(cfg.CSVPath)
	default:
		return transcript.NopSink{}
	}
}
