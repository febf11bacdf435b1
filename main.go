package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"earnings-digest/api/handler"
	"earnings-digest/api/router"
	"earnings-digest/job"
	"earnings-digest/logic/chat"
	"earnings-digest/logic/extract"
	"earnings-digest/logic/ingestion/loaders"
	"earnings-digest/logic/ingestion/parser"
	"earnings-digest/logic/prompt"
	"earnings-digest/logic/schema"
	"earnings-digest/pkg/logger"
	"earnings-digest/service"
	"earnings-digest/storage/postgres"
	"earnings-digest/vars"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ./config.yaml if present)")
	flag.Parse()

	ctx := context.Background()

	// 1. 配置 + 日志
	cfg, err := vars.Load(*configPath)
	if err != nil {
		slog.Error("config.load_failed", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config.invalid", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	if cfg.LLM.Provider == vars.ProviderOpenAI && cfg.LLM.APIKey == "" {
		slog.Warn("config.api_key_missing", "hint", "set EARNINGS_LLM_API_KEY or OPENAI_API_KEY; requests will fail with ConfigMissing")
	}

	// 2. 文档加载
	pdfExtractor, err := parser.NewPDFExtractor(ctx)
	if err != nil {
		slog.Error("pdf.parser_init_failed", "error", err)
		os.Exit(1)
	}
	loader := loaders.NewLoader(loaders.Config{
		MaxBytes: cfg.Server.MaxUploadBytes,
		Policy:   loaders.DefaultScanPolicy(cfg.Ingest.ScannedThreshold),
	}, pdfExtractor)

	// 3. 模型
	contract, err := schema.New()
	if err != nil {
		slog.Error("schema.compile_failed", "error", err)
		os.Exit(1)
	}
	factory, err := chat.NewFactory(cfg.LLM)
	if err != nil {
		slog.Error("llm.factory_failed", "error", err)
		os.Exit(1)
	}
	client := extract.NewClient(extract.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Timeout:  cfg.LLM.Timeout,
	}, factory, contract)

	// 4. 可选的运行流水
	var runs service.RunRecorder
	if cfg.Ledger.DSN != "" {
		db, err := postgres.InitDB(cfg.Ledger.DSN)
		if err != nil {
			slog.Error("ledger.db_failed", "error", err)
			os.Exit(1)
		}
		repo := postgres.NewRunRepo(db)
		runs = repo

		cronJob, err := job.StartCronJob(repo, cfg.Ledger.PruneCron, cfg.Ledger.Retention)
		if err != nil {
			slog.Error("ledger.cron_failed", "error", err)
			os.Exit(1)
		}
		defer cronJob.Stop()
	}

	// 5. Service + Handler
	summarySvc := service.NewSummaryService(loader, prompt.NewBuilder(cfg.Ingest.MaxTextChars), client, runs)
	summaryHandler := handler.NewSummaryHandler(summarySvc, contract.JSON(), cfg.Server.MaxUploadBytes)

	// 6. 启动 Web Server
	gin.SetMode(gin.ReleaseMode)
	r := router.New(summaryHandler)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server.started", "addr", cfg.Server.Addr, "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server.listen_failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server.shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.LLM.Timeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server.shutdown_failed", "error", err)
	}
}
