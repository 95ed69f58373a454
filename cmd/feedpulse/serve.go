package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/HSMDove/feedpulse/internal/config"
	"github.com/HSMDove/feedpulse/internal/fetch"
	"github.com/HSMDove/feedpulse/internal/fetcher"
	"github.com/HSMDove/feedpulse/internal/folder"
	"github.com/HSMDove/feedpulse/internal/notifier"
	"github.com/HSMDove/feedpulse/internal/reporter"
	"github.com/HSMDove/feedpulse/internal/scheduler"
	"github.com/HSMDove/feedpulse/internal/storage"
	"github.com/HSMDove/feedpulse/internal/summary"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the background scheduler and status endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg := config.Get()

	db, err := sqlx.Connect("postgres", cfg.DatabaseDSN)
	if err != nil {
		log.Printf("[ERROR] failed to connect to db: %v", err)
		return err
	}
	defer db.Close()

	if err := storage.Migrate(db); err != nil {
		log.Printf("[ERROR] failed to migrate db: %v", err)
		return err
	}

	var (
		folderStorage  = storage.NewFolderStorage(db)
		sourceStorage  = storage.NewSourceStorage(db)
		contentStorage = storage.NewContentStorage(db)
		client         = fetch.NewClient(cfg.HTTPTimeout, cfg.RequestsPerSec)
		orchestrator   = fetcher.New(client, cfg.FilterKeywords, cfg.FetchConcurrency)
	)

	var bot *tgbotapi.BotAPI
	if cfg.TelegramBotToken != "" {
		bot, err = tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			log.Printf("[ERROR] failed to create telegram bot: %v", err)
			return err
		}
	}

	var enricher folder.Enricher
	if summarizer := buildSummarizer(cfg); summarizer != nil {
		enricher = summary.NewEnricher(contentStorage, summarizer, nil, cfg.HTTPTimeout)
	}

	var notif folder.Notifier
	switch cfg.NotifierType {
	case "telegram":
		if bot == nil {
			log.Printf("[ERROR] telegram_bot_token is required when notifier_type is \"telegram\"")
			return errors.New("telegram bot token missing")
		}
		notif = notifier.NewTelegramNotifier(bot, cfg.TelegramChannelID, contentStorage)
		log.Printf("[INFO] using telegram notifier (channel %d)", cfg.TelegramChannelID)
	default:
		notif = notifier.NewWebhookNotifier(cfg.WebhookURL, contentStorage, cfg.HTTPTimeout)
		log.Printf("[INFO] using webhook notifier")
	}

	coordinator := folder.New(folderStorage, sourceStorage, contentStorage, orchestrator, enricher, notif)
	sched := scheduler.New(struct {
		*storage.FolderStorage
		*storage.SourceStorage
	}{folderStorage, sourceStorage}, coordinator, reporter.New(bot, cfg.TelegramAdminChatID), cfg.TickInterval)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sched.Start(ctx)
	defer sched.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(sched.Snapshot()); err != nil {
			log.Printf("[ERROR] failed to encode status: %v", err)
		}
	})

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] failed to run http server: %v", err)
		}
	}()

	log.Printf("[INFO] feedpulse serving on %s", cfg.ListenAddr)
	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

func buildSummarizer(cfg config.Config) summary.Summarizer {
	switch cfg.AIType {
	case "openai":
		if cfg.AIKey == "" {
			log.Printf("[INFO] ai_key not set, enrichment disabled")
			return nil
		}
		log.Printf("[INFO] using OpenAI-compatible summarizer (model: %s)", cfg.AIModel)
		return summary.NewOpenAISummarizer(cfg.AIBaseURL, cfg.AIKey, cfg.AIPrompt, cfg.AIModel)
	case "ollama":
		if cfg.AIBaseURL == "" {
			log.Printf("[INFO] ai_base_url not set, enrichment disabled")
			return nil
		}
		log.Printf("[INFO] using Ollama summarizer (model: %s)", cfg.AIModel)
		return summary.NewOllamaSummarizer(cfg.AIBaseURL, cfg.AIPrompt, cfg.AIModel)
	default:
		return nil
	}
}
