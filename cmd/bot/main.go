package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/filtra-ar/filtrabot/config"
	"github.com/filtra-ar/filtrabot/internal/delivery/webhook"
	"github.com/filtra-ar/filtrabot/internal/domain/constants"
	"github.com/filtra-ar/filtrabot/internal/domain/repository"
	"github.com/filtra-ar/filtrabot/internal/infrastructure/storage"
	"github.com/filtra-ar/filtrabot/internal/infrastructure/telegramcrm"
	"github.com/filtra-ar/filtrabot/internal/infrastructure/whatsapp"
	"github.com/filtra-ar/filtrabot/internal/usecase"
	"github.com/filtra-ar/filtrabot/pkg/logger"
)

func main() {
	logger.Init()
	logger.InfoLogger.Println("🚀 FiltraBot arrancando...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuración inválida: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: Postgres when a DSN is reachable, in-memory otherwise.
	var (
		sessions repository.SessionRepository
		catalog  repository.CatalogRepository
		topics   telegramcrm.TopicStore
	)
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = storage.BuildPostgresDSNFromEnv()
	}
	if dsn != "" {
		db, err := storage.OpenPostgres(dsn)
		if err != nil {
			log.Fatalf("❌ Postgres no disponible: %v", err)
		}
		defer db.Close()

		sessionStore, err := storage.NewPostgresSessionStore(db)
		if err != nil {
			log.Fatalf("❌ Esquema de sesiones: %v", err)
		}
		catalogStore, err := storage.NewPostgresCatalog(db)
		if err != nil {
			log.Fatalf("❌ Esquema de catálogo: %v", err)
		}
		sessions, catalog, topics = sessionStore, catalogStore, sessionStore
		logger.InfoLogger.Println("✅ Stores listos (Postgres)")
	} else {
		sessionStore := storage.NewMemorySessionStore()
		sessions, catalog, topics = sessionStore, storage.NewMemoryCatalog(), sessionStore
		logger.InfoLogger.Println("⚠️ Sin DSN de Postgres: stores en memoria (solo dev)")
	}

	messenger := whatsapp.NewClient(cfg.MetaToken, cfg.PhoneNumberID)

	var mirror repository.OperatorLog = telegramcrm.Disabled{}
	var crm *telegramcrm.CRM
	if cfg.TelegramToken != "" {
		crm, err = telegramcrm.New(cfg.TelegramToken, cfg.AdminGroupID, topics, sessions, messenger)
		if err != nil {
			log.Fatalf("❌ CRM de Telegram: %v", err)
		}
		mirror = crm
	} else {
		logger.InfoLogger.Println("⚠️ Sin token de Telegram: espejo CRM desactivado")
	}

	parserOpts, err := usecase.LoadParserOptions(cfg.SynonymsFile)
	if err != nil {
		log.Fatalf("❌ Archivo de sinónimos: %v", err)
	}
	parser := usecase.NewQueryParser(parserOpts)

	window, err := usecase.NewEventWindow(constants.DedupWindowSize, constants.EventStaleness)
	if err != nil {
		log.Fatalf("❌ Ventana de deduplicación: %v", err)
	}

	engine := usecase.NewConversationUseCase(sessions, catalog, messenger, mirror, parser, window)
	handler := webhook.NewHandler(cfg.VerifyToken, webhook.NewDispatcher(engine))

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoLogger.Printf("🌐 Webhook escuchando en %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if crm != nil {
		g.Go(func() error {
			if err := crm.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	logger.InfoLogger.Println("🤖 Bot en marcha. Ctrl+C para detener.")
	if err := g.Wait(); err != nil {
		log.Fatalf("❌ Error fatal: %v", err)
	}
	logger.InfoLogger.Println("✅ Bot detenido.")
}
