package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/pitabwire/frame"
	"github.com/pitabwire/frame/config"
	"github.com/pitabwire/frame/workerpool"

	lbconfig "github.com/amann12/ManageLeave/config"
	bothandler "github.com/amann12/ManageLeave/internal/bot/handler"
	"github.com/amann12/ManageLeave/internal/connectutil"
	"github.com/amann12/ManageLeave/pkg/api"
	"github.com/amann12/ManageLeave/pkg/bot"
	"github.com/amann12/ManageLeave/pkg/catalog"
	"github.com/amann12/ManageLeave/pkg/classifier"
	"github.com/amann12/ManageLeave/pkg/conversation"
	"github.com/amann12/ManageLeave/pkg/events"
	"github.com/amann12/ManageLeave/pkg/registry"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning: reading .env: %v", err)
	}

	cfg, err := config.LoadWithOIDC[lbconfig.LeaveBotConfig](ctx)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	eventRef := cfg.GetEventsQueueName()
	eventURL := cfg.GetEventsQueueURL()

	ctx, srv := frame.NewService(
		frame.WithConfig(&cfg),
		frame.WithName("leavebot"),
		frame.WithDatastore(),
		frame.WithRegisterPublisher(eventRef, eventURL),
		frame.WithWorkerPoolOptions(
			workerpool.WithPoolCount(cfg.WorkerPoolCount),
			workerpool.WithSinglePoolCapacity(cfg.WorkerPoolCapacity),
		),
	)
	defer srv.Stop(ctx)

	pool, err := srv.WorkManager().GetPool()
	if err != nil {
		log.Fatalf("getting worker pool: %v", err)
	}

	pub := events.NewPublisher(srv.QueueManager(), "leavebot", eventRef)
	dbPool := srv.DatastoreManager().GetPool(ctx, "__default__pool_name__")

	// --- Registry ---
	repo := registry.NewRepository(dbPool)
	dbStore := conversation.NewDBStore(dbPool, cfg.ConversationTTL())
	if cfg.MigrateOnStart {
		if err := repo.Migrate(ctx); err != nil {
			log.Fatalf("migrating registry: %v", err)
		}
		if cfg.StateBackend == lbconfig.StateDatabase {
			if err := dbStore.Migrate(ctx); err != nil {
				log.Fatalf("migrating conversation state: %v", err)
			}
		}
	}

	// --- Dialog texts ---
	loader := catalog.NewLoader(cfg.CatalogFile)
	if _, err := loader.Load(); err != nil {
		log.Fatalf("loading catalog: %v", err)
	}
	if err := pool.Submit(ctx, func() {
		if err := loader.WatchAndReload(ctx); err != nil {
			log.Printf("warning: catalog watcher stopped: %v", err)
		}
	}); err != nil {
		log.Printf("warning: catalog watcher not started: %v", err)
	}

	// --- Conversation state ---
	var store conversation.Store
	var reaper conversation.Reaper
	switch cfg.StateBackend {
	case lbconfig.StateDatabase:
		store, reaper = dbStore, dbStore
	default:
		mem := conversation.NewMemoryStore(cfg.ConversationTTL())
		store, reaper = mem, mem
	}
	if err := conversation.StartReaper(ctx, pool, reaper, time.Minute); err != nil {
		log.Printf("warning: conversation reaper not started: %v", err)
	}

	// --- Dialogs ---
	engine, err := bot.New(bot.Deps{
		Recognizer: newRecognizer(&cfg, pub),
		Users:      repo,
		Leaves:     repo,
		IDs:        registry.NewIDGenerator(cfg.UserIDMaxAttempts),
		Catalog:    loader,
		Publisher:  pub,
	})
	if err != nil {
		log.Fatalf("building dialogs: %v", err)
	}
	botHdlr := bothandler.NewBotHandler(engine, store, repo, loader, pub)

	// --- HTTP Mux ---
	mux := http.NewServeMux()
	opts := connectutil.DefaultOptions()
	path, h := api.NewConversationServiceHandler(botHdlr, opts...)
	mux.Handle(path, h)
	path, h = api.NewLeaveServiceHandler(botHdlr, opts...)
	mux.Handle(path, h)

	var handler http.Handler = mux
	if cfg.RequireAuth {
		handler = connectutil.AuthenticatedHTTPMiddleware(mux, srv.SecurityManager().GetAuthenticator(ctx))
	}

	srv.Init(ctx,
		frame.WithRegisterSubscriber(eventRef+".audit", eventURL, events.NewAuditSubscriber()),
		frame.WithHTTPHandler(connectutil.H2CHandler(handler)),
	)

	if err := srv.Run(ctx, ""); err != nil {
		log.Fatalf("service exited: %v", err)
	}
}

func newRecognizer(cfg *lbconfig.LeaveBotConfig, pub *events.Publisher) classifier.Recognizer {
	switch cfg.ClassifierBackend {
	case lbconfig.ClassifierCLU:
		return classifier.NewCLU(classifier.CLUConfig{
			Endpoint:       cfg.CLUEndpoint,
			APIKey:         cfg.CLUAPIKey,
			ProjectName:    cfg.CLUProjectName,
			DeploymentName: cfg.CLUDeploymentName,
			APIVersion:     cfg.CLUAPIVersion,
			Timeout:        cfg.ClassifierTimeout(),
			Breaker: classifier.BreakerConfig{
				FailureThreshold: cfg.CBFailThreshold,
				ResetTimeout:     time.Duration(cfg.CBResetTimeoutSec) * time.Second,
			},
		}, pub)
	case lbconfig.ClassifierOpenAI:
		return classifier.NewOpenAI(classifier.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.ClassifierTimeout(),
		})
	default:
		return classifier.Unconfigured{}
	}
}
