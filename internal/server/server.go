package server

import (
	"context"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"notification-service/internal/config"
	"notification-service/internal/dispatch"
	"notification-service/internal/events"
	hrest "notification-service/internal/handler/http"
	wshandler "notification-service/internal/handler/ws"
	"notification-service/internal/repository"
	"notification-service/internal/repository/postgres"
	"notification-service/internal/repository/sqlite"
	"notification-service/internal/router"
	"notification-service/internal/scheduler"
	"notification-service/internal/strategy"
	"notification-service/internal/transport"
	"notification-service/internal/usecase"
	"notification-service/pkg/id"
	ws "notification-service/pkg/notifier/ws"
	"notification-service/pkg/template"
)

// NewServer wires the full service and returns the HTTP server plus
// the dispatch scheduler for the caller to run. Background goroutines
// (ws heartbeat) stop when ctx is cancelled.
func NewServer(ctx context.Context, cfg config.AppConfig) (*http.Server, *scheduler.Scheduler) {
	// --- Store ---
	store := openStore(cfg)

	// --- ID generator ---
	ids := id.NewGenerator()

	// --- Redis (rate limiting + scan leader lease) ---
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       0,
		})
	}

	// --- WS manager and handler ---
	wsManager := ws.NewManager()
	go wsManager.Heartbeat(ctx, 30*time.Second)
	wsHandler := wshandler.NewWSHandler(wsManager)

	// --- Channel transports ---
	var pushGateway transport.PushGateway = transport.LogPushGateway{}
	if cfg.PushGatewayURL != "" {
		pushGateway = transport.NewHTTPPushGateway(cfg.PushGatewayURL)
	}
	emailSender := transport.NewLogSender("Email")
	if cfg.EmailRelayURL != "" {
		emailSender = transport.NewRelaySender(cfg.EmailRelayURL)
	}
	smsSender := transport.NewLogSender("SMS")
	if cfg.SMSRelayURL != "" {
		smsSender = transport.NewRelaySender(cfg.SMSRelayURL)
	}
	senders := &transport.Senders{
		Push:  transport.WithBreaker("push", transport.NewPushSender(store.PushTokens(), pushGateway)),
		Email: transport.WithBreaker("email", emailSender),
		SMS:   transport.WithBreaker("sms", smsSender),
	}

	// --- Templates ---
	tmplService := template.NewService(
		filepath.Join(cfg.TemplateDir, "email"),
		filepath.Join(cfg.TemplateDir, "sms"),
		filepath.Join(cfg.TemplateDir, "push"),
	)

	// --- Strategies ---
	deliverer := strategy.NewDeliverer(senders, tmplService, wsManager)
	registry, err := strategy.DefaultRegistry(deliverer)
	if err != nil {
		log.Fatalf("failed to build strategy registry: %v", err)
	}

	// --- Event publisher (optional) ---
	var publisher *events.Publisher
	if cfg.AMQPUrl != "" {
		publisher, err = events.NewPublisher(cfg.AMQPUrl)
		if err != nil {
			log.Fatalf("failed to connect to AMQP broker: %v", err)
		}
	}

	// --- Scheduler ---
	resolver := dispatch.NewPreferenceResolver(store.Preferences())
	var lease scheduler.Lease
	if rdb != nil {
		lease = scheduler.NewRedisLease(rdb, "notification:scan:leader", cfg.ScanInterval)
	}
	sched := scheduler.New(store.Notifications(), resolver, registry, publisher, lease, scheduler.Config{
		Interval:   cfg.ScanInterval,
		ClaimLease: cfg.ClaimLease,
		Workers:    cfg.WorkerCount,
		Batch:      cfg.ScanBatch,
	})

	// --- Usecases ---
	uc := usecase.NewNotificationUsecase(store, registry, ids)

	// --- Handlers ---
	restHandler := hrest.NewNotificationHandler(uc)

	// --- HTTP routes ---
	r := chi.NewRouter()
	router.SetupRoutes(r, restHandler, wsHandler, cfg.JWTSecret, rdb)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}, sched
}

func openStore(cfg config.AppConfig) repository.Store {
	switch cfg.StoreDriver {
	case "sqlite":
		store, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open sqlite store: %v", err)
		}
		return store
	default:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		return store
	}
}
