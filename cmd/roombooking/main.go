package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/availability"
	"github.com/example/room-booking/internal/config"
	"github.com/example/room-booking/internal/events"
	httptransport "github.com/example/room-booking/internal/http"
	"github.com/example/room-booking/internal/logging"
	"github.com/example/room-booking/internal/persistence/memory"
	"github.com/example/room-booking/internal/persistence/sqlite"
	"github.com/example/room-booking/internal/recurrence"
	"github.com/example/room-booking/internal/roomlock"
	"github.com/example/room-booking/internal/storage"
)

func main() {
	logger := logging.New(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.LogLevel != slog.LevelInfo {
		logger = logging.New(os.Stdout, cfg.LogLevel)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("room booking service stopped", "error", err)
		os.Exit(1)
	}
}

// run serves the API until ctx is cancelled and then drains in-flight requests.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("room booking API listening", "addr", server.Addr, "storage", cfg.Storage, "lock_backend", cfg.LockBackend)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server encountered error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	logger.Info("room booking API stopped")
	return nil
}

// app is the wired service: the HTTP handler plus every resource it must release.
type app struct {
	Handler http.Handler

	logger  *slog.Logger
	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

func (a *app) onClose(name string, fn func() error) {
	a.closers = append(a.closers, namedCloser{name: name, close: fn})
}

// Close releases resources in reverse acquisition order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.logger.Error("failed to close resource", "resource", c.name, "error", err)
		}
	}
	a.closers = nil
}

// newApp opens storage, the room locker and the event publisher described by cfg and wires
// the services and HTTP routes over them.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	backend, err := openBackend(ctx, cfg, logger, a)
	if err != nil {
		return nil, err
	}
	locker, err := newLocker(ctx, cfg, logger, a)
	if err != nil {
		return nil, err
	}
	publisher, err := newPublisher(cfg, logger, a)
	if err != nil {
		return nil, err
	}

	repos := storage.New(backend)
	now := time.Now
	audit := application.NewAuditTrail(repos.Audit, newEventPublisherAdapter(publisher), uuid.NewString, now, logger)

	roomService := application.NewRoomServiceWithLogger(repos.Rooms, audit, uuid.NewString, now, logger)
	bookingService := application.NewBookingService(application.BookingServiceDeps{
		Rooms:        repos.Rooms,
		Requests:     repos.Requests,
		Locker:       locker,
		Audit:        audit,
		Engine:       recurrence.NewEngine(cfg.MaxOccurrences),
		Window:       availability.Window{StartHour: cfg.OpenHour, EndHour: cfg.CloseHour},
		GridCacheTTL: gridCacheTTL(cfg),
		IDGenerator:  uuid.NewString,
		Now:          now,
		Logger:       logger,
	})
	analyticsService := application.NewAnalyticsServiceWithLogger(repos.Stats, repos.Audit, logger)

	a.Handler = httptransport.NewRouter(httptransport.RouterConfig{
		Rooms:     httptransport.NewRoomHandler(roomService, logger),
		Requests:  httptransport.NewRequestHandler(bookingService, logger),
		Analytics: httptransport.NewAnalyticsHandler(analyticsService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.Recover(logger),
			httptransport.RequestLogger(logger),
			httptransport.RequireActor(logger),
		},
	})
	return a, nil
}

func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger, a *app) (storage.Backend, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		store := memory.New()
		a.onClose("memory storage", store.Close)
		return store, nil
	}

	store, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	a.onClose("sqlite storage", store.Close)

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return store, nil
}

// gridCacheTTL disables the in-process grid cache when instances share a redis lock, since
// writes on one instance cannot invalidate another's cache.
func gridCacheTTL(cfg config.Config) time.Duration {
	if cfg.LockBackend == config.LockRedis {
		return -1
	}
	return 0
}

func newLocker(ctx context.Context, cfg config.Config, logger *slog.Logger, a *app) (application.RoomLocker, error) {
	if cfg.LockBackend != config.LockRedis {
		return roomlock.NewLocalLocker(), nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	a.onClose("redis client", rdb.Close)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
	}
	return roomlock.NewRedisLocker(rdb, roomlock.RedisConfig{TTL: cfg.LockTTL}, logger), nil
}

func newPublisher(cfg config.Config, logger *slog.Logger, a *app) (events.Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.Noop{}, nil
	}

	publisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}
	a.onClose("kafka publisher", publisher.Close)
	logger.Info("publishing audit events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return publisher, nil
}
