package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jaybesin/logistics-console/internal/auth"
	"github.com/jaybesin/logistics-console/internal/catalog"
	"github.com/jaybesin/logistics-console/internal/config"
	"github.com/jaybesin/logistics-console/internal/db"
	"github.com/jaybesin/logistics-console/internal/events"
	"github.com/jaybesin/logistics-console/internal/handlers"
	"github.com/jaybesin/logistics-console/internal/models"
	"github.com/jaybesin/logistics-console/internal/workflow"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
	mqttTimeout       = 5 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.SetupLogging(); err != nil {
		log.WithError(err).Fatal("Failed to configure logging")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, nil); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
	log.Info("Server stopped")
}

// backend is the persistence the server runs on.
type backend struct {
	store db.Store
	users db.UserCollection
	close func(context.Context) error
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	if cfg.Store == config.StoreMemory {
		log.Warn("Using the in-memory store; data is lost on restart")
		return &backend{
			store: db.NewMemoryStore(db.WithWriteTimeout(cfg.WriteTimeout)),
			users: db.NewMemoryUserCollection(),
			close: func(context.Context) error { return nil },
		}, nil
	}

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")
	store := db.NewMongoStore(client, cfg.MongoDB, db.WithWriteTimeout(cfg.WriteTimeout))
	return &backend{store: store, users: store.Users(), close: client.Disconnect}, nil
}

// openDispatcher builds the notification fan-out. Unconfigured or unreachable
// brokers fall back to Noop so the console keeps working without them.
func openDispatcher(cfg config.Config) *events.Dispatcher {
	var notifications, status events.Publisher = events.Noop{}, events.Noop{}

	if len(cfg.KafkaBrokers) > 0 {
		notifications = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.WithFields(log.Fields{"brokers": cfg.KafkaBrokers, "topic": cfg.KafkaTopic}).Info("Notification jobs go to Kafka")
	}
	if cfg.MQTTBroker != "" {
		p, err := events.ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientID, mqttTimeout)
		if err != nil {
			log.WithError(err).Warn("MQTT unavailable; status broadcasts disabled")
		} else {
			status = p
		}
	}
	return events.NewDispatcher(notifications, status, events.DefaultDispatchTimeout)
}

// trackedSettings serves the live settings, pinning the tracking domain when
// TRACK_DOMAIN is set.
type trackedSettings struct {
	view   workflow.SettingsProvider
	domain string
}

func (t trackedSettings) Settings() models.Settings {
	s := t.view.Settings()
	if t.domain != "" {
		s.TrackingDomain = t.domain
	}
	return s
}

func bootstrapSuperAdmin(ctx context.Context, cfg config.Config, svc *auth.Service, users db.UserCollection) error {
	if cfg.SuperAdminEmail == "" || cfg.SuperAdminPassword == "" {
		return nil
	}
	hash, err := svc.HashPassword(cfg.SuperAdminPassword)
	if err != nil {
		return err
	}
	created, err := db.EnsureSuperAdmin(ctx, users, cfg.SuperAdminEmail, hash)
	if err != nil {
		return err
	}
	if created {
		log.WithField("email", cfg.SuperAdminEmail).Info("Created bootstrap super admin")
	}
	return nil
}

// run serves until ctx is done. When ln is nil it listens on cfg.Port.
func run(ctx context.Context, cfg config.Config, ln net.Listener) error {
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := b.close(closeCtx); err != nil {
			log.WithError(err).Warn("Failed to close store")
		}
	}()

	if cfg.JWTSecret == config.DefaultJWTSecret {
		log.Warn("JWT_SECRET is not set; using the development default")
	}
	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return err
	}
	if err := bootstrapSuperAdmin(ctx, cfg, authService, b.users); err != nil {
		return fmt.Errorf("bootstrap super admin: %w", err)
	}

	dispatcher := openDispatcher(cfg)
	defer func() {
		if err := dispatcher.Close(); err != nil {
			log.WithError(err).Warn("Failed to close publishers")
		}
	}()

	view := catalog.New(b.store)
	controller := workflow.NewController(b.store,
		trackedSettings{view: view, domain: cfg.TrackDomain},
		workflow.WithNotifier(dispatcher))

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: handlers.NewRouter(handlers.Deps{
			Store:      b.store,
			Users:      b.users,
			View:       view,
			Controller: controller,
			Auth:       authService,
			RateLimit:  cfg.RateLimit,
		}),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := view.Run(gctx); err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-view.Ready():
		case <-gctx.Done():
			return nil
		}
		log.WithFields(log.Fields{"port": cfg.Port, "store": cfg.Store}).Info("HTTP server listening")
		var serveErr error
		if ln != nil {
			serveErr = srv.Serve(ln)
		} else {
			serveErr = srv.ListenAndServe()
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return serveErr
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
