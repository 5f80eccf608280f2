package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"cybercrime-portal/pkg/config"
	"cybercrime-portal/pkg/database"
	"cybercrime-portal/pkg/directory"
	"cybercrime-portal/pkg/events"
	"cybercrime-portal/pkg/logger"
	"cybercrime-portal/pkg/middleware"
	"cybercrime-portal/pkg/queue"
	"cybercrime-portal/services/case-service/lifecycle"
	"cybercrime-portal/services/case-service/repository"
	"cybercrime-portal/services/case-service/storage"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logger.New("case-service", "info").WithError(err).Warn("Ignoring .env")
	}
	cfg := config.Load("8082")
	log := logger.New("case-service", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB, "case-service")
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer db.Client().Disconnect(context.Background())

	store := repository.NewMongoStore(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Fatal("Failed to create case indexes")
	}
	log.Info("Connected to MongoDB")

	conn, ch, err := queue.ConnectRabbitMQ(cfg.AMQPURI, "case-service")
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}
	defer conn.Close()
	defer ch.Close()
	if err := queue.DeclareTopicExchange(ch, events.Exchange); err != nil {
		log.WithError(err).Fatal("Failed to declare event exchange")
	}
	log.Info("Connected to RabbitMQ")

	blobs, err := storage.Connect(ctx, cfg.MinIO)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MinIO")
	}
	log.WithField("bucket", cfg.MinIO.Bucket).Info("Connected to MinIO")

	pg, err := database.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to PostgreSQL")
	}
	officers := directory.NewStore(pg)
	if err := officers.Migrate(ctx); err != nil {
		log.WithError(err).Fatal("Failed to migrate user directory")
	}
	log.Info("Connected to user directory")

	manager := lifecycle.NewManager(store,
		lifecycle.WithPublisher(queue.NewPublisher(ch, events.Exchange)),
		lifecycle.WithOfficerDirectory(officers),
		lifecycle.WithLogger(log),
	)

	middleware.RegisterMetrics("case-service")
	lifecycle.RegisterMetrics()

	proxies, err := parseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.WithError(err).Fatal("Invalid TRUSTED_PROXIES")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newServer(manager, blobs, proxies, log).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("port", cfg.Port).Info("Case Service running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Case Service stopped with error")
		return
	}
	log.Info("Case Service stopped")
}
