package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"cybercrime-portal/pkg/config"
	"cybercrime-portal/pkg/database"
	"cybercrime-portal/pkg/directory"
	"cybercrime-portal/pkg/events"
	"cybercrime-portal/pkg/logger"
	"cybercrime-portal/pkg/middleware"
	"cybercrime-portal/pkg/queue"
	"cybercrime-portal/pkg/response"
)

const notificationQueue = "notifications"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logger.New("notification-service", "info").WithError(err).Warn("Ignoring .env")
	}
	cfg := config.Load("8084")
	log := logger.New("notification-service", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, ch, err := queue.ConnectRabbitMQ(cfg.AMQPURI, "notification-service")
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}
	defer conn.Close()
	defer ch.Close()

	if err := queue.DeclareTopicExchange(ch, events.Exchange); err != nil {
		log.WithError(err).Fatal("Failed to declare event exchange")
	}
	if err := queue.BindQueue(ch, notificationQueue, events.Exchange, "case.*", "evidence.*", "communication.*"); err != nil {
		log.WithError(err).Fatal("Failed to bind notification queue")
	}
	msgs, err := queue.ConsumeMessages(ch, notificationQueue)
	if err != nil {
		log.WithError(err).Fatal("Failed to consume notification queue")
	}
	log.WithField("queue", notificationQueue).Info("Connected to RabbitMQ")

	pg, err := database.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to PostgreSQL")
	}
	users := directory.NewStore(pg)

	middleware.RegisterMetrics("notification-service")
	prometheus.MustRegister(notificationsDelivered, notificationsDropped, connectedClients)

	hub := NewHub(log)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, "Notification Service is healthy", map[string]interface{}{
			"service":           "notification-service",
			"connected_clients": hub.Clients(),
		})
	})
	apiMux.Handle("GET /metrics", middleware.GetMetricsHandler())
	apiHandler := middleware.TraceMiddleware(
		middleware.MetricsMiddleware(
			middleware.LoggerMiddleware(log)(apiMux),
		),
	)

	// Streams stay out of the request metrics: their duration is the
	// connection lifetime.
	subscribe := middleware.TraceMiddleware(&subscribeHandler{
		hub:       hub,
		settings:  users,
		heartbeat: 30 * time.Second,
		log:       log,
	})
	rootMux := http.NewServeMux()
	rootMux.Handle("GET /notifications/subscribe", subscribe)
	rootMux.Handle("GET /subscribe", subscribe)
	rootMux.Handle("/", apiHandler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           rootMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error {
		err := queue.Decode(gctx, msgs, func(ev events.CaseEvent) {
			for _, n := range FromEvent(ev) {
				hub.Publish(gctx, n)
			}
		}, func(err error) {
			log.WithError(err).Warn("Skipping malformed event")
		})
		if err != nil {
			return err
		}
		return errors.New("notification queue closed")
	})
	g.Go(func() error {
		log.WithField("port", cfg.Port).Info("Notification Service running")
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

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("Notification Service stopped with error")
		return
	}
	log.Info("Notification Service stopped")
}
