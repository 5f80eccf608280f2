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

const dispatchQueue = "case_dispatch"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logger.New("dispatcher-service", "info").WithError(err).Warn("Ignoring .env")
	}
	cfg := config.Load("8083")
	log := logger.New("dispatcher-service", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := LoadRoutingTable(cfg.RoutingFile)
	if err != nil {
		log.WithError(err).Fatal("Failed to load routing table")
	}
	log.WithField("version", table.Version).WithField("sha256", table.SHA256).Info("Routing table loaded")

	pg, err := database.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to PostgreSQL")
	}
	officers := directory.NewStore(pg)

	conn, ch, err := queue.ConnectRabbitMQ(cfg.AMQPURI, "dispatcher-service")
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}
	defer conn.Close()
	defer ch.Close()

	if err := queue.DeclareTopicExchange(ch, events.Exchange); err != nil {
		log.WithError(err).Fatal("Failed to declare event exchange")
	}
	if err := queue.BindQueue(ch, dispatchQueue, events.Exchange, events.CaseCreated); err != nil {
		log.WithError(err).Fatal("Failed to bind dispatch queue")
	}
	msgs, err := queue.ConsumeMessages(ch, dispatchQueue)
	if err != nil {
		log.WithError(err).Fatal("Failed to consume dispatch queue")
	}
	log.WithField("queue", dispatchQueue).Info("Connected to RabbitMQ")

	middleware.RegisterMetrics("dispatcher-service")
	prometheus.MustRegister(casesDispatched)

	dispatcher := NewDispatcher(table, officers, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, "Dispatcher Service is healthy", map[string]string{
			"service": "dispatcher-service",
			"routing": table.Version,
		})
	})
	mux.Handle("GET /metrics", middleware.GetMetricsHandler())
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.TraceMiddleware(middleware.MetricsMiddleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := queue.Decode(gctx, msgs, func(ev events.CaseEvent) {
			dispatcher.Handle(gctx, ev)
		}, func(err error) {
			log.WithError(err).Warn("Skipping malformed event")
		})
		if err != nil {
			return err
		}
		return errors.New("dispatch queue closed")
	})
	g.Go(func() error {
		log.WithField("port", cfg.Port).Info("Dispatcher Service running")
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
		log.WithError(err).Error("Dispatcher Service stopped with error")
		return
	}
	log.Info("Dispatcher Service stopped")
}
