package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"toiletmap/configs"
	githubstore "toiletmap/internal/blobstore/github"
	"toiletmap/internal/controller/toilet"
	"toiletmap/internal/gateway/geocoding/nominatim"
	httphandler "toiletmap/internal/handler/http"
	"toiletmap/pkg/logging"
	"toiletmap/pkg/metrics"
	"toiletmap/pkg/tracing"
)

const serviceName = "toiletmap"

func main() {
	logConfig := zap.NewProductionConfig()
	log, err := logConfig.Build()
	if err != nil {
		panic(err)
	}
	log = log.With(zap.String(logging.FieldService, serviceName))

	f, err := os.Open("defaults.yaml")
	if err != nil {
		panic(err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn("failed to close file", zap.Error(err))
		}
	}()
	var cfg configs.ServiceConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic(err)
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.Store.Token = token
	}

	log.Info("Starting the service", zap.Int(logging.FieldPort, cfg.API.Port))

	ctx, cancel := context.WithCancel(context.Background())

	if cfg.Tracing.Enabled {
		tp, err := tracing.NewOTLPProvider(ctx, cfg.Tracing.URL, serviceName)
		if err != nil {
			log.Fatal("Failed to initialize trace provider", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Warn("Failed to shutdown trace provider", zap.Error(err))
			}
		}()
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.TraceContext{})
	}

	store := githubstore.New(githubstore.Config{
		Token:   cfg.Store.Token,
		Owner:   cfg.Store.Owner,
		Repo:    cfg.Store.Repo,
		Branch:  cfg.Store.Branch,
		Timeout: cfg.Store.RequestTimeout,
	}, log)

	var geocoder *nominatim.Gateway
	if cfg.Geocoding.Enabled {
		geocoder = nominatim.New(cfg.Geocoding.BaseURL, log)
	}

	scope, closer := metrics.NewMetricsReporter(log, serviceName, cfg.Prometheus.MetricsPort)
	defer func() {
		if err := closer.Close(); err != nil {
			log.Warn("Failed to close Prometheus reporter scope", zap.Error(err))
		}
	}()

	var svc *toilet.Controller
	if geocoder != nil {
		svc = toilet.New(store, geocoder, log)
	} else {
		svc = toilet.New(store, nil, log)
	}
	h := httphandler.New(svc, log, scope)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.API.Port),
		Handler:      h.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s := <-sigChan
		cancel()
		log.Info("Got signal, attempting graceful shutdown", zap.Stringer(logging.FieldSignal, s))
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to shut down the HTTP server", zap.Error(err))
		}
		log.Info("Gracefully stopped the HTTP server")
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
	wg.Wait()
}
