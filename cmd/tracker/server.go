package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/scheduler"
	"github.com/prashanth116-ui/reddit-layoffs-tracker/internal/tracker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	logrus.Info("Starting layoffs tracker")

	schedulerService := scheduler.NewService(cfg, a.service)
	if err := schedulerService.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer schedulerService.Stop()

	var triggered sync.WaitGroup
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      newRouter(ctx, a.service, schedulerService, &triggered),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		stop()
		triggered.Wait()
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}
	triggered.Wait()

	logrus.Info("Server exited")
	return nil
}

func newRouter(ctx context.Context, svc *tracker.Service, sched *scheduler.Service, triggered *sync.WaitGroup) *mux.Router {
	router := mux.NewRouter()

	// Health check endpoint
	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Prometheus metrics
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Last run summary
	router.HandleFunc("/status", statusHandler(svc, sched)).Methods("GET")

	// Manual trigger endpoint
	router.HandleFunc("/trigger", triggerHandler(ctx, svc, triggered)).Methods("POST")

	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Debugf("Failed to write response: %v", err)
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func statusHandler(svc *tracker.Service, sched *scheduler.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"next_run": sched.Next(),
			"running":  svc.Running(),
			"status":   json.RawMessage(svc.GetMetrics()),
		}

		history, err := svc.HistorySummary(r.Context())
		if err != nil {
			logrus.Warnf("Failed to read run history: %v", err)
		} else if history != nil {
			body["history"] = history
		}

		writeJSON(w, http.StatusOK, body)
	}
}

// triggerHandler starts a run in the background. Runs are tracked on triggered
// so shutdown can wait for them.
func triggerHandler(ctx context.Context, svc *tracker.Service, triggered *sync.WaitGroup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc.Running() {
			writeJSON(w, http.StatusConflict, map[string]string{"message": tracker.ErrRunInProgress.Error()})
			return
		}

		triggered.Add(1)
		go func() {
			defer triggered.Done()
			if err := svc.Run(ctx); err != nil {
				logrus.Errorf("Manual tracker run failed: %v", err)
			}
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{"message": "Tracker run triggered"})
	}
}
