// hireflow scheduling-service
//
// Interview scheduling and application pipeline for the recruiting stack.
// Exposes a REST API used by the careers gateway to implement:
//   - submit(application)                      — record a new submission
//   - transition(applicationId, targetStatus)  — recruiter stage moves
//   - slots / confirm (token-gated)            — candidate picks an interview time
//   - finalize (token-gated)                   — candidate accepts or declines the offer
//
// On INTERVIEW transition: computes interviewer availability from ICS
// calendar feeds and mails the candidate a tokened scheduling link.
// Publishes stage events to Redis for the gateway's mailer to forward.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hireflow/scheduling-service/internal/calendar"
	"hireflow/scheduling-service/internal/config"
	"hireflow/scheduling-service/internal/db"
	"hireflow/scheduling-service/internal/notify"
	"hireflow/scheduling-service/internal/participants"
	"hireflow/scheduling-service/internal/pipeline"
	"hireflow/scheduling-service/internal/refresh"
	"hireflow/scheduling-service/internal/schedule"
	"hireflow/scheduling-service/internal/securelink"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	_ = godotenv.Load() // optional .env for local runs

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[scheduling-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[scheduling-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[scheduling-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[scheduling-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[scheduling-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[scheduling-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[scheduling-service] Redis connected ✓")

	// ── Interviewer mapping ─────────────────────────────────────────────────
	resolver, err := participants.LoadResolver(cfg.DepartmentsFile)
	if err != nil {
		log.Fatalf("[scheduling-service] Departments: %v", err)
	}

	// ── Service wiring ──────────────────────────────────────────────────────
	svc := pipeline.NewService(
		pipeline.NewPostgresStore(pool),
		schedule.NewStore(pool),
		calendar.NewICSProvider(),
		resolver,
		securelink.NewIssuer(cfg.LinkSecret),
		notify.NewRedisDispatcher(rdb),
		cfg.Timezone,
		cfg.PublicBaseURL,
		cfg.OrganizerEmail,
	)

	// ── Availability refresher ──────────────────────────────────────────────
	refresher := refresh.New(svc, cfg.RefreshIntervalHours)
	if err := refresher.Start(ctx); err != nil {
		log.Fatalf("[scheduling-service] Refresher: %v", err)
	}
	defer refresher.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	pipeline.NewHandler(svc).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[scheduling-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[scheduling-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[scheduling-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[scheduling-service] Shutdown error: %v", err)
	}
	log.Println("[scheduling-service] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "scheduling-service",
		"version": version,
	})
}
