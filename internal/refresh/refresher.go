// Package refresh wires up the cron job that periodically recomputes the
// offered availability for applications still waiting on a slot choice,
// so new meetings on interviewer calendars invalidate stale offers.
package refresh

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"hireflow/scheduling-service/internal/pipeline"
)

// Refresher wraps robfig/cron and manages the refresh loop.
type Refresher struct {
	cron *cron.Cron
	svc  *pipeline.Service
	spec string // cron spec, e.g. "@every 6h"
}

// New creates a Refresher that fires every intervalHours hours.
func New(svc *pipeline.Service, intervalHours int) *Refresher {
	return &Refresher{
		cron: cron.New(cron.WithLogger(cron.DefaultLogger)),
		svc:  svc,
		spec: fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler. Also runs one refresh
// immediately so offers made before a restart are brought current without
// waiting for the first tick.
func (r *Refresher) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.spec, func() {
		r.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	r.cron.Start()
	log.Printf("[refresh] Cron started — spec: %s", r.spec)

	// Run immediately on startup (non-blocking)
	go r.run(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (r *Refresher) Stop() {
	r.cron.Stop()
	log.Println("[refresh] Cron stopped")
}

func (r *Refresher) run(ctx context.Context) {
	log.Println("[refresh] Availability refresh started")
	if err := r.svc.RefreshAvailability(ctx); err != nil {
		log.Printf("[refresh] Refresh error: %v", err)
		return
	}
	log.Println("[refresh] Availability refresh complete")
}
