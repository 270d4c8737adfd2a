// Package cleanup runs the periodic sweep that stops and deletes idle
// games, grounded on the teacher's StartExpiryChecker/checkExpiredGames
// ticker (manager.go) and StartIdleWorker's Redis-sorted-set poll
// (idle_worker.go).
package cleanup

import (
	"context"
	"log"
	"time"

	"github.com/playrachel/engine/internal/clock"
	"github.com/playrachel/engine/internal/registry"
	"github.com/playrachel/engine/internal/store"
)

const sweepInterval = 5 * time.Minute

// Worker periodically stops engines for games idle past their
// per-status threshold and deletes their persisted rows.
type Worker struct {
	st         store.Store
	supervisor *registry.Supervisor
	clk        clock.Clock
	thresholds store.IdleThresholds
	stop       chan struct{}
}

// New builds a Worker using the default per-status idle thresholds.
func New(st store.Store, supervisor *registry.Supervisor, clk clock.Clock) *Worker {
	return &Worker{
		st:         st,
		supervisor: supervisor,
		clk:        clk,
		thresholds: store.DefaultIdleThresholds(),
		stop:       make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine. Stop terminates it.
func (w *Worker) Start() {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.sweep()
			case <-w.stop:
				log.Println("[CLEANUP] sweep worker stopping")
				return
			}
		}
	}()
}

// Stop ends the sweep loop.
func (w *Worker) Stop() {
	close(w.stop)
}

func (w *Worker) sweep() {
	ctx := context.Background()
	stale, err := w.st.ListStale(ctx, w.clk.WallNow(), w.thresholds)
	if err != nil {
		log.Printf("[CLEANUP] failed to list stale games: %v", err)
		return
	}
	for _, id := range stale {
		w.supervisor.StopGame(id)
		if err := w.st.Delete(ctx, id); err != nil {
			log.Printf("[CLEANUP] failed to delete stale game %s: %v", id, err)
			continue
		}
		log.Printf("[CLEANUP] removed idle game %s", id)
	}
	if len(stale) > 0 {
		log.Printf("[CLEANUP] swept %d idle games", len(stale))
	}
}
