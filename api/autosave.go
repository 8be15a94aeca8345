/*
autosave.go - Background draft autosave

PURPOSE:
  Periodically persists the session draft when it has unsaved changes,
  so a crashed browser tab or server restart loses at most one interval
  of edits. Autosave never publishes.

DESIGN:
  - Runs a background goroutine with configurable interval
  - Skips ticks when nothing changed or a publish is in flight
  - Failures are logged and retried on the next tick

CONFIGURATION:
  - Interval: How often to check (default: 1 minute, 0 disables)

USAGE:
  saver := NewAutosaver(handler, time.Minute, log)
  saver.Start()
  // ... later
  saver.Stop()

SEE ALSO:
  - handlers.go: Save endpoint (manual save)
  - grid/schedule.go: SaveDraft
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Autosaver saves the current session draft on a ticker.
type Autosaver struct {
	Handler  *Handler
	Interval time.Duration

	log    logrus.FieldLogger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewAutosaver creates an autosaver. A non-positive interval disables it.
func NewAutosaver(h *Handler, interval time.Duration, log logrus.FieldLogger) *Autosaver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Autosaver{
		Handler:  h,
		Interval: interval,
		log:      log.WithField("component", "autosave"),
	}
}

// Start begins the ticker loop.
func (a *Autosaver) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Interval <= 0 {
		a.log.Info("Autosave disabled")
		return
	}
	if a.ticker != nil {
		return
	}

	a.ticker = time.NewTicker(a.Interval)
	a.stop = make(chan struct{})
	a.wg.Add(1)
	go a.run(a.ticker, a.stop)

	a.log.WithField("interval", a.Interval).Info("Autosave started")
}

// Stop stops the loop and waits for an in-flight save to finish.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ticker == nil {
		return
	}
	a.ticker.Stop()
	close(a.stop)
	a.wg.Wait()
	a.ticker = nil
	a.log.Info("Autosave stopped")
}

func (a *Autosaver) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer a.wg.Done()
	for {
		select {
		case <-ticker.C:
			a.SaveOnce(context.Background())
		case <-stop:
			return
		}
	}
}

// SaveOnce saves the draft if it has unsaved changes. It reports whether
// a save succeeded.
func (a *Autosaver) SaveOnce(ctx context.Context) bool {
	ed := a.Handler.Editor()
	if ed == nil {
		return false
	}
	sched := ed.Schedule()
	if !sched.HasUnsavedChanges() || sched.Publishing() {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := sched.SaveDraft(ctx); err != nil {
		a.log.WithError(err).Warn("Autosave failed")
		return false
	}
	a.log.WithFields(logrus.Fields{"year": sched.Year(), "draft": len(sched.Draft())}).Debug("Draft autosaved")
	return true
}
