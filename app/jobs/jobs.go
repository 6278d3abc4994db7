// Package jobs runs periodic maintenance tasks, currently moving actividades through their
// planeada, en_curso and completada states as dates pass.
package jobs

import (
	"context"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/robfig/cron/v3"
)

//go:generate moq -out mocks/refresher.go -pkg mocks -skip-ensure -fmt goimports . Refresher

// Refresher updates actividad estados relative to the given day (YYYY-MM-DD)
type Refresher interface {
	RefreshActividadEstados(ctx context.Context, today string) (int, error)
}

// Cron interface defines basic robfig/cron methods used by the scheduler
type Cron interface {
	Start()
	Stop() context.Context
	Schedule(schedule cron.Schedule, cmd cron.Job) cron.EntryID
}

// Scheduler runs the estado refresh on a cron spec and once at start
type Scheduler struct {
	Cron      Cron
	Refresher Refresher
	Spec      string
	Location  *time.Location
	now       func() time.Time
}

// Do runs blocking scheduler until ctx canceled
func (s *Scheduler) Do(ctx context.Context) error {
	if s.Spec == "" {
		s.Spec = "@hourly"
	}
	sched, err := cron.ParseStandard(s.Spec)
	if err != nil {
		return fmt.Errorf("can't parse %s: %w", s.Spec, err)
	}

	s.refresh(ctx)
	id := s.Cron.Schedule(sched, cron.FuncJob(func() { s.refresh(ctx) }))
	log.Printf("[INFO] actividad refresh scheduled %q, first: %s (%v)", s.Spec,
		sched.Next(s.clock()).Format(time.RFC3339), id)

	s.Cron.Start()
	<-ctx.Done()
	log.Print("[DEBUG] terminate jobs")
	<-s.Cron.Stop().Done()
	return nil
}

// refresh runs a single update, errors are logged only
func (s *Scheduler) refresh(ctx context.Context) {
	today := s.clock().Format("2006-01-02")
	n, err := s.Refresher.RefreshActividadEstados(ctx, today)
	if err != nil {
		log.Printf("[WARN] can't refresh actividad estados for %s, %v", today, err)
		return
	}
	if n > 0 {
		log.Printf("[INFO] refreshed %d actividad estados for %s", n, today)
	}
}

func (s *Scheduler) clock() time.Time {
	now := time.Now()
	if s.now != nil {
		now = s.now()
	}
	if s.Location != nil {
		now = now.In(s.Location)
	}
	return now
}
