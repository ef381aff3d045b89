package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
	"github.com/Marga-Ghale/ora-projects-backend/pkg/logger"
)

// DueNotifier receives one call per task that is about to be due.
type DueNotifier interface {
	TaskDueSoon(ctx context.Context, task *repository.Task)
}

// Sweeper drops idle state. Satisfied by the auth rate limiter.
type Sweeper interface {
	Sweep() int
}

const (
	dueWindow     = 24 * time.Hour
	sweepSchedule = "@every 10m"
	jobTimeout    = 2 * time.Minute
)

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron        *cron.Cron
	taskRepo    repository.TaskRepository
	notifier    DueNotifier
	sweeper     Sweeper // optional
	dueSchedule string
	now         func() time.Time
}

func NewScheduler(taskRepo repository.TaskRepository, notifier DueNotifier, sweeper Sweeper, dueSchedule string) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		taskRepo:    taskRepo,
		notifier:    notifier,
		sweeper:     sweeper,
		dueSchedule: dueSchedule,
		now:         time.Now,
	}
}

// Start registers the jobs and starts the scheduler. An invalid schedule
// expression is returned before anything runs.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.dueSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		logger.Info().Msg("[Cron] Running due date reminder check...")
		s.CheckDueDateReminders(ctx)
	}); err != nil {
		return fmt.Errorf("due reminder schedule %q: %w", s.dueSchedule, err)
	}

	if s.sweeper != nil {
		if _, err := s.cron.AddFunc(sweepSchedule, func() {
			if n := s.sweeper.Sweep(); n > 0 {
				logger.Debug().Int("removed", n).Msg("[Cron] Swept idle rate limiters")
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	logger.Info().Str("dueSchedule", s.dueSchedule).Msg("[Cron] Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info().Msg("[Cron] Scheduler stopped")
}

// CheckDueDateReminders notifies assignees of open tasks due in the next 24h.
// It returns the number of tasks processed.
func (s *Scheduler) CheckDueDateReminders(ctx context.Context) int {
	now := s.now()
	tasks, err := s.taskRepo.FindDueBetween(ctx, now, now.Add(dueWindow))
	if err != nil {
		logger.Error().Err(err).Msg("[Cron] Error finding tasks due soon")
		return 0
	}

	for _, task := range tasks {
		s.notifier.TaskDueSoon(ctx, task)
	}

	logger.Info().Int("tasks", len(tasks)).Msg("[Cron] Due date reminders sent")
	return len(tasks)
}
