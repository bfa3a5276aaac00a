package services

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dkovalov/taskhub/pkg/logger"
)

// defaultReminderSchedule fires every day at 08:00 server time.
const defaultReminderSchedule = "0 8 * * *"

// ReminderService mails assignees about tasks due the next day.
type ReminderService struct {
	tasks         *TaskService
	notifications *NotificationService
	schedule      string
	now           func() time.Time

	cron *cron.Cron
}

// ReminderOption customises a ReminderService.
type ReminderOption func(*ReminderService)

// WithReminderSchedule overrides the cron expression.
func WithReminderSchedule(spec string) ReminderOption {
	return func(s *ReminderService) {
		if spec != "" {
			s.schedule = spec
		}
	}
}

// WithReminderClock overrides the time source.
func WithReminderClock(now func() time.Time) ReminderOption {
	return func(s *ReminderService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewReminderService constructs a ReminderService instance.
func NewReminderService(tasks *TaskService, notifications *NotificationService, opts ...ReminderOption) (*ReminderService, error) {
	if tasks == nil {
		return nil, errors.New("reminder service: task service is required")
	}
	service := &ReminderService{
		tasks:         tasks,
		notifications: notifications,
		schedule:      defaultReminderSchedule,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Start registers the daily job and begins the scheduler.
func (s *ReminderService) Start() error {
	if s.cron != nil {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := s.Run(ctx); err != nil {
			logger.Error("task reminder run failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	s.cron = c
	logger.Info("task reminder scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *ReminderService) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron = nil
}

// Run mails a reminder for every unfinished task due tomorrow. Individual
// delivery failures are logged and do not stop the sweep.
func (s *ReminderService) Run(ctx context.Context) error {
	ctx = ensureContext(ctx)

	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	end := start.AddDate(0, 0, 1)

	tasks, err := s.tasks.DueWithin(ctx, start, end)
	if err != nil {
		return err
	}

	for i := range tasks {
		task := &tasks[i]
		if s.notifications == nil {
			continue
		}
		if err := s.notifications.SendTaskReminder(ctx, &task.Assignee, task); err != nil {
			logger.Warn("task reminder email failed",
				zap.String("task_id", task.ID),
				zap.String("assignee", task.Assignee.Email),
				zap.Error(err))
		}
	}

	logger.Debug("task reminder sweep complete", zap.Int("tasks", len(tasks)))
	return nil
}
