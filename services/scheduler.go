package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"irus/models"
)

// MonthlyReporter builds and publishes the report for a month.
type MonthlyReporter func(ctx context.Context, month string) (string, error)

// Scheduler runs the monthly report job on the first of each month.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *zap.Logger
}

// NewScheduler registers the monthly report for 02:00 on the first of the month in loc.
func NewScheduler(ctx context.Context, loc *time.Location, report MonthlyReporter, log *zap.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, err
	}

	_, err = s.NewJob(
		gocron.MonthlyJob(1, gocron.NewDaysOfTheMonth(1), gocron.NewAtTimes(gocron.NewAtTime(2, 0, 0))),
		gocron.NewTask(func() {
			month := models.PreviousMonth(time.Now().In(loc))
			msg, err := report(ctx, month)
			if err != nil {
				log.Error("monthly report failed", zap.String("month", month), zap.Error(err))
				return
			}
			log.Info("monthly report published", zap.String("month", month), zap.String("summary", msg))
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("monthly-report"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}
	return &Scheduler{scheduler: s, logger: log}, nil
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
	s.logger.Info("scheduler started")
}

// NextRun returns when the monthly report will next run.
func (s *Scheduler) NextRun() (time.Time, error) {
	jobs := s.scheduler.Jobs()
	if len(jobs) == 0 {
		return time.Time{}, nil
	}
	return jobs[0].NextRun()
}

func (s *Scheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}
