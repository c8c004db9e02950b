package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/phamquangminh/mealio/internal/repository"
)

// retentionDays is how long free-tier meal logs are kept
const retentionDays = 30

// RetentionJob prunes expired data on a daily schedule: meal logs older
// than the free-tier retention window and stale OTP codes.
type RetentionJob struct {
	mealRepo *repository.MealRepository
	otpRepo  *repository.OTPRepository
	log      *zap.Logger
	cron     *cron.Cron
}

func NewRetentionJob(mealRepo *repository.MealRepository, otpRepo *repository.OTPRepository, log *zap.Logger) *RetentionJob {
	return &RetentionJob{
		mealRepo: mealRepo,
		otpRepo:  otpRepo,
		log:      log,
		cron:     cron.New(),
	}
}

// Start registers the daily schedule and launches the cron runner.
func (j *RetentionJob) Start() error {
	if _, err := j.cron.AddFunc("0 3 * * *", j.RunOnce); err != nil {
		return err
	}
	j.cron.Start()
	j.log.Info("retention job scheduled", zap.String("schedule", "0 3 * * *"))
	return nil
}

// Stop halts the cron runner and waits for a running job to finish.
func (j *RetentionJob) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

// RunOnce performs a single cleanup pass. Exported so a pass can be
// triggered outside the schedule, as the tests do.
func (j *RetentionJob) RunOnce() {
	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -retentionDays)

	deleted, err := j.mealRepo.DeleteOlderThanForFreeUsers(cutoff, now)
	if err != nil {
		j.log.Error("meal log cleanup failed", zap.Error(err))
	} else if deleted > 0 {
		j.log.Info("pruned expired meal logs",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}

	if err := j.otpRepo.CleanupExpired(); err != nil {
		j.log.Error("otp cleanup failed", zap.Error(err))
	}
}
