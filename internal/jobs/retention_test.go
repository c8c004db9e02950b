package jobs

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/utils/tests"

	"github.com/phamquangminh/mealio/internal/repository"
)

// queryRecorder captures the SQL a dry-run session builds
type queryRecorder struct {
	queries []string
}

func (r *queryRecorder) LogMode(logger.LogLevel) logger.Interface { return r }
func (r *queryRecorder) Info(context.Context, string, ...interface{}) {}
func (r *queryRecorder) Warn(context.Context, string, ...interface{}) {}
func (r *queryRecorder) Error(context.Context, string, ...interface{}) {}
func (r *queryRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.queries = append(r.queries, sql)
}

func TestRunOncePrunesExpiredData(t *testing.T) {
	rec := &queryRecorder{}
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{
		DryRun: true,
		Logger: rec,
	})
	if err != nil {
		t.Fatal(err)
	}

	job := NewRetentionJob(repository.NewMealRepository(db), repository.NewOTPRepository(db), zap.NewNop())
	job.RunOnce()

	joined := strings.Join(rec.queries, "\n")

	if !strings.Contains(joined, "DELETE FROM `meal_logs`") {
		t.Errorf("no meal log purge issued:\n%s", joined)
	}
	if !strings.Contains(joined, "logged_at <") {
		t.Errorf("meal log purge is not bounded by the retention cutoff:\n%s", joined)
	}
	if !strings.Contains(joined, "subscriptions") {
		t.Errorf("meal log purge does not exclude subscribed users:\n%s", joined)
	}
	if !strings.Contains(joined, "DELETE FROM `otp_codes`") {
		t.Errorf("no otp cleanup issued:\n%s", joined)
	}
	if !strings.Contains(joined, "expires_at <") {
		t.Errorf("otp cleanup is not bounded by expiry:\n%s", joined)
	}
}
