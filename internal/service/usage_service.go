package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phamquangminh/mealio/internal/repository"
	"github.com/redis/go-redis/v9"
)

// ErrNoFreeUses is returned when the monthly free-tier allowance is exhausted
var ErrNoFreeUses = errors.New("no free analyses remaining this month")

// UsageService meters AI meal-analysis usage with a per-user monthly counter
// in redis. Premium users are never metered.
type UsageService struct {
	rdb         *redis.Client
	subsRepo    *repository.SubscriptionRepository
	freeMonthly int
}

func NewUsageService(rdb *redis.Client, subsRepo *repository.SubscriptionRepository, freeMonthly int) *UsageService {
	return &UsageService{
		rdb:         rdb,
		subsRepo:    subsRepo,
		freeMonthly: freeMonthly,
	}
}

// RemainingFreeUses returns how many free analyses the user has left this
// calendar month. Active premium users report the full allowance so the
// low-usage warning never fires for them.
func (s *UsageService) RemainingFreeUses(ctx context.Context, userID uuid.UUID) (int, error) {
	sub, err := s.subsRepo.ActiveForUser(userID, time.Now())
	if err != nil {
		return 0, err
	}
	if sub != nil {
		return s.freeMonthly, nil
	}

	used, err := s.usedThisMonth(ctx, userID)
	if err != nil {
		return 0, err
	}
	remaining := s.freeMonthly - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Consume spends one analysis. Free-tier users past their allowance get
// ErrNoFreeUses; premium users always pass without touching the counter.
func (s *UsageService) Consume(ctx context.Context, userID uuid.UUID) (remaining int, err error) {
	sub, err := s.subsRepo.ActiveForUser(userID, time.Now())
	if err != nil {
		return 0, err
	}
	if sub != nil {
		return s.freeMonthly, nil
	}

	used, err := s.usedThisMonth(ctx, userID)
	if err != nil {
		return 0, err
	}
	if used >= s.freeMonthly {
		return 0, ErrNoFreeUses
	}

	key := s.monthKey(userID, time.Now())
	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	// Counters expire well after the month ends; the key itself is scoped
	// to the month so early expiry only risks undercounting.
	pipe.Expire(ctx, key, 40*24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	remaining = s.freeMonthly - int(incr.Val())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (s *UsageService) usedThisMonth(ctx context.Context, userID uuid.UUID) (int, error) {
	used, err := s.rdb.Get(ctx, s.monthKey(userID, time.Now())).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return used, nil
}

func (s *UsageService) monthKey(userID uuid.UUID, now time.Time) string {
	return fmt.Sprintf("aiusage:%s:%s", userID, now.UTC().Format("2006-01"))
}
