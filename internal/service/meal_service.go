package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/phamquangminh/mealio/internal/model"
	"github.com/phamquangminh/mealio/internal/repository"
)

// MealService handles meal-log business logic, including upkeep of the
// precomputed streak counter that the notification engine reads.
type MealService struct {
	mealRepo     *repository.MealRepository
	userRepo     *repository.UserRepository
	settingsRepo *repository.SettingsRepository
}

func NewMealService(
	mealRepo *repository.MealRepository,
	userRepo *repository.UserRepository,
	settingsRepo *repository.SettingsRepository,
) *MealService {
	return &MealService{
		mealRepo:     mealRepo,
		userRepo:     userRepo,
		settingsRepo: settingsRepo,
	}
}

// CreateLog records a meal and advances the user's logging streak
func (s *MealService) CreateLog(userID uuid.UUID, req model.CreateMealRequest) (*model.MealLog, error) {
	loggedAt := time.Now().UTC()
	if req.LoggedAt != nil {
		loggedAt = req.LoggedAt.UTC()
	}

	log := &model.MealLog{
		UserID:   userID,
		Name:     req.Name,
		Period:   req.Period,
		Calories: req.Calories,
		Protein:  req.Protein,
		Carbs:    req.Carbs,
		Fat:      req.Fat,
		PhotoURL: req.PhotoURL,
		LoggedAt: loggedAt,
	}
	if err := s.mealRepo.Create(log); err != nil {
		return nil, errors.New("failed to save meal log")
	}

	if err := s.advanceStreak(userID, loggedAt); err != nil {
		// The log itself is saved; a stale streak counter self-corrects on
		// the next log write.
		return log, nil
	}
	return log, nil
}

// ListDay returns the user's logs for one local calendar day
func (s *MealService) ListDay(userID uuid.UUID, day time.Time) ([]model.MealLog, error) {
	loc, err := s.userLocation(userID)
	if err != nil {
		loc = time.UTC
	}
	local := day.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return s.mealRepo.ListBetween(userID, start, start.AddDate(0, 0, 1))
}

// DeleteLog removes a meal log owned by the user
func (s *MealService) DeleteLog(userID, logID uuid.UUID) error {
	return s.mealRepo.Delete(userID, logID)
}

// advanceStreak updates the precomputed counter from the day relationship
// between the new log and the previous most recent one, in the user's zone.
func (s *MealService) advanceStreak(userID uuid.UUID, loggedAt time.Time) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return err
	}

	loc, err := s.userLocation(userID)
	if err != nil {
		loc = time.UTC
	}

	// Backdated logs never move the streak or its anchor backwards.
	if user.LastLogAt != nil && loggedAt.Before(*user.LastLogAt) {
		return nil
	}

	streak := 1
	if user.LastLogAt != nil {
		switch dayGap(*user.LastLogAt, loggedAt, loc) {
		case 0:
			streak = user.CurrentStreak
			if streak < 1 {
				streak = 1
			}
		case 1:
			streak = user.CurrentStreak + 1
		}
	}

	return s.userRepo.UpdateStreak(userID, streak, loggedAt)
}

func (s *MealService) userLocation(userID uuid.UUID) (*time.Location, error) {
	settings, err := s.settingsRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}
	return time.LoadLocation(settings.Timezone)
}

// dayGap counts calendar days between two instants in the given zone
func dayGap(earlier, later time.Time, loc *time.Location) int {
	a := earlier.In(loc)
	b := later.In(loc)
	aDay := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, loc)
	bDay := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, loc)
	return int(bDay.Sub(aDay).Hours() / 24)
}
