package main

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/phamquangminh/mealio/internal/config"
	"github.com/phamquangminh/mealio/internal/model"
	"github.com/phamquangminh/mealio/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// Load config
	cfg := config.Load()

	// Force DB logging off to avoid noise
	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Connected to Database")

	// Common password for all users
	password := "password123"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}

	// Create 10 users
	log.Println("🌱 Seeding 10 users...")

	var seeded []model.User
	for i := 1; i <= 10; i++ {
		username := fmt.Sprintf("user%d", i)
		email := fmt.Sprintf("user%d@mealio.local", i)

		// Check if exists
		var existing model.User
		if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
			seeded = append(seeded, existing)
			continue
		}

		now := time.Now()
		user := model.User{
			ID:              uuid.New(),
			Name:            fmt.Sprintf("User Number %d", i),
			Email:           email,
			Password:        string(hashedPassword),
			EmailVerifiedAt: &now, // Verified immediately
			Avatar:          fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", username),
		}

		if err := db.Create(&user).Error; err != nil {
			log.Printf("❌ Failed to create user %s: %v", username, err)
			continue
		}
		log.Printf("✅ Created user: %s | Email: %s | Pass: %s", username, email, password)
		seeded = append(seeded, user)
	}

	seedMealHistory(db, seeded)
	seedNotificationSetup(db, seeded)

	log.Println("🎉 Seeding completed!")
}

// seedMealHistory gives the first few users a week of logged meals so the
// reminder builder has a baseline to learn from.
func seedMealHistory(db *gorm.DB, users []model.User) {
	if len(users) < 3 {
		return
	}
	mealRepo := repository.NewMealRepository(db)

	periods := []struct {
		period model.MealPeriod
		hour   int
		name   string
	}{
		{model.PeriodBreakfast, 8, "Oatmeal with berries"},
		{model.PeriodLunch, 12, "Chicken salad"},
		{model.PeriodDinner, 19, "Grilled salmon"},
	}

	for _, user := range users[:3] {
		var count int64
		db.Model(&model.MealLog{}).Where("user_id = ?", user.ID).Count(&count)
		if count > 0 {
			continue
		}

		now := time.Now().UTC()
		for day := 7; day >= 1; day-- {
			date := now.AddDate(0, 0, -day)
			for _, p := range periods {
				loggedAt := time.Date(date.Year(), date.Month(), date.Day(), p.hour, 15, 0, 0, time.UTC)
				meal := model.MealLog{
					ID:       uuid.New(),
					UserID:   user.ID,
					Name:     p.name,
					Period:   p.period,
					Calories: 350 + p.hour*10,
					Protein:  25,
					Carbs:    40,
					Fat:      12,
					LoggedAt: loggedAt,
				}
				db.Create(&meal)
			}
		}

		// Derive the streak counter from what actually landed in the table
		streak, err := mealRepo.CountLoggedDays(user.ID, now.AddDate(0, 0, -8))
		if err != nil {
			log.Printf("❌ Failed to count logged days for %s: %v", user.Email, err)
			continue
		}

		lastLog := now.AddDate(0, 0, -1)
		db.Model(&model.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"current_streak": streak,
			"last_log_at":    lastLog,
		})
		log.Printf("✅ Seeded %d days of meals for %s", streak, user.Email)
	}
}

// seedNotificationSetup registers a fake device and default settings for each
// user, plus one premium subscription expiring soon so the dispatch engine
// has an important candidate to pick up.
func seedNotificationSetup(db *gorm.DB, users []model.User) {
	for i, user := range users {
		var count int64
		db.Model(&model.UserDevice{}).Where("user_id = ?", user.ID).Count(&count)
		if count == 0 {
			db.Create(&model.UserDevice{
				ID:           uuid.New(),
				UserID:       user.ID,
				PushToken:    fmt.Sprintf("seed-token-%d", i+1),
				Platform:     model.PlatformAndroid,
				Locale:       "en",
				LastActiveAt: time.Now(),
			})
		}

		db.Model(&model.NotificationSettings{}).Where("user_id = ?", user.ID).Count(&count)
		if count == 0 {
			db.Create(&model.NotificationSettings{
				ID:               uuid.New(),
				UserID:           user.ID,
				ReminderEnabled:  true,
				ImportantEnabled: true,
				QuietHoursStart:  22 * 60,
				QuietHoursEnd:    7 * 60,
				DailyCap:         3,
				Timezone:         "UTC",
			})
		}
	}

	if len(users) == 0 {
		return
	}

	// First user gets a premium subscription ending in 2 days
	first := users[0]
	var count int64
	db.Model(&model.Subscription{}).Where("user_id = ?", first.ID).Count(&count)
	if count == 0 {
		db.Create(&model.Subscription{
			ID:               uuid.New(),
			UserID:           first.ID,
			Plan:             "premium_monthly",
			Status:           model.SubscriptionActive,
			CurrentPeriodEnd: time.Now().AddDate(0, 0, 2),
		})
		log.Printf("✅ Seeded expiring premium subscription for %s", first.Email)
	}
}
