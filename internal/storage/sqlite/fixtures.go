package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pdxmph/scheduler-tui/internal/progression"
	"github.com/pdxmph/scheduler-tui/internal/schedule"
	"github.com/pdxmph/scheduler-tui/internal/storage"
)

// Demo login seeded by CreateFixturesDatabase
const (
	FixtureEmail    = "demo@example.com"
	FixturePassword = "demo-password"
)

// CreateFixturesDatabase creates a database with a demo account and a week
// of sample tasks around today
func CreateFixturesDatabase(dbPath string) error {
	// Initialize empty database
	if err := Initialize(dbPath); err != nil {
		return fmt.Errorf("initializing fixtures database: %w", err)
	}

	// Open database to add sample data
	database, err := Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening fixtures database: %w", err)
	}
	defer database.Close()

	return seed(context.Background(), database, time.Now())
}

type fixtureTask struct {
	dayOffset int
	title     string
	start     string
	end       string
	category  schedule.Category
	notes     string
	completed bool
}

func seed(ctx context.Context, database *DB, today time.Time) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing fixture password: %w", err)
	}

	userID := uuid.NewString()
	if err := database.CreateAccount(ctx, storage.Account{
		ID:           userID,
		Email:        FixtureEmail,
		PasswordHash: string(hash),
	}); err != nil {
		return fmt.Errorf("adding fixture account: %w", err)
	}

	fixtures := []fixtureTask{
		// Yesterday
		{-1, "Morning run", "07:00", "08:00", schedule.Health, "5k around the park", true},
		{-1, "Quarterly planning", "10:00", "12:00", schedule.Work, "", true},
		{-1, "Read: Designing Data-Intensive Applications", "20:00", "21:00", schedule.Learning, "Chapter 5", true},

		// Today
		{0, "Standup", "09:30", "10:15", schedule.Work, "", false},
		{0, "Code review", "10:00", "12:00", schedule.Work, "Storage refactor PR", false},
		{0, "Lunch with Sam", "12:00", "13:00", schedule.Social, "", false},
		{0, "Walk", "15:00", "15:30", schedule.Break, "", false},
		{0, "Go concurrency course", "19:00", "20:00", schedule.Learning, "Module 3: channels", false},

		// Later this week
		{1, "Dentist", "08:30", "09:30", schedule.Health, "Bring insurance card", false},
		{1, "Pay bills", "18:00", "18:30", schedule.Personal, "", false},
		{3, "Team retro", "14:00", "15:00", schedule.Work, "", false},
		{5, "Board games night", "19:00", "22:00", schedule.Social, "", false},
	}

	buckets := make(map[string][]schedule.Task)
	var dates []string
	completed := 0
	for _, f := range fixtures {
		date := schedule.DateKey(today.AddDate(0, 0, f.dayOffset))
		if _, ok := buckets[date]; !ok {
			dates = append(dates, date)
		}
		buckets[date] = append(buckets[date], schedule.Task{
			ID:          uuid.NewString(),
			Title:       f.title,
			StartTime:   f.start,
			EndTime:     f.end,
			Category:    f.category,
			Description: f.notes,
			Date:        date,
			Completed:   f.completed,
		})
		if f.completed {
			completed++
		}
	}

	for _, date := range dates {
		if err := database.SaveTasksForDate(ctx, userID, date, buckets[date]); err != nil {
			return fmt.Errorf("adding fixture tasks for %s: %w", date, err)
		}
	}

	// XP matches the completed tasks so the demo opens consistent
	xp := completed * progression.XPPerCompletion
	level := progression.LevelFromXP(xp)
	if err := database.SaveUserState(ctx, userID, storage.UserStatePatch{XP: &xp, Level: &level}); err != nil {
		return fmt.Errorf("adding fixture user state: %w", err)
	}

	return nil
}
