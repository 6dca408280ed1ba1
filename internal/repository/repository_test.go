package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	if err := AutoMigrate(context.Background(), db); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func createUser(t *testing.T, users *UserRepository, username string) *User {
	t.Helper()
	user := &User{Username: username, PasswordHash: "x"}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func TestUserCreateDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)

	createUser(t, users, "alice")

	err := users.Create(context.Background(), &User{Username: "alice", PasswordHash: "y"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	var count int64
	db.Model(&User{}).Where("username = ?", "alice").Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one alice row, got %d", count)
	}
}

// A signup that loses a race can pass the existence check and still collide
// on the unique index. The driver error must translate to ErrUsernameTaken,
// not leak through raw. The conflicting row is slipped in from a create hook
// to land between the check and the insert.
func TestUserCreateRaceMapsDuplicateKey(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)

	raced := false
	err := db.Callback().Create().Before("gorm:create").Register("test:concurrent_signup", func(tx *gorm.DB) {
		if raced {
			return
		}
		raced = true
		tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)",
			"frank", "x", time.Now().UTC())
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	err = users.Create(context.Background(), &User{Username: "frank", PasswordHash: "y"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken from insert path, got %v", err)
	}
}

func TestUserFindByUsername(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	created := createUser(t, users, "bob")

	found, err := users.FindByUsername(context.Background(), "bob")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("expected id %d, got %d", created.ID, found.ID)
	}

	if _, err := users.FindByUsername(context.Background(), "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestHistoryOrderingIsDescending(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	predictions := NewPredictionRepository(db)
	user := createUser(t, users, "carol")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		p := &Prediction{
			UserID:            user.ID,
			ImageData:         "aW1n",
			DiseaseClass:      "Tomato_healthy",
			ConfidencePercent: float64(90 + i),
			Recommendation:    "No disease detected. No treatment required.",
			CreatedAt:         base.Add(time.Duration(i) * time.Minute),
		}
		if err := predictions.Record(context.Background(), p); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	history, err := predictions.ListByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(history) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(history))
	}
	for i := 1; i < len(history); i++ {
		if !history[i].CreatedAt.Before(history[i-1].CreatedAt) {
			t.Errorf("rows %d and %d out of order: %v then %v",
				i-1, i, history[i-1].CreatedAt, history[i].CreatedAt)
		}
	}
}

func TestRecordAssignsTimestamp(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	predictions := NewPredictionRepository(db)
	user := createUser(t, users, "dave")

	p := &Prediction{
		UserID:            user.ID,
		ImageData:         "aW1n",
		DiseaseClass:      "Potato___healthy",
		ConfidencePercent: 91.5,
		Recommendation:    "No disease detected. No treatment required.",
	}
	if err := predictions.Record(context.Background(), p); err != nil {
		t.Fatalf("record: %v", err)
	}
	if p.CreatedAt.IsZero() {
		t.Error("expected server-side timestamp on insert")
	}
}

func TestHistoryIsolationBetweenUsers(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	predictions := NewPredictionRepository(db)
	userA := createUser(t, users, "user-a")
	userB := createUser(t, users, "user-b")

	record := func(userID uint, label string) {
		t.Helper()
		err := predictions.Record(context.Background(), &Prediction{
			UserID:            userID,
			ImageData:         "aW1n",
			DiseaseClass:      label,
			ConfidencePercent: 80,
			Recommendation:    "r",
		})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	record(userA.ID, "Tomato_healthy")
	record(userA.ID, "Potato___Late_blight")
	record(userB.ID, "Pepper_bell__healthy")

	historyB, err := predictions.ListByUser(context.Background(), userB.ID)
	if err != nil {
		t.Fatalf("list B: %v", err)
	}
	if len(historyB) != 1 || historyB[0].DiseaseClass != "Pepper_bell__healthy" {
		t.Fatalf("user B sees wrong history: %+v", historyB)
	}

	// Clearing B must not touch A.
	if err := predictions.ClearUser(context.Background(), userB.ID); err != nil {
		t.Fatalf("clear B: %v", err)
	}
	historyA, err := predictions.ListByUser(context.Background(), userA.ID)
	if err != nil {
		t.Fatalf("list A: %v", err)
	}
	if len(historyA) != 2 {
		t.Fatalf("expected user A history untouched, got %d rows", len(historyA))
	}
}

func TestClearUserIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	predictions := NewPredictionRepository(db)
	user := createUser(t, users, "erin")

	err := predictions.Record(context.Background(), &Prediction{
		UserID:            user.ID,
		ImageData:         "aW1n",
		DiseaseClass:      "Tomato_healthy",
		ConfidencePercent: 95,
		Recommendation:    "r",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := predictions.ClearUser(context.Background(), user.ID); err != nil {
			t.Fatalf("clear attempt %d: %v", i+1, err)
		}
		history, err := predictions.ListByUser(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("list after clear %d: %v", i+1, err)
		}
		if len(history) != 0 {
			t.Fatalf("expected empty history after clear %d, got %d rows", i+1, len(history))
		}
	}
}
