// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"strconv"
	"testing"

	"career_coach_backend/internal/config"
	"career_coach_backend/internal/model"
	"career_coach_backend/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// OpenDB returns a migrated in-memory SQLite database scoped to the test.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.InitDB(&config.DatabaseConfig{Driver: "sqlite", Path: "file::memory:"}, true)
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user with a unique email.
func CreateUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()

	user := &model.User{Name: "Test User", Email: email, Password: "hashed", Role: model.RoleSeeker}
	require.NoError(t, db.Create(user).Error)
	return user
}

// SampleQuestions builds n well-formed questions whose answer is always "A<i>".
func SampleQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		a := "A" + strconv.Itoa(i)
		qs[i] = model.Question{
			Question: "Question " + strconv.Itoa(i) + "?",
			Options:  []string{a, "B" + strconv.Itoa(i), "C" + strconv.Itoa(i), "D" + strconv.Itoa(i)},
			Answer:   a,
		}
	}
	return qs
}
