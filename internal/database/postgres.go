package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kashmau/track-fitness/internal/model"
)

// OpenPostgres connects the profile service to its own Postgres database.
func OpenPostgres(user, pass, host, port, name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, port, name)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// MigrateProfile creates or updates the profile tables.  Child tables carry
// ON DELETE CASCADE foreign keys to user_profiles.
func MigrateProfile(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.UserProfile{},
		&model.Goal{},
		&model.HealthHistory{},
		&model.Metric{},
		&model.FitnessScore{},
	)
}
