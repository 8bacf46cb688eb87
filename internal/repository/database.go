package repository

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/SundayYogurt/visa_admin/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// migrateLockID serialises migrations across devserver instances.
const migrateLockID int64 = 20260301

func OpenPostgres(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping: %w", err)
	}
	return db, nil
}

// Migrate creates the review tables and seeds them when empty.
func Migrate(db *gorm.DB, log *slog.Logger) error {
	if err := db.Exec("SELECT pg_advisory_lock(?)", migrateLockID).Error; err != nil {
		return fmt.Errorf("migration lock: %w", err)
	}
	defer func() {
		_ = db.Exec("SELECT pg_advisory_unlock(?)", migrateLockID).Error
	}()

	if err := db.AutoMigrate(
		&domain.Applicant{},
		&domain.Country{},
		&domain.VisaType{},
		&domain.Application{},
		&domain.Document{},
		&domain.Feedback{},
	); err != nil {
		return fmt.Errorf("migration: %w", err)
	}

	var count int64
	if err := db.Model(&domain.Application{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count applications: %w", err)
	}
	if count > 0 {
		return nil
	}

	data := SeedData(time.Now())
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, rows := range []any{&data.Applicants, &data.Countries, &data.VisaTypes, &data.Applications, &data.Feedbacks} {
			if err := tx.Create(rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	log.Info("database seeded", "applications", len(data.Applications))
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
