package postgres

import (
	"fmt"
	"log"
	"time"

	"github.com/dom/course-catalog/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts = 5
	connectBackoff  = 5 * time.Second
)

// NewConnection opens the user directory database, retrying with a fixed
// backoff so the process survives the database coming up after it.
func NewConnection(databaseURL string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Warn),
			TranslateError: true,
		})
		if err == nil {
			break
		}
		log.Printf("WARN [postgres.NewConnection] attempt %d/%d failed: %v", attempt, connectAttempts, err)
		if attempt < connectAttempts {
			time.Sleep(connectBackoff)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.User{}, &domain.CourseRef{}); err != nil {
		return nil, err
	}

	return db, nil
}
