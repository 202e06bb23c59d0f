package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"autoecole_go/config"
	"autoecole_go/models"

	"github.com/go-redis/redis/v8"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the MySQL and Redis connections. Redis is optional: when it
// is unreachable the returned client is nil and callers fall back to direct
// database writes.
func Connect(cfg *config.Config) (*gorm.DB, *redis.Client) {
	db := connectDatabase(cfg)
	rc := connectRedis(cfg)
	return db, rc
}

func connectDatabase(cfg *config.Config) *gorm.DB {
	dsn := cfg.GetDSN()

	var gormLogger logger.Interface
	if cfg.AppEnv == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	} else {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	// Retry logic for transient tunnel issues
	var db *gorm.DB
	var err error
	for attempt := 1; attempt <= 8; attempt++ {
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger:         gormLogger,
			TranslateError: true,
		})
		if err == nil {
			break
		}
		log.Printf("Database connect attempt %d failed: %v", attempt, err)
		time.Sleep(time.Duration(attempt*attempt) * 300 * time.Millisecond)
	}
	if err != nil {
		log.Fatal("Failed to connect to database after retries:", err)
	}

	log.Println("Database connected successfully")

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get database instance:", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(55 * time.Minute)

	return db
}

// AutoMigrate performs automatic database migration
func AutoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.DrivingSchool{},
		&models.Teacher{},
		&models.Enrollment{},
		&models.Course{},
		&models.CourseSession{},
		&models.Document{},
		&models.Quiz{},
		&models.QuizAttempt{},
		&models.Exam{},
		&models.Review{},
		&models.Payment{},
		&models.ActivityLog{},
		&models.LogArchive{},
	)

	if err != nil {
		log.Fatal("Auto migration failed:", err)
	}

	log.Println("Database migration completed successfully")
}

func connectRedis(cfg *config.Config) *redis.Client {
	rc := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx := context.Background()
	if _, err := rc.Ping(ctx).Result(); err != nil {
		log.Printf("Redis connection failed: %v", err)
		log.Println("Continuing without Redis - logs will be saved directly to database")
		return nil
	}

	log.Println("Redis connected successfully")
	return rc
}

// Close closes the database connection
func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Println("Error getting database instance:", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Println("Error closing database connection:", err)
		return
	}

	log.Println("Database connection closed")
}
