package db

import (
	"fmt"
	"log"
	"time"

	"github.com/diewo77/go-albaranes/internal/config"
	"github.com/diewo77/go-albaranes/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the PostgreSQL connection with a simple retry loop so the
// app survives the database starting up after it.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	var conn *gorm.DB
	var err error
	for i := 0; i < 5; i++ {
		conn, err = gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
		if err == nil {
			break
		}
		log.Printf("db connection attempt %d/5 failed, retrying...", i+1)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return conn, nil
}

// Migrate applies GORM auto-migrations for every model.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.Client{},
		&models.Project{},
		&models.DeliveryNote{},
		&models.StorageItem{},
	); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}
	return nil
}
