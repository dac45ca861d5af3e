package mariadb

import (
	"fmt"

	"gamejournal/internal/config"
	"gamejournal/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type Storage struct {
	DB *gorm.DB
}

func New(cfg config.Database) (*Storage, error) {
	const op = "storage.mariadb.New"

	dsn := cfg.GetDSN()

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{DB: db}, nil
}

func (s *Storage) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Storage) Migrate() error {
	const op = "storage.mariadb.Migrate"

	err := s.DB.AutoMigrate(
		&models.Profile{},
		&models.Game{},
		&models.Genre{},
		&models.Entry{},
		&models.PlaySession{},
		&models.Activity{},
		&models.Friendship{},
		&models.FriendRequest{},
		&models.FavoriteGame{},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
