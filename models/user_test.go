package models

import (
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestUsernameUniqueness(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if err := db.Create(&User{Username: "alice", PasswordHash: "x"}).Error; err != nil {
		t.Fatalf("first create: %v", err)
	}

	err = db.Create(&User{Username: "alice", PasswordHash: "y"}).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("second create err = %v, want gorm.ErrDuplicatedKey", err)
	}

	var n int64
	if err := db.Model(&User{}).Where("username = ?", "alice").Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("alice rows = %d, want exactly 1", n)
	}
}
