package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"cryptoduel/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage persists settled rounds for diagnostics and stats. It is
// write-only from gameplay's perspective: the live session never reads
// its state back from here.
type Storage struct {
	db *gorm.DB
}

// NewStorage creates a SQLite storage instance. An empty path resolves
// to the per-user config directory.
func NewStorage(path string) (*Storage, error) {
	dbPath := path
	if dbPath == "" {
		resolved, err := getDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
		dbPath = resolved
	}

	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(&domain.RoundRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "CryptoDuel", "data", "cryptoduel.db"), nil
}

// SaveRound persists one settled round.
func (s *Storage) SaveRound(rec *domain.RoundRecord) error {
	return s.db.Create(rec).Error
}

// RecentRounds returns up to limit settled rounds, newest first.
func (s *Storage) RecentRounds(limit int) ([]domain.RoundRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []domain.RoundRecord
	err := s.db.Order("settled_at DESC").Limit(limit).Find(&recs).Error
	return recs, err
}

// SessionStats aggregates the persisted round history.
type SessionStats struct {
	Rounds   int64     `json:"rounds"`
	Wins     int64     `json:"wins"`
	Degraded int64     `json:"degraded"`
	Since    time.Time `json:"since"`
}

// Stats returns aggregate counts over all persisted rounds.
func (s *Storage) Stats() (SessionStats, error) {
	var stats SessionStats

	if err := s.db.Model(&domain.RoundRecord{}).Count(&stats.Rounds).Error; err != nil {
		return stats, err
	}
	if err := s.db.Model(&domain.RoundRecord{}).Where("won = ?", true).Count(&stats.Wins).Error; err != nil {
		return stats, err
	}
	if err := s.db.Model(&domain.RoundRecord{}).Where("pricing_degraded = ?", true).Count(&stats.Degraded).Error; err != nil {
		return stats, err
	}

	var first domain.RoundRecord
	err := s.db.Order("settled_at ASC").First(&first).Error
	if err == nil {
		stats.Since = first.SettledAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return stats, err
	}

	return stats, nil
}
