// File: internal/session/store.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blood_donation_dashboard/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRecord is the single persisted identity of this process.
type SessionRecord struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"type:varchar(255);not null"`
	DisplayName  string `gorm:"type:varchar(255)"`
	PhotoURL     string `gorm:"type:text"`
	AccessToken  string `gorm:"type:text;not null"`
	RefreshToken string `gorm:"type:text"`
	ExpiresAt    *time.Time
	UpdatedAt    time.Time
}

func (SessionRecord) TableName() string { return "dashboard_sessions" }

// PreferenceRecord is a key/value UI preference.
type PreferenceRecord struct {
	Key       string `gorm:"primaryKey;type:varchar(64)"`
	Value     string `gorm:"type:varchar(255);not null"`
	UpdatedAt time.Time
}

func (PreferenceRecord) TableName() string { return "dashboard_preferences" }

const sessionRowID = 1

// Store persists the signed-in identity across restarts.
type Store interface {
	Load(ctx context.Context) (*domain.Identity, error)
	Save(ctx context.Context, identity *domain.Identity) error
	Clear(ctx context.Context) error
}

type gormStore struct {
	db *gorm.DB
}

// Migrate creates the state store tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&SessionRecord{}, &PreferenceRecord{}); err != nil {
		return fmt.Errorf("failed to migrate state store: %w", err)
	}
	return nil
}

// NewGORMStore migrates the state tables and returns a Store over db.
func NewGORMStore(db *gorm.DB) (Store, error) {
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return &gormStore{db: db}, nil
}

func (s *gormStore) Load(ctx context.Context) (*domain.Identity, error) {
	var rec SessionRecord
	err := s.db.WithContext(ctx).First(&rec, sessionRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	id := &domain.Identity{
		Email:        rec.Email,
		DisplayName:  rec.DisplayName,
		PhotoURL:     rec.PhotoURL,
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
	}
	if rec.ExpiresAt != nil {
		id.ExpiresAt = *rec.ExpiresAt
	}
	return id, nil
}

func (s *gormStore) Save(ctx context.Context, identity *domain.Identity) error {
	rec := SessionRecord{
		ID:           sessionRowID,
		Email:        identity.Email,
		DisplayName:  identity.DisplayName,
		PhotoURL:     identity.PhotoURL,
		AccessToken:  identity.AccessToken,
		RefreshToken: identity.RefreshToken,
	}
	if !identity.ExpiresAt.IsZero() {
		exp := identity.ExpiresAt
		rec.ExpiresAt = &exp
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

func (s *gormStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Delete(&SessionRecord{}, sessionRowID).Error; err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
