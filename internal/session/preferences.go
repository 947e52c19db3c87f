// File: internal/session/preferences.go
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Theme is the dashboard colour scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

const themeKey = "theme"

// Preferences holds UI preferences. It is loaded once at start and written through on change.
type Preferences struct {
	db     *gorm.DB
	logger *zap.Logger

	mu    sync.RWMutex
	theme Theme
}

// NewPreferences loads the stored preferences. A missing row means the light theme.
func NewPreferences(db *gorm.DB, logger *zap.Logger) (*Preferences, error) {
	if err := Migrate(db); err != nil {
		return nil, err
	}
	p := &Preferences{db: db, logger: logger.Named("Preferences"), theme: ThemeLight}

	var rec PreferenceRecord
	err := db.First(&rec, "key = ?", themeKey).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	case Theme(rec.Value) == ThemeDark:
		p.theme = ThemeDark
	}
	return p, nil
}

func (p *Preferences) Theme() Theme {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.theme
}

// SetTheme persists and applies theme.
func (p *Preferences) SetTheme(ctx context.Context, theme Theme) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("unknown theme %q", theme)
	}
	rec := PreferenceRecord{Key: themeKey, Value: string(theme)}
	if err := p.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	p.mu.Lock()
	p.theme = theme
	p.mu.Unlock()
	p.logger.Debug("Theme changed", zap.String("theme", string(theme)))
	return nil
}

// ToggleTheme flips between light and dark.
func (p *Preferences) ToggleTheme(ctx context.Context) (Theme, error) {
	next := ThemeDark
	if p.Theme() == ThemeDark {
		next = ThemeLight
	}
	if err := p.SetTheme(ctx, next); err != nil {
		return p.Theme(), err
	}
	return next, nil
}
