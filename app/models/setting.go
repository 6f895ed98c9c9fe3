package models

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Setting represents a system setting row
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, boolean, integer
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppSettings is the in-memory snapshot of the application settings. Ledger
// operations do not read this directly; the sweeper and controllers convert
// it into an explicit ledger.Config so ledger behavior stays a function of
// its inputs.
type AppSettings struct {
	SiteTitle               string `json:"site_title" validate:"required,min=1,max=255"`
	AutoGeneratePayments    bool   `json:"auto_generate_payments"`
	OverdueGraceDays        int    `json:"overdue_grace_days" validate:"min=0,max=60"`
	BackfillLookaheadCycles int    `json:"backfill_lookahead_cycles" validate:"min=1,max=12"`
	SweepIntervalMinutes    int    `json:"sweep_interval_minutes" validate:"min=1,max=1440"`
	mu                      sync.RWMutex
}

// Global settings instance
var (
	appSettings *AppSettings
	settingsMu  sync.RWMutex
)

// GetAppSettings returns the current application settings
func GetAppSettings() *AppSettings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return appSettings
}

// LoadSettings loads settings from database into memory
func LoadSettings(db *gorm.DB) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	// Initialize with defaults
	appSettings = &AppSettings{
		SiteTitle:               "FleetPort",
		AutoGeneratePayments:    true,
		OverdueGraceDays:        1,
		BackfillLookaheadCycles: 4,
		SweepIntervalMinutes:    60,
	}

	var settings []Setting
	if err := db.Find(&settings).Error; err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	for _, setting := range settings {
		switch setting.Key {
		case "site_title":
			appSettings.SiteTitle = setting.Value
		case "auto_generate_payments":
			appSettings.AutoGeneratePayments = setting.Value == "true"
		case "overdue_grace_days":
			if v, err := strconv.Atoi(setting.Value); err == nil {
				appSettings.OverdueGraceDays = v
			}
		case "backfill_lookahead_cycles":
			if v, err := strconv.Atoi(setting.Value); err == nil {
				appSettings.BackfillLookaheadCycles = v
			}
		case "sweep_interval_minutes":
			if v, err := strconv.Atoi(setting.Value); err == nil {
				appSettings.SweepIntervalMinutes = v
			}
		}
	}

	return nil
}

// SaveSettings saves current settings to database
func SaveSettings(db *gorm.DB, settings *AppSettings) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	settingsMap := map[string]string{
		"site_title":                settings.SiteTitle,
		"auto_generate_payments":    fmt.Sprintf("%t", settings.AutoGeneratePayments),
		"overdue_grace_days":        strconv.Itoa(settings.OverdueGraceDays),
		"backfill_lookahead_cycles": strconv.Itoa(settings.BackfillLookaheadCycles),
		"sweep_interval_minutes":    strconv.Itoa(settings.SweepIntervalMinutes),
	}

	for key, value := range settingsMap {
		var setting Setting
		result := db.Where("setting_key = ?", key).First(&setting)

		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				setting = Setting{
					Key:   key,
					Value: value,
					Type:  getSettingType(key),
				}
				if err := db.Create(&setting).Error; err != nil {
					return fmt.Errorf("failed to create setting %s: %w", key, err)
				}
			} else {
				return fmt.Errorf("failed to query setting %s: %w", key, result.Error)
			}
		} else {
			setting.Value = value
			if err := db.Save(&setting).Error; err != nil {
				return fmt.Errorf("failed to update setting %s: %w", key, err)
			}
		}
	}

	appSettings = settings
	return nil
}

// getSettingType returns the type of a setting based on its key
func getSettingType(key string) string {
	switch key {
	case "auto_generate_payments":
		return "boolean"
	case "overdue_grace_days", "backfill_lookahead_cycles", "sweep_interval_minutes":
		return "integer"
	default:
		return "string"
	}
}

// Validate validates the settings
func (s *AppSettings) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

// GetSiteTitle returns the site title
func (s *AppSettings) GetSiteTitle() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SiteTitle
}

// IsAutoGeneratePaymentsEnabled reports whether the ledger should create the
// next obligation when one is settled.
func (s *AppSettings) IsAutoGeneratePaymentsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.AutoGeneratePayments
}

// GetOverdueGraceDays returns the grace period before a pending payment is
// marked overdue.
func (s *AppSettings) GetOverdueGraceDays() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.OverdueGraceDays
}

// GetBackfillLookaheadCycles returns how many upcoming billing cycles the
// backfill sweep provisions per contract.
func (s *AppSettings) GetBackfillLookaheadCycles() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.BackfillLookaheadCycles
}

// GetSweepIntervalMinutes returns the sweep cadence for the background manager.
func (s *AppSettings) GetSweepIntervalMinutes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SweepIntervalMinutes
}
