package wiki

import (
	"database/sql"
	"encoding/base64"
	"log/slog"
	"strconv"

	"github.com/gorilla/securecookie"
)

// RuntimeConfig holds configuration values stored in the database.
// These settings can be modified at runtime without restarting the
// application.
type RuntimeConfig struct {
	CookieSecret          []byte
	CookieExpiry          int
	MinimumPasswordLength int
	AllowSignups          bool
	ModerationRequired    bool
}

// Setting key constants
const (
	SettingCookieSecret       = "cookie_secret"
	SettingCookieExpiry       = "cookie_expiry"
	SettingMinPasswordLength  = "min_password_length"
	SettingAllowSignups       = "allow_signups"
	SettingModerationRequired = "moderation_required"
)

// Default values for runtime settings
const (
	DefaultCookieExpiry       = 604800 // 7 days
	DefaultMinPasswordLength  = 8
	DefaultAllowSignups       = true
	DefaultModerationRequired = true
)

// LoadRuntimeConfig loads runtime configuration from the database.
// If settings don't exist, it creates them with default values.
func LoadRuntimeConfig(db *sql.DB) (*RuntimeConfig, error) {
	config := &RuntimeConfig{}

	cookieSecretB64, err := GetOrCreateSetting(db, SettingCookieSecret, func() string {
		secret := securecookie.GenerateRandomKey(64)
		if secret == nil {
			slog.Error("failed to generate cookie secret")
			return ""
		}
		return base64.StdEncoding.EncodeToString(secret)
	})
	if err != nil {
		return nil, err
	}
	config.CookieSecret, err = base64.StdEncoding.DecodeString(cookieSecretB64)
	if err != nil {
		return nil, err
	}

	cookieExpiryStr, err := GetOrCreateSetting(db, SettingCookieExpiry, func() string {
		return strconv.Itoa(DefaultCookieExpiry)
	})
	if err != nil {
		return nil, err
	}
	config.CookieExpiry, err = strconv.Atoi(cookieExpiryStr)
	if err != nil {
		return nil, err
	}

	minPwLengthStr, err := GetOrCreateSetting(db, SettingMinPasswordLength, func() string {
		return strconv.Itoa(DefaultMinPasswordLength)
	})
	if err != nil {
		return nil, err
	}
	config.MinimumPasswordLength, err = strconv.Atoi(minPwLengthStr)
	if err != nil {
		return nil, err
	}

	allowSignupsStr, err := GetOrCreateSetting(db, SettingAllowSignups, func() string {
		return strconv.FormatBool(DefaultAllowSignups)
	})
	if err != nil {
		return nil, err
	}
	config.AllowSignups, err = strconv.ParseBool(allowSignupsStr)
	if err != nil {
		return nil, err
	}

	moderationStr, err := GetOrCreateSetting(db, SettingModerationRequired, func() string {
		return strconv.FormatBool(DefaultModerationRequired)
	})
	if err != nil {
		return nil, err
	}
	config.ModerationRequired, err = strconv.ParseBool(moderationStr)
	if err != nil {
		return nil, err
	}

	slog.Info("runtime config loaded from database")
	return config, nil
}

// GetOrCreateSetting retrieves a setting from the database, or creates it
// with the value returned by defaultFn if it doesn't exist.
func GetOrCreateSetting(db *sql.DB, key string, defaultFn func() string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM Setting WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		value = defaultFn()
		_, err = db.Exec(
			"INSERT INTO Setting (key, value) VALUES (?, ?)",
			key, value,
		)
		if err != nil {
			return "", err
		}
		slog.Info("created default setting", "key", key)
		return value, nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// UpdateSetting updates an existing setting or creates it if it doesn't
// exist.
func UpdateSetting(db *sql.DB, key string, value string) error {
	result, err := db.Exec(
		"UPDATE Setting SET value = ?, updated_at = CURRENT_TIMESTAMP WHERE key = ?",
		value, key,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		_, err = db.Exec(
			"INSERT INTO Setting (key, value) VALUES (?, ?)",
			key, value,
		)
		return err
	}
	return nil
}
