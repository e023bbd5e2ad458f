package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type ReminderConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Time     string   `mapstructure:"time"`     // "08:00"
	Workdays []string `mapstructure:"workdays"` // ["Mon","Tue","Wed","Thu","Fri"]
	Holidays []string `mapstructure:"holidays"` // ["2025-01-01", "2025-05-01"]
}

type SelectionConfig struct {
	SettleDelay  time.Duration `mapstructure:"settle_delay"`
	PersistDelay time.Duration `mapstructure:"persist_delay"`
}

type Config struct {
	Timezone          string          `mapstructure:"timezone"` // e.g. "Europe/Paris" (optional)
	DataDir           string          `mapstructure:"data_dir"`
	LogLevel          string          `mapstructure:"log_level"`
	UrgentWithinHours int             `mapstructure:"urgent_within_hours"`
	Selection         SelectionConfig `mapstructure:"selection"`
	Reminder          ReminderConfig  `mapstructure:"reminder"`
}

func Default() Config {
	return Config{
		Timezone:          "",
		DataDir:           "",
		LogLevel:          "info",
		UrgentWithinHours: 6,
		Selection: SelectionConfig{
			SettleDelay:  200 * time.Millisecond,
			PersistDelay: 300 * time.Millisecond,
		},
		Reminder: ReminderConfig{
			Enabled:  false,
			Time:     "08:00",
			Workdays: []string{"Mon", "Tue", "Wed", "Thu", "Fri"},
			Holidays: []string{},
		},
	}
}

func xdgConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".config", "incubator")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the user config file, falling back to defaults when it is missing.
func Load() (Config, error) {
	path, err := xdgConfigPath()
	if err != nil {
		return Default(), err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. INCUBATOR_* environment variables
// override file values, e.g. INCUBATOR_REMINDER_ENABLED=false.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	v.SetEnvPrefix("incubator")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// defaults
	v.SetDefault("timezone", cfg.Timezone)
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("urgent_within_hours", cfg.UrgentWithinHours)
	v.SetDefault("selection.settle_delay", cfg.Selection.SettleDelay)
	v.SetDefault("selection.persist_delay", cfg.Selection.PersistDelay)
	v.SetDefault("reminder.enabled", cfg.Reminder.Enabled)
	v.SetDefault("reminder.time", cfg.Reminder.Time)
	v.SetDefault("reminder.workdays", cfg.Reminder.Workdays)
	v.SetDefault("reminder.holidays", cfg.Reminder.Holidays)

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("config read: %w", err)
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config unmarshal: %w", err)
	}

	cfg.Reminder.Workdays = NormalizeWorkdays(cfg.Reminder.Workdays)
	if cfg.UrgentWithinHours <= 0 {
		cfg.UrgentWithinHours = Default().UrgentWithinHours
	}
	return cfg, nil
}

var titler = cases.Title(language.English)

// NormalizeWorkdays maps "monday", " TUE" and friends to "Mon", "Tue".
// Entries shorter than three letters are dropped.
func NormalizeWorkdays(days []string) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		d = strings.TrimSpace(d)
		if len(d) < 3 {
			continue
		}
		out = append(out, titler.String(strings.ToLower(d[:3])))
	}
	return out
}

func (c Config) Location() *time.Location {
	if tz := strings.TrimSpace(c.Timezone); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.Local
}

// DataPath returns the directory holding the database and selection cache.
func (c Config) DataPath() (string, error) {
	base := strings.TrimSpace(c.DataDir)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share", "incubator")
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", err
	}
	return base, nil
}

// UrgentWithin is the remaining time below which a pending reading is flagged.
func (c Config) UrgentWithin() time.Duration {
	return time.Duration(c.UrgentWithinHours) * time.Hour
}
