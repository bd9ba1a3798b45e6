package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"cryo_booking_bot/internal/storage/models"
	"cryo_booking_bot/pkg/logger"
)

// DefaultSchedule повторяет стандартное недельное расписание студии
const DefaultSchedule = "0=09:00;1=19:00;4=19:00;5=19:00"

// Config содержит всю конфигурацию приложения
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Schedule ScheduleConfig `json:"schedule"`
	Redis    RedisConfig    `json:"redis"`
	Log      LogConfig      `json:"log"`
	Seed     SeedConfig     `json:"seed"`
}

// TelegramConfig содержит настройки Telegram бота.
// Пустой токен отключает бота.
type TelegramConfig struct {
	Token       string  `json:"-"`
	WebhookURL  string  `json:"webhook_url"`
	SecretToken string  `json:"-"`
	AdminIDs    []int64 `json:"admin_ids"`
}

// Enabled сообщает, настроен ли Telegram адаптер
func (t TelegramConfig) Enabled() bool {
	return t.Token != ""
}

// IsAdmin проверяет, принадлежит ли чат администратору
func (t TelegramConfig) IsAdmin(chatID int64) bool {
	for _, id := range t.AdminIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port            string        `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	RateLimitPerMin int           `json:"rate_limit_per_min"`
	// APIToken закрывает /api bearer токеном; пустой токен оставляет API открытым
	APIToken        string        `json:"-"`
}

// DatabaseConfig содержит настройки базы данных
type DatabaseConfig struct {
	Path string `json:"path"`
}

// ScheduleConfig содержит недельный шаблон и правила студии
type ScheduleConfig struct {
	Weekly           models.WeeklySchedule `json:"weekly"`
	Location         *time.Location        `json:"-"`
	TimeZone         string                `json:"time_zone"`
	LateChangeWindow time.Duration         `json:"late_change_window"`
	NotificationMins int                   `json:"notification_mins"`
}

// RedisConfig содержит настройки публикации уведомлений.
// Пустой адрес отключает публикацию.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"-"`
	DB       int    `json:"db"`
	Channel  string `json:"channel"`
}

// LogConfig содержит настройки логирования
type LogConfig struct {
	Level logger.LogLevel `json:"level"`
}

// SeedConfig управляет демонстрационными данными
type SeedConfig struct {
	Demo bool `json:"demo"`
}

// Load загружает конфигурацию из .env файла (если есть) и переменных окружения
func Load() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// FromEnv строит конфигурацию из текущего окружения без валидации
func FromEnv() (*Config, error) {
	adminIDs, err := ParseAdminIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_IDS: %w", err)
	}

	weekly, err := ParseSchedule(getEnv("SCHEDULE", DefaultSchedule))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE: %w", err)
	}

	level, err := logger.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	tz := getEnv("TIME_ZONE", "Europe/Warsaw")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE: %w", err)
	}

	return &Config{
		Telegram: TelegramConfig{
			Token:       os.Getenv("TELEGRAM_TOKEN"),
			WebhookURL:  os.Getenv("WEBHOOK_URL"),
			SecretToken: os.Getenv("WEBHOOK_SECRET"),
			AdminIDs:    adminIDs,
		},
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			RateLimitPerMin: getEnvAsInt("RATE_LIMIT_PER_MIN", 100),
			APIToken:        os.Getenv("API_TOKEN"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_FILE", ":memory:"),
		},
		Schedule: ScheduleConfig{
			Weekly:           weekly,
			Location:         loc,
			TimeZone:         tz,
			LateChangeWindow: getEnvAsDuration("LATE_CHANGE_WINDOW", 24*time.Hour),
			NotificationMins: getEnvAsInt("NOTIFICATION_MINS", 60),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Channel:  getEnv("REDIS_CHANNEL", "cryo:render"),
		},
		Log: LogConfig{
			Level: level,
		},
		Seed: SeedConfig{
			Demo: getEnvAsBool("SEED_DEMO", true),
		},
	}, nil
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Telegram.Enabled() && c.Telegram.WebhookURL == "" {
		return fmt.Errorf("WEBHOOK_URL is required when TELEGRAM_TOKEN is set")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid PORT %q: %w", c.Server.Port, err)
	}
	if c.Server.RateLimitPerMin <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MIN must be positive")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DB_FILE must not be empty")
	}
	if c.Schedule.LateChangeWindow < 0 {
		return fmt.Errorf("LATE_CHANGE_WINDOW must be non-negative")
	}
	if c.Schedule.NotificationMins < 0 {
		return fmt.Errorf("NOTIFICATION_MINS must be non-negative")
	}
	if c.Schedule.Location == nil {
		return fmt.Errorf("TIME_ZONE is not loaded")
	}
	if c.Redis.Addr != "" && c.Redis.Channel == "" {
		return fmt.Errorf("REDIS_CHANNEL must not be empty when REDIS_ADDR is set")
	}
	return nil
}

// ParseSchedule разбирает шаблон вида "1=19:00;4=19:00,20:00;0=09:00".
// Ключ это номер дня недели (0 = воскресенье).
func ParseSchedule(s string) (models.WeeklySchedule, error) {
	ws := models.WeeklySchedule{}
	s = strings.TrimSpace(s)
	if s == "" {
		return ws, nil
	}

	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		day, slots, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("entry %q: expected <weekday>=<HH:MM,...>", part)
		}
		wd, err := strconv.Atoi(strings.TrimSpace(day))
		if err != nil || wd < 0 || wd > 6 {
			return nil, fmt.Errorf("entry %q: weekday must be 0..6", part)
		}
		for _, slot := range strings.Split(slots, ",") {
			slot = strings.TrimSpace(slot)
			if slot == "" {
				continue
			}
			if _, err := time.Parse("15:04", slot); err != nil || len(slot) != 5 {
				return nil, fmt.Errorf("entry %q: invalid slot %q (expected HH:MM)", part, slot)
			}
			ws[time.Weekday(wd)] = append(ws[time.Weekday(wd)], slot)
		}
	}

	for wd := range ws {
		sort.Strings(ws[wd])
	}
	return ws, nil
}

// ParseAdminIDs разбирает список chat id администраторов через запятую
func ParseAdminIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a chat id", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// getEnv получает переменную окружения или возвращает значение по умолчанию
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvAsInt получает переменную окружения как число
func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvAsBool получает переменную окружения как bool
func getEnvAsBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvAsDuration получает переменную окружения как duration
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
