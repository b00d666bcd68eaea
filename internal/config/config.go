// Package config - конфигурация dev-сервера.
//
// Использует Viper для:
// - Загрузки из YAML файлов
// - Переменных окружения
// - Значений по умолчанию
//
// Порядок приоритета (от высшего к низшему):
// 1. Флаги командной строки (только явно заданные)
// 2. Environment variables
// 3. Config file
// 4. Default values
//
// Без файла и переменных окружения сервер ведёт себя как раньше:
// порт 8000, текущая директория, CORS для всех origins.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	domainerrors "github.com/Haleralex/tokenforge-devserver/internal/domain/errors"
)

// EnvPrefix - префикс переменных окружения (DEVSERVER_SERVER_PORT и т.д.).
const EnvPrefix = "DEVSERVER"

// ============================================
// Main Configuration
// ============================================

// Config - главная структура конфигурации приложения.
//
// После Load значения не меняются: сервер получает их в конструкторах.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Static  StaticConfig  `mapstructure:"static"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Browser BrowserConfig `mapstructure:"browser"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// ============================================
// App Configuration
// ============================================

// AppConfig - конфигурация приложения.
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment" validate:"oneof=development test"`
}

// ============================================
// Server Configuration
// ============================================

// ServerConfig - конфигурация HTTP сервера.
type ServerConfig struct {
	Host            string        `mapstructure:"host"` // "" - все интерфейсы
	Port            int           `mapstructure:"port" validate:"min=0,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"min=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

// Address возвращает адрес для прослушивания.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ============================================
// Static Files Configuration
// ============================================

// StaticConfig - откуда и как раздавать файлы.
type StaticConfig struct {
	Dir   string `mapstructure:"dir" validate:"required"`
	Index string `mapstructure:"index" validate:"required,excludes=/"`
}

// ============================================
// CORS Configuration
// ============================================

// CORSConfig - конфигурация CORS.
//
// По умолчанию origins = ["*"]: три заголовка есть в каждом ответе.
// Список конкретных origins - явный отказ от этого: заголовки получают
// только запросы с совпавшим Origin.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"min=1"`
	AllowedMethods []string `mapstructure:"allowed_methods" validate:"min=1"`
	AllowedHeaders []string `mapstructure:"allowed_headers" validate:"min=1"`
}

// ============================================
// Browser Configuration
// ============================================

// BrowserConfig - автоматическое открытие браузера при старте.
type BrowserConfig struct {
	Open bool `mapstructure:"open"`
}

// ============================================
// Log Configuration
// ============================================

// LogConfig - конфигурация логирования.
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format     string `mapstructure:"format" validate:"oneof=json text"`
	Output     string `mapstructure:"output" validate:"oneof=stdout stderr file"`
	FilePath   string `mapstructure:"file_path" validate:"required_if=Output file"`
	MaxSize    int    `mapstructure:"max_size"`    // MB
	MaxBackups int    `mapstructure:"max_backups"` // количество файлов
	MaxAge     int    `mapstructure:"max_age"`     // дней
	Compress   bool   `mapstructure:"compress"`
}

// ============================================
// Metrics Configuration
// ============================================

// MetricsConfig - Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ============================================
// Tracing Configuration
// ============================================

// TracingConfig - экспорт трейсов в OTLP collector.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint" validate:"required_if=Enabled true"`
	ServiceName string `mapstructure:"service_name"`
	Insecure    bool   `mapstructure:"insecure"`
}

// ============================================
// Configuration Loading
// ============================================

// Options управляет источниками конфигурации.
type Options struct {
	// ConfigFile - явный путь к YAML файлу (необязателен)
	ConfigFile string
	// Flags - флаги командной строки; привязываются к ключам viper
	Flags *pflag.FlagSet
}

// flagBindings - соответствие флагов CLI ключам конфигурации.
var flagBindings = map[string]string{
	"port":       "server.port",
	"host":       "server.host",
	"dir":        "static.dir",
	"no-browser": "browser.open",
	"log-level":  "log.level",
}

// Load загружает конфигурацию из файла, переменных окружения и флагов.
//
// Отсутствие файла не ошибка: используются defaults и env vars.
func Load(opts Options) (*Config, error) {
	v := viper.New()

	// Устанавливаем defaults
	setDefaults(v)

	// Переменные окружения
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Читаем конфигурационный файл
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("devserver")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// Файл не найден - используем defaults и env vars
		}
	}

	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, err
		}
	}

	// Парсим в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	// Валидируем конфигурацию
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// bindFlags привязывает только явно заданные флаги, чтобы значения
// флагов по умолчанию не перекрывали файл и env.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.Visit(func(f *pflag.Flag) {
		key, ok := flagBindings[f.Name]
		if !ok || bindErr != nil {
			return
		}
		// --no-browser инвертирует browser.open
		if f.Name == "no-browser" {
			noBrowser, err := flags.GetBool(f.Name)
			if err != nil {
				bindErr = err
				return
			}
			v.Set(key, !noBrowser)
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("failed to bind flag %q: %w", f.Name, err)
		}
	})
	return bindErr
}

// setDefaults устанавливает значения по умолчанию.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "TokenForge Pro")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	// Server defaults
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "5s")

	// Static defaults
	v.SetDefault("static.dir", ".")
	v.SetDefault("static.index", "index.html")

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type"})

	// Browser defaults
	v.SetDefault("browser.open", true)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.file_path", "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 7)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "tokenforge-devserver")
	v.SetDefault("tracing.insecure", true)
}

// normalize приводит путь к директории к абсолютному виду.
func (c *Config) normalize() error {
	if c.Static.Dir == "" {
		return nil
	}
	abs, err := filepath.Abs(c.Static.Dir)
	if err != nil {
		return fmt.Errorf("failed to resolve static dir %q: %w", c.Static.Dir, err)
	}
	c.Static.Dir = abs
	return nil
}

// ============================================
// Configuration Validation
// ============================================

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate валидирует конфигурацию.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed on '%s'", domainerrors.ErrInvalidConfig, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", domainerrors.ErrInvalidConfig, err)
	}
	return nil
}

// ============================================
// Development Helpers
// ============================================

// Development возвращает конфигурацию для разработки.
func Development() *Config {
	return &Config{
		App: AppConfig{
			Name:        "TokenForge Pro",
			Version:     "dev",
			Environment: "development",
		},
		Server: ServerConfig{
			Host:            "",
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Static: StaticConfig{
			Dir:   ".",
			Index: "index.html",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		},
		Browser: BrowserConfig{
			Open: true,
		},
		Log: LogConfig{
			Level:  "debug",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Tracing: TracingConfig{
			ServiceName: "tokenforge-devserver",
		},
	}
}

// Test возвращает конфигурацию для тестов: случайный порт, без браузера.
func Test(dir string) *Config {
	cfg := Development()
	cfg.App.Environment = "test"
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Static.Dir = dir
	cfg.Browser.Open = false
	cfg.Log.Level = "error" // Меньше шума в тестах
	return cfg
}
