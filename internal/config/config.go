package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = ".env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	// MemoryURI хранение в памяти процесса без postgres
	MemoryURI = "memory://"
	// JournalPostgres журнал workflow в той же базе; при memory:// журнал тоже в памяти
	JournalPostgres = "postgres"
	JournalMemory   = "memory"
	journalSQLite   = "sqlite:"
)

type Config struct {
	Env      string `validate:"oneof=local dev prod"`
	Server   server
	DB       db
	Logger   logger
	Upstream upstream
	Sync     syncConfig
	Workflow workflow
	Admin    admin
}

type server struct {
	RunAddress string `env:"RUN_ADDRESS" validate:"required"`
}

type db struct {
	DatabaseURI string `env:"DATABASE_URI" validate:"required"`
}

type logger struct {
	LogLevel string `env:"LOG_LEVEL" validate:"omitempty,oneof=debug info warn error"`
	LogFile  string `env:"LOG_FILE"`
}

type upstream struct {
	BaseURL string        `env:"STORTINGET_BASE_URL" validate:"required,url"`
	Timeout time.Duration `env:"UPSTREAM_TIMEOUT" validate:"gt=0"`
	RPS     float64       `env:"UPSTREAM_RPS" validate:"gt=0"`
}

type syncConfig struct {
	BatchSize           int           `env:"SYNC_BATCH_SIZE" validate:"min=1,max=1000"`
	VoteParallelism     int           `env:"SYNC_VOTE_PARALLELISM" validate:"min=0"`
	ProposalParallelism int           `env:"SYNC_PROPOSAL_PARALLELISM" validate:"min=0"`
	RetryAttempts       int           `env:"SYNC_RETRY_ATTEMPTS" validate:"min=1,max=20"`
	RetryBackoff        time.Duration `env:"SYNC_RETRY_BACKOFF" validate:"gt=0"`
	Cron                string        `env:"SYNC_CRON" validate:"required"`
	CronTZ              string        `env:"SYNC_CRON_TZ" validate:"required"`
	RetentionDays       int           `env:"SYNC_RETENTION_DAYS" validate:"min=1"`
}

type workflow struct {
	Journal string `env:"WORKFLOW_JOURNAL" validate:"required"`
}

type admin struct {
	TokenHash string `env:"ADMIN_TOKEN_HASH"`
}

// MemoryStorage включен режим хранения в памяти
func (c *Config) MemoryStorage() bool {
	return c.DB.DatabaseURI == MemoryURI
}

// SQLiteJournal путь к файлу журнала, если выбран sqlite
func (c *Config) SQLiteJournal() (string, bool) {
	if !strings.HasPrefix(c.Workflow.Journal, journalSQLite) {
		return "", false
	}
	return strings.TrimPrefix(c.Workflow.Journal, journalSQLite), true
}

// Loader читает конфигурацию из .env, окружения и необязательного YAML-файла
type Loader struct {
	v    *viper.Viper
	path string
}

func NewLoader(path string) *Loader {
	return &Loader{v: viper.New(), path: path}
}

func (l *Loader) setDefaults() {
	l.v.SetDefault("app_env", EnvProd)
	l.v.SetDefault("run_address", ":8080")
	l.v.SetDefault("database_uri", "")
	l.v.SetDefault("log_level", "")
	l.v.SetDefault("log_file", "")
	l.v.SetDefault("stortinget_base_url", "https://data.stortinget.no")
	l.v.SetDefault("upstream_timeout", 30*time.Second)
	l.v.SetDefault("upstream_rps", 10.0)
	l.v.SetDefault("sync_batch_size", 50)
	l.v.SetDefault("sync_vote_parallelism", 16)
	l.v.SetDefault("sync_proposal_parallelism", 16)
	l.v.SetDefault("sync_retry_attempts", 5)
	l.v.SetDefault("sync_retry_backoff", time.Second)
	l.v.SetDefault("sync_cron", "0 3 * * *")
	l.v.SetDefault("sync_cron_tz", "UTC")
	l.v.SetDefault("sync_retention_days", 30)
	l.v.SetDefault("workflow_journal", JournalPostgres)
	l.v.SetDefault("admin_token_hash", "")
}

// Load собирает и проверяет конфигурацию
func (l *Loader) Load() (*Config, error) {
	// .env необязателен, переменные окружения имеют приоритет
	_ = godotenv.Load(envPath)

	l.setDefaults()
	l.v.AutomaticEnv()

	if l.path != "" {
		l.v.SetConfigFile(l.path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", l.path, err)
		}
	}

	cfg := l.build()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad как Load, но паникует при ошибке
func (l *Loader) MustLoad() *Config {
	cfg, err := l.Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Watch вызывает fn с новой конфигурацией при изменении файла.
// Без файла конфигурации ничего не делает.
func (l *Loader) Watch(fn func(*Config)) {
	if l.path == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg := l.build()
		if err := Validate(cfg); err != nil {
			return
		}
		fn(cfg)
	})
	l.v.WatchConfig()
}

func (l *Loader) build() *Config {
	v := l.v
	return &Config{
		Env:    v.GetString("app_env"),
		Server: server{RunAddress: v.GetString("run_address")},
		DB:     db{DatabaseURI: v.GetString("database_uri")},
		Logger: logger{
			LogLevel: strings.ToLower(v.GetString("log_level")),
			LogFile:  v.GetString("log_file"),
		},
		Upstream: upstream{
			BaseURL: v.GetString("stortinget_base_url"),
			Timeout: v.GetDuration("upstream_timeout"),
			RPS:     v.GetFloat64("upstream_rps"),
		},
		Sync: syncConfig{
			BatchSize:           v.GetInt("sync_batch_size"),
			VoteParallelism:     v.GetInt("sync_vote_parallelism"),
			ProposalParallelism: v.GetInt("sync_proposal_parallelism"),
			RetryAttempts:       v.GetInt("sync_retry_attempts"),
			RetryBackoff:        v.GetDuration("sync_retry_backoff"),
			Cron:                v.GetString("sync_cron"),
			CronTZ:              v.GetString("sync_cron_tz"),
			RetentionDays:       v.GetInt("sync_retention_days"),
		},
		Workflow: workflow{Journal: v.GetString("workflow_journal")},
		Admin:    admin{TokenHash: v.GetString("admin_token_hash")},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate проверяет значения и согласованность настроек
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := time.LoadLocation(cfg.Sync.CronTZ); err != nil {
		return fmt.Errorf("invalid config: SYNC_CRON_TZ: %w", err)
	}
	if path, ok := cfg.SQLiteJournal(); ok && path == "" {
		return fmt.Errorf("invalid config: WORKFLOW_JOURNAL sqlite path is empty")
	}
	if _, ok := cfg.SQLiteJournal(); !ok && cfg.Workflow.Journal != JournalPostgres && cfg.Workflow.Journal != JournalMemory {
		return fmt.Errorf("invalid config: unknown WORKFLOW_JOURNAL %q", cfg.Workflow.Journal)
	}
	return nil
}
