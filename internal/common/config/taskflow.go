package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/pkg/trace"
)

type (
	// TaskflowConfig is the configuration of the API server
	TaskflowConfig struct {
		Server    ServerConfig    `yaml:"server"`
		Database  DatabaseConfig  `yaml:"database"`
		Redis     RedisConfig     `yaml:"redis"`
		Push      PushConfig      `yaml:"push"`
		JWT       JWTConfig       `yaml:"jwt"`
		Logger    LoggerConfig    `yaml:"logger"`
		Tracing   trace.Config    `yaml:"tracing"`
		Metrics   MetricsConfig   `yaml:"metrics"`
		Bootstrap BootstrapConfig `yaml:"bootstrap"`
		I18n      I18nConfig      `yaml:"i18n"`
		Tasks     TasksConfig     `yaml:"tasks"`
	}

	ServerConfig struct {
		Port          int    `yaml:"port"`
		BaseURL       string `yaml:"base_url"`       // prefix for links sent in notifications
		SessionCookie string `yaml:"session_cookie"` // cookie that may carry the bearer token
		CookieSecure  bool   `yaml:"cookie_secure"`
		TimeZone      string `yaml:"time_zone"` // zone used to compute "today" for task windows
	}

	DatabaseConfig struct {
		Type         string `yaml:"type"`     // mysql, postgres, sqlite
		Host         string `yaml:"host"`     // localhost
		Port         int    `yaml:"port"`     // 3306 (for mysql), 5432 (for postgres)
		User         string `yaml:"user"`     // root (for mysql), postgres (for postgres)
		Password     string `yaml:"password"` // password
		DBName       string `yaml:"dbname"`   // database name, file path for sqlite
		SSLMode      string `yaml:"sslmode"`  // disable (for postgres)
		MaxOpenConns int    `yaml:"max_open_conns"`
	}

	PushConfig struct {
		VAPIDPublicKey  string          `yaml:"vapid_public_key"`
		VAPIDPrivateKey string          `yaml:"vapid_private_key"`
		Subject         string          `yaml:"subject"`
		Queue           PushQueueConfig `yaml:"queue"`
		BufferSize      int             `yaml:"buffer_size"` // in-process events awaiting dispatch
		Templates       PushTemplates   `yaml:"templates"`
	}

	PushQueueConfig struct {
		Key        string        `yaml:"key"`
		PopTimeout time.Duration `yaml:"pop_timeout"`
	}

	// PushTemplates are text/template sources rendered with sprig functions
	PushTemplates struct {
		Title string `yaml:"title"`
		Body  string `yaml:"body"`
		URL   string `yaml:"url"`
	}

	JWTConfig struct {
		SecretKey string        `yaml:"secret_key"`
		Duration  time.Duration `yaml:"duration"`
	}

	MetricsConfig struct {
		Enabled   bool      `yaml:"enabled"`
		Path      string    `yaml:"path"`
		Namespace string    `yaml:"namespace"`
		Buckets   []float64 `yaml:"buckets"`
	}

	BootstrapConfig struct {
		Username        string `yaml:"username"`
		DisplayName     string `yaml:"display_name"`
		CredentialsFile string `yaml:"credentials_file"`
	}

	// I18nConfig represents the internationalization configuration
	I18nConfig struct {
		Path string `yaml:"path"` // Path to i18n translation files
	}

	TasksConfig struct {
		CounterStore string `yaml:"counter_store"` // database or redis
		CounterKey   string `yaml:"counter_key"`   // redis key when counter_store is redis
		MaxBatch     int    `yaml:"max_batch"`     // max assignees per bulk create
	}

	// PushWorkerConfig is the configuration of the push queue consumer
	PushWorkerConfig struct {
		Redis  RedisConfig     `yaml:"redis"`
		Queue  PushQueueConfig `yaml:"queue"`
		Push   PushConfig      `yaml:"push"`
		Logger LoggerConfig    `yaml:"logger"`
		DryRun bool            `yaml:"dry_run"`
	}
)

func (c *TaskflowConfig) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.SessionCookie == "" {
		c.Server.SessionCookie = cnst.DefaultSessionCookie
	}
	if c.JWT.Duration <= 0 {
		c.JWT.Duration = 90 * 24 * time.Hour
	}
	if c.Push.BufferSize <= 0 {
		c.Push.BufferSize = 256
	}
	c.Push.Queue.applyDefaults()
	c.Push.Templates.applyDefaults()
	c.Redis.applyDefaults()
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = cnst.AppName
	}
	if c.Bootstrap.Username == "" {
		c.Bootstrap.Username = "superadmin"
	}
	if c.Bootstrap.CredentialsFile == "" {
		c.Bootstrap.CredentialsFile = "data/superadmin_credentials.txt"
	}
	if c.Tasks.CounterStore == "" {
		c.Tasks.CounterStore = cnst.CounterStoreDatabase
	}
	if c.Tasks.CounterKey == "" {
		c.Tasks.CounterKey = "taskflow:task_num"
	}
	if c.Tasks.MaxBatch <= 0 {
		c.Tasks.MaxBatch = 200
	}
}

func (t *PushTemplates) applyDefaults() {
	if t.Title == "" {
		t.Title = "Task Scheduler"
	}
	if t.Body == "" {
		t.Body = "You've got tasks."
	}
	if t.URL == "" {
		t.URL = `{{ .BaseURL | trimSuffix "/" }}/company/{{ .CompanySlug }}`
	}
}

func (c *PushWorkerConfig) applyDefaults() {
	c.Redis.applyDefaults()
	c.Queue.applyDefaults()
	if c.Push.VAPIDPrivateKey == "" {
		c.DryRun = true
	}
}

// Location returns the configured time zone, falling back to local time
func (c *ServerConfig) Location() *time.Location {
	if c.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	switch c.Type {
	case cnst.DatabaseTypePostgres:
		return c.getPostgresDSN()
	case cnst.DatabaseTypeMySQL:
		return c.getMySQLDSN()
	case cnst.DatabaseTypeSQLite:
		if c.DBName == ":memory:" {
			return c.DBName
		}
		// Ensure the directory for the SQLite database exists.
		if err := os.MkdirAll(filepath.Dir(c.DBName), 0755); err != nil {
			panic(fmt.Errorf("failed to create directory for sqlite database: %w", err))
		}
		return c.DBName // For SQLite, DBName is the file path
	default:
		return ""
	}
}

// getPostgresDSN returns PostgreSQL connection string
func (c *DatabaseConfig) getPostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// getMySQLDSN returns MySQL connection string
func (c *DatabaseConfig) getMySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}
