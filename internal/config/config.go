package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	S3       S3Config
	Email    EmailConfig
	Monitor  MonitorConfig
	Matching MatchingConfig
	Compare  CompareConfig
	CORS     CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds the AWS S3 intake bucket settings. IntakePrefix is where
// incoming invoice files land; ProcessedPrefix and FailedPrefix receive the
// files after a cycle moves them.
type S3Config struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKey       string `mapstructure:"access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	IntakePrefix    string `mapstructure:"intake_prefix"`
	ProcessedPrefix string `mapstructure:"processed_prefix"`
	FailedPrefix    string `mapstructure:"failed_prefix"`
}

// EmailConfig holds cycle report delivery settings.
type EmailConfig struct {
	Provider    string   `mapstructure:"provider"`
	Region      string   `mapstructure:"region"`
	FromAddress string   `mapstructure:"from_address"`
	FromName    string   `mapstructure:"from_name"`
	ToAddresses []string `mapstructure:"to_addresses"`
}

// MonitorConfig holds reconciliation cycle scheduling settings.
type MonitorConfig struct {
	CronSpec    string `mapstructure:"cron_spec"`
	Concurrency int    `mapstructure:"concurrency"`
	RunOnStart  bool   `mapstructure:"run_on_start"`
	SendReport  bool   `mapstructure:"send_report"`
	// AutoApproveClean moves matched records with no discrepancies straight
	// from pending to approved, recorded under the system actor.
	AutoApproveClean bool `mapstructure:"auto_approve_clean"`
}

// MatchingConfig holds purchase order matching weights and thresholds.
type MatchingConfig struct {
	VendorWeight      float64 `mapstructure:"vendor_weight"`
	AmountWeight      float64 `mapstructure:"amount_weight"`
	RecencyWeight     float64 `mapstructure:"recency_weight"`
	AmountTolerance   float64 `mapstructure:"amount_tolerance"`
	RecencyWindowDays int     `mapstructure:"recency_window_days"`
	Threshold         float64 `mapstructure:"threshold"`
}

// CompareConfig holds discrepancy comparison thresholds.
type CompareConfig struct {
	AmountTolerance  float64 `mapstructure:"amount_tolerance"`
	BlockingFactor   float64 `mapstructure:"blocking_factor"`
	VendorSimilarity float64 `mapstructure:"vendor_similarity"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from environment variables with the RECON_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "porecon")
	v.SetDefault("db.password", "porecon_secret")
	v.SetDefault("db.name", "porecon_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "porecon-intake")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.intake_prefix", "intake/")
	v.SetDefault("s3.processed_prefix", "processed/")
	v.SetDefault("s3.failed_prefix", "failed/")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_address", "reports@porecon.local")
	v.SetDefault("email.from_name", "Invoice Reconciliation")
	v.SetDefault("email.to_addresses", "")

	// Monitor defaults
	v.SetDefault("monitor.cron_spec", "@every 5m")
	v.SetDefault("monitor.concurrency", 5)
	v.SetDefault("monitor.run_on_start", true)
	v.SetDefault("monitor.send_report", false)
	v.SetDefault("monitor.auto_approve_clean", true)

	// Matching defaults
	v.SetDefault("matching.vendor_weight", 0.5)
	v.SetDefault("matching.amount_weight", 0.35)
	v.SetDefault("matching.recency_weight", 0.15)
	v.SetDefault("matching.amount_tolerance", 0.01)
	v.SetDefault("matching.recency_window_days", 90)
	v.SetDefault("matching.threshold", 0.65)

	// Compare defaults
	v.SetDefault("compare.amount_tolerance", 0.01)
	v.SetDefault("compare.blocking_factor", 1)
	v.SetDefault("compare.vendor_similarity", 0.85)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                  "RECON_SERVER_PORT",
		"server.read_timeout":          "RECON_SERVER_READ_TIMEOUT",
		"server.write_timeout":         "RECON_SERVER_WRITE_TIMEOUT",
		"server.environment":           "RECON_SERVER_ENVIRONMENT",
		"db.host":                      "RECON_DB_HOST",
		"db.port":                      "RECON_DB_PORT",
		"db.user":                      "RECON_DB_USER",
		"db.password":                  "RECON_DB_PASSWORD",
		"db.name":                      "RECON_DB_NAME",
		"db.sslmode":                   "RECON_DB_SSLMODE",
		"db.max_open":                  "RECON_DB_MAX_OPEN",
		"db.max_idle":                  "RECON_DB_MAX_IDLE",
		"s3.region":                    "RECON_S3_REGION",
		"s3.bucket":                    "RECON_S3_BUCKET",
		"s3.endpoint":                  "RECON_S3_ENDPOINT",
		"s3.access_key":                "RECON_S3_ACCESS_KEY",
		"s3.secret_key":                "RECON_S3_SECRET_KEY",
		"s3.intake_prefix":             "RECON_S3_INTAKE_PREFIX",
		"s3.processed_prefix":          "RECON_S3_PROCESSED_PREFIX",
		"s3.failed_prefix":             "RECON_S3_FAILED_PREFIX",
		"email.provider":               "RECON_EMAIL_PROVIDER",
		"email.region":                 "RECON_EMAIL_REGION",
		"email.from_address":           "RECON_EMAIL_FROM_ADDRESS",
		"email.from_name":              "RECON_EMAIL_FROM_NAME",
		"email.to_addresses":           "RECON_EMAIL_TO_ADDRESSES",
		"monitor.cron_spec":            "RECON_MONITOR_CRON_SPEC",
		"monitor.concurrency":          "RECON_MONITOR_CONCURRENCY",
		"monitor.run_on_start":         "RECON_MONITOR_RUN_ON_START",
		"monitor.send_report":          "RECON_MONITOR_SEND_REPORT",
		"monitor.auto_approve_clean":   "RECON_MONITOR_AUTO_APPROVE_CLEAN",
		"matching.vendor_weight":       "RECON_MATCHING_VENDOR_WEIGHT",
		"matching.amount_weight":       "RECON_MATCHING_AMOUNT_WEIGHT",
		"matching.recency_weight":      "RECON_MATCHING_RECENCY_WEIGHT",
		"matching.amount_tolerance":    "RECON_MATCHING_AMOUNT_TOLERANCE",
		"matching.recency_window_days": "RECON_MATCHING_RECENCY_WINDOW_DAYS",
		"matching.threshold":           "RECON_MATCHING_THRESHOLD",
		"compare.amount_tolerance":     "RECON_COMPARE_AMOUNT_TOLERANCE",
		"compare.blocking_factor":      "RECON_COMPARE_BLOCKING_FACTOR",
		"compare.vendor_similarity":    "RECON_COMPARE_VENDOR_SIMILARITY",
		"cors.allowed_origins":         "RECON_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if RECON_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("RECON_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:          v.GetString("s3.region"),
		Bucket:          v.GetString("s3.bucket"),
		Endpoint:        v.GetString("s3.endpoint"),
		AccessKey:       v.GetString("s3.access_key"),
		SecretKey:       v.GetString("s3.secret_key"),
		IntakePrefix:    v.GetString("s3.intake_prefix"),
		ProcessedPrefix: v.GetString("s3.processed_prefix"),
		FailedPrefix:    v.GetString("s3.failed_prefix"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		ToAddresses: splitList(v.GetString("email.to_addresses")),
	}
	cfg.Monitor = MonitorConfig{
		CronSpec:         v.GetString("monitor.cron_spec"),
		Concurrency:      v.GetInt("monitor.concurrency"),
		RunOnStart:       v.GetBool("monitor.run_on_start"),
		SendReport:       v.GetBool("monitor.send_report"),
		AutoApproveClean: v.GetBool("monitor.auto_approve_clean"),
	}
	cfg.Matching = MatchingConfig{
		VendorWeight:      v.GetFloat64("matching.vendor_weight"),
		AmountWeight:      v.GetFloat64("matching.amount_weight"),
		RecencyWeight:     v.GetFloat64("matching.recency_weight"),
		AmountTolerance:   v.GetFloat64("matching.amount_tolerance"),
		RecencyWindowDays: v.GetInt("matching.recency_window_days"),
		Threshold:         v.GetFloat64("matching.threshold"),
	}
	cfg.Compare = CompareConfig{
		AmountTolerance:  v.GetFloat64("compare.amount_tolerance"),
		BlockingFactor:   v.GetFloat64("compare.blocking_factor"),
		VendorSimilarity: v.GetFloat64("compare.vendor_similarity"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Compare.AmountTolerance < 0 {
		return fmt.Errorf("compare.amount_tolerance must be non-negative")
	}
	if cfg.Compare.BlockingFactor < 1 {
		return fmt.Errorf("compare.blocking_factor must be at least 1")
	}
	if cfg.Matching.Threshold < 0 || cfg.Matching.Threshold > 1 {
		return fmt.Errorf("matching.threshold must be within [0, 1]")
	}
	if cfg.Monitor.Concurrency < 1 {
		return fmt.Errorf("monitor.concurrency must be at least 1")
	}
	return nil
}

// splitList parses a comma-separated string, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
