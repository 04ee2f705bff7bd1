package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-sql-driver/mysql"
)

// Fetch window policies.
const (
	WindowCalendar = "calendar" // window ends on the first day of the next month
	WindowDay28    = "day28"    // window ends on day 28 of the month
)

// Dashboard evaluation engines.
const (
	EngineMemory = "memory"
	EngineSQL    = "sql"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// USGS event API.
	USGSBaseURL      string
	USGSTimeout      time.Duration
	MinMagnitude     float64
	StartYear        int
	EndYear          int
	FetchWindowEnd   string
	FetchConcurrency int
	DedupEnabled     bool

	CSVPath string

	// Relational store.
	DBEnabled   bool
	DBDriver    string
	DBDSN       string
	DBTable     string
	DBBatchSize int

	// Optional Kafka sink, enabled when brokers are set.
	KafkaBrokers []string
	KafkaTopic   string

	DashboardSources   []string
	DashboardEngine    string
	DashboardCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	usgsTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("USGS_TIMEOUT", "30s"))
	if err != nil || usgsTimeout <= 0 {
		return nil, errors.New("invalid USGS_TIMEOUT")
	}

	minMag, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("MIN_MAGNITUDE", "4"), 64)
	if err != nil {
		return nil, errors.New("invalid MIN_MAGNITUDE")
	}

	startYear, err := parsePositiveInt("START_YEAR", "2020")
	if err != nil {
		return nil, err
	}
	endYear, err := parsePositiveInt("END_YEAR", "2024")
	if err != nil {
		return nil, err
	}
	concurrency, err := parsePositiveInt("FETCH_CONCURRENCY", "1")
	if err != nil {
		return nil, err
	}
	batchSize, err := parsePositiveInt("DB_BATCH_SIZE", "1000")
	if err != nil {
		return nil, err
	}

	driver := sharedcfg.EnvOrDefault("DB_DRIVER", "mysql")
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn, err = buildDSN(driver)
		if err != nil {
			return nil, err
		}
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		USGSBaseURL:      sharedcfg.EnvOrDefault("USGS_BASE_URL", "https://earthquake.usgs.gov/fdsnws/event/1/query"),
		USGSTimeout:      usgsTimeout,
		MinMagnitude:     minMag,
		StartYear:        startYear,
		EndYear:          endYear,
		FetchWindowEnd:   sharedcfg.EnvOrDefault("FETCH_WINDOW_END", WindowCalendar),
		FetchConcurrency: concurrency,
		DedupEnabled:     os.Getenv("DEDUP_ENABLED") == "true",

		CSVPath: sharedcfg.EnvOrDefault("CSV_PATH", "raw_earthquake_data.csv"),

		DBEnabled:   os.Getenv("DB_ENABLED") == "true",
		DBDriver:    driver,
		DBDSN:       dsn,
		DBTable:     sharedcfg.EnvOrDefault("DB_TABLE", "earthquakes_raw"),
		DBBatchSize: batchSize,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "quake-events"),

		DashboardSources:   splitList(sharedcfg.EnvOrDefault("DASHBOARD_SOURCES", "store,file")),
		DashboardEngine:    sharedcfg.EnvOrDefault("DASHBOARD_ENGINE", EngineMemory),
		DashboardCacheSize: parseCacheSize(),
	}

	if cfg.EndYear < cfg.StartYear {
		return nil, errors.New("END_YEAR must not be before START_YEAR")
	}
	if cfg.FetchWindowEnd != WindowCalendar && cfg.FetchWindowEnd != WindowDay28 {
		return nil, fmt.Errorf("invalid FETCH_WINDOW_END %q", cfg.FetchWindowEnd)
	}
	if cfg.DashboardEngine != EngineMemory && cfg.DashboardEngine != EngineSQL {
		return nil, fmt.Errorf("invalid DASHBOARD_ENGINE %q", cfg.DashboardEngine)
	}
	if len(cfg.DashboardSources) == 0 {
		return nil, errors.New("DASHBOARD_SOURCES is required")
	}
	for _, s := range cfg.DashboardSources {
		if s != "store" && s != "file" {
			return nil, fmt.Errorf("invalid DASHBOARD_SOURCES entry %q", s)
		}
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether the Kafka sink is configured.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// buildDSN assembles a connection string from the DB_* parts.
func buildDSN(driver string) (string, error) {
	host := sharedcfg.EnvOrDefault("DB_HOST", "localhost")
	user := sharedcfg.EnvOrDefault("DB_USER", "root")
	password := os.Getenv("DB_PASSWORD")
	name := sharedcfg.EnvOrDefault("DB_NAME", "guvi_project_01")

	switch driver {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = user
		mc.Passwd = password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(host, sharedcfg.EnvOrDefault("DB_PORT", "3306"))
		mc.DBName = name
		mc.ParseTime = true
		mc.Params = map[string]string{"time_zone": "'+00:00'"}
		return mc.FormatDSN(), nil
	case "pgx", "postgres":
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(user, password),
			Host:     net.JoinHostPort(host, sharedcfg.EnvOrDefault("DB_PORT", "5432")),
			Path:     "/" + name,
			RawQuery: "sslmode=disable",
		}
		return u.String(), nil
	case "sqlite", "sqlite3":
		return name + ".db", nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

func parsePositiveInt(key, def string) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseCacheSize() int {
	if s := os.Getenv("DASHBOARD_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 128
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
