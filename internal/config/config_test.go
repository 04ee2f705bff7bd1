package config

import (
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, "https://earthquake.usgs.gov/fdsnws/event/1/query", cfg.USGSBaseURL)
	assert.Equal(t, 30*time.Second, cfg.USGSTimeout)
	assert.InDelta(t, 4.0, cfg.MinMagnitude, 1e-9)
	assert.Equal(t, 2020, cfg.StartYear)
	assert.Equal(t, 2024, cfg.EndYear)
	assert.Equal(t, WindowCalendar, cfg.FetchWindowEnd)
	assert.Equal(t, 1, cfg.FetchConcurrency)
	assert.False(t, cfg.DedupEnabled)

	assert.Equal(t, "raw_earthquake_data.csv", cfg.CSVPath)

	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "root@tcp(localhost:3306)/guvi_project_01?parseTime=true&time_zone=%27%2B00%3A00%27", cfg.DBDSN)
	assert.Equal(t, "earthquakes_raw", cfg.DBTable)
	assert.Equal(t, 1000, cfg.DBBatchSize)

	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "quake-events", cfg.KafkaTopic)

	assert.Equal(t, []string{"store", "file"}, cfg.DashboardSources)
	assert.Equal(t, EngineMemory, cfg.DashboardEngine)
	assert.Equal(t, 128, cfg.DashboardCacheSize)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("USGS_BASE_URL", "http://localhost:9999/query")
	t.Setenv("USGS_TIMEOUT", "5s")
	t.Setenv("MIN_MAGNITUDE", "5.5")
	t.Setenv("START_YEAR", "2022")
	t.Setenv("END_YEAR", "2023")
	t.Setenv("FETCH_WINDOW_END", "day28")
	t.Setenv("FETCH_CONCURRENCY", "4")
	t.Setenv("DEDUP_ENABLED", "true")
	t.Setenv("CSV_PATH", "/tmp/quakes.csv")
	t.Setenv("DB_ENABLED", "true")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "quake")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "quakes")
	t.Setenv("DB_TABLE", "events")
	t.Setenv("DB_BATCH_SIZE", "250")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-topic")
	t.Setenv("DASHBOARD_SOURCES", "file")
	t.Setenv("DASHBOARD_ENGINE", "sql")
	t.Setenv("DASHBOARD_CACHE_SIZE", "16")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://localhost:9999/query", cfg.USGSBaseURL)
	assert.Equal(t, 5*time.Second, cfg.USGSTimeout)
	assert.InDelta(t, 5.5, cfg.MinMagnitude, 1e-9)
	assert.Equal(t, 2022, cfg.StartYear)
	assert.Equal(t, 2023, cfg.EndYear)
	assert.Equal(t, WindowDay28, cfg.FetchWindowEnd)
	assert.Equal(t, 4, cfg.FetchConcurrency)
	assert.True(t, cfg.DedupEnabled)
	assert.Equal(t, "/tmp/quakes.csv", cfg.CSVPath)
	assert.True(t, cfg.DBEnabled)
	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Equal(t, "postgres://quake:secret@db:5432/quakes?sslmode=disable", cfg.DBDSN)
	assert.Equal(t, "events", cfg.DBTable)
	assert.Equal(t, 250, cfg.DBBatchSize)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "custom-topic", cfg.KafkaTopic)
	assert.Equal(t, []string{"file"}, cfg.DashboardSources)
	assert.Equal(t, EngineSQL, cfg.DashboardEngine)
	assert.Equal(t, 16, cfg.DashboardCacheSize)
}

func TestLoad_ExplicitDSNWins(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file::memory:")
	t.Setenv("DB_HOST", "ignored")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "file::memory:", cfg.DBDSN)
}

func TestLoad_SQLiteDSNFromName(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_NAME", "quakes")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "quakes.db", cfg.DBDSN)
}

func TestLoad_DSNEscapesPassword(t *testing.T) {
	const password = "p@ss/w#rd:%?"

	t.Run("pgx", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "pgx")
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("DB_USER", "quake")
		t.Setenv("DB_PASSWORD", password)
		t.Setenv("DB_NAME", "quakes")

		cfg, err := Load()
		require.NoError(t, err)

		pc, err := pgx.ParseConfig(cfg.DBDSN)
		require.NoError(t, err)
		assert.Equal(t, "db.internal", pc.Host)
		assert.Equal(t, uint16(5432), pc.Port)
		assert.Equal(t, "quake", pc.User)
		assert.Equal(t, password, pc.Password)
		assert.Equal(t, "quakes", pc.Database)
	})

	t.Run("mysql", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "mysql")
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("DB_USER", "quake")
		t.Setenv("DB_PASSWORD", password)
		t.Setenv("DB_NAME", "quakes")

		cfg, err := Load()
		require.NoError(t, err)

		mc, err := mysql.ParseDSN(cfg.DBDSN)
		require.NoError(t, err)
		assert.Equal(t, "db.internal:3306", mc.Addr)
		assert.Equal(t, "quake", mc.User)
		assert.Equal(t, password, mc.Passwd)
		assert.Equal(t, "quakes", mc.DBName)
		assert.True(t, mc.ParseTime)
		assert.Equal(t, "'+00:00'", mc.Params["time_zone"])
	})
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"USGS_TIMEOUT", "bad", "USGS_TIMEOUT"},
		{"USGS_TIMEOUT", "0s", "USGS_TIMEOUT"},
		{"MIN_MAGNITUDE", "strong", "MIN_MAGNITUDE"},
		{"START_YEAR", "twenty", "START_YEAR"},
		{"END_YEAR", "-1", "END_YEAR"},
		{"FETCH_CONCURRENCY", "0", "FETCH_CONCURRENCY"},
		{"DB_BATCH_SIZE", "0", "DB_BATCH_SIZE"},
		{"DB_DRIVER", "oracle", "DB_DRIVER"},
		{"FETCH_WINDOW_END", "day31", "FETCH_WINDOW_END"},
		{"DASHBOARD_ENGINE", "duck", "DASHBOARD_ENGINE"},
		{"DASHBOARD_SOURCES", "store,cloud", "DASHBOARD_SOURCES"},
		{"DASHBOARD_SOURCES", " , ", "DASHBOARD_SOURCES"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_EndYearBeforeStartYear(t *testing.T) {
	t.Setenv("START_YEAR", "2024")
	t.Setenv("END_YEAR", "2020")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "END_YEAR")
}

func TestLoad_InvalidCacheSizeFallsBack(t *testing.T) {
	t.Setenv("DASHBOARD_CACHE_SIZE", "-3")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.DashboardCacheSize)
}
