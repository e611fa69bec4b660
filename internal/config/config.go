package config

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

const DefaultDatasetURL = "https://raw.githubusercontent.com/freeCodeCamp/ProjectReferenceData/master/global-temperature.json"

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// DatasetURL is fetched exactly once per process.
	DatasetURL string
	// FetchTimeout bounds the dataset request; zero means no timeout.
	FetchTimeout time.Duration
	// LoadWaitTimeout bounds how long a request waits for a pending load.
	LoadWaitTimeout time.Duration

	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration
	SQLiteLogSQL          bool

	// MQTTBroker empty disables load event publishing.
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string

	ChartWidth   float64
	ChartHeight  float64
	ChartPadding float64
}

// MQTTEnabled reports whether a broker has been configured.
func (c Config) MQTTEnabled() bool {
	return c.MQTTBroker != ""
}

// LoadFromEnv reads the configuration from the environment. When CONFIG_FILE
// names a YAML file its values act as defaults; environment variables win.
func LoadFromEnv() (Config, error) {
	src, err := newSource()
	if err != nil {
		return Config{}, err
	}

	appEnv := src.get("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := src.get("LOG_LEVEL")
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := src.get("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	datasetURL := src.get("DATASET_URL")
	if datasetURL == "" {
		datasetURL = DefaultDatasetURL
	}
	if !strings.HasPrefix(datasetURL, "http://") && !strings.HasPrefix(datasetURL, "https://") {
		return Config{}, fmt.Errorf("invalid DATASET_URL %q (expected http or https URL)", datasetURL)
	}

	fetchTimeout, err := parseDuration(src, "FETCH_TIMEOUT", "0s")
	if err != nil {
		return Config{}, err
	}
	loadWaitTimeout, err := parseDuration(src, "LOAD_WAIT_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}
	if loadWaitTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid LOAD_WAIT_TIMEOUT %q: must be > 0", src.get("LOAD_WAIT_TIMEOUT"))
	}

	driver := src.get("DB_DRIVER")
	if driver == "" {
		driver = "sqlite3"
	}
	dsn := src.get("DB_DSN")
	path := src.get("SQLITE_PATH")
	if path == "" {
		path = "data/heatmap.db"
	}

	maxOpenConns, err := parseInt(src, "DB_MAX_OPEN_CONNS", "1")
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := parseInt(src, "DB_MAX_IDLE_CONNS", "1")
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := parseDuration(src, "DB_CONN_MAX_LIFETIME", "0s")
	if err != nil {
		return Config{}, err
	}
	logSQL, err := parseBool(src, "DB_LOG_SQL", "false")
	if err != nil {
		return Config{}, err
	}

	mqttPort, err := parseInt(src, "MQTT_PORT", "1883")
	if err != nil {
		return Config{}, err
	}
	if mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %d (allowed: 1-65535)", mqttPort)
	}
	mqttClientID := src.get("MQTT_CLIENT_ID")
	if mqttClientID == "" {
		mqttClientID = "heatmap-server"
	}
	mqttTopic := src.get("MQTT_TOPIC")
	if mqttTopic == "" {
		mqttTopic = "heatmap/loads"
	}

	width, err := parseDimension(src, "CHART_WIDTH", "1400", 1)
	if err != nil {
		return Config{}, err
	}
	height, err := parseDimension(src, "CHART_HEIGHT", "600", 1)
	if err != nil {
		return Config{}, err
	}
	padding, err := parseDimension(src, "CHART_PADDING", "60", 0)
	if err != nil {
		return Config{}, err
	}
	if 2*padding >= width || 2*padding >= height {
		return Config{}, fmt.Errorf("invalid CHART_PADDING %v: leaves no room for a %vx%v chart", padding, width, height)
	}

	return Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		HTTPAddr:              httpAddr,
		DatasetURL:            datasetURL,
		FetchTimeout:          fetchTimeout,
		LoadWaitTimeout:       loadWaitTimeout,
		SQLiteDriver:          driver,
		SQLiteDSN:             dsn,
		SQLitePath:            path,
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
		SQLiteLogSQL:          logSQL,
		MQTTBroker:            src.get("MQTT_BROKER"),
		MQTTPort:              mqttPort,
		MQTTClientID:          mqttClientID,
		MQTTTopic:             mqttTopic,
		ChartWidth:            width,
		ChartHeight:           height,
		ChartPadding:          padding,
	}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func parseInt(src source, key, def string) (int, error) {
	s := src.get(key)
	if s == "" {
		s = def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func parseDuration(src source, key, def string) (time.Duration, error) {
	s := src.get(key)
	if s == "" {
		s = def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, s)
	}
	return d, nil
}

func parseBool(src source, key, def string) (bool, error) {
	s := src.get(key)
	if s == "" {
		s = def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func parseDimension(src source, key, def string, min float64) (float64, error) {
	s := src.get(key)
	if s == "" {
		s = def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < min {
		return 0, fmt.Errorf("invalid %s %q: must be a finite number >= %v", key, s, min)
	}
	return v, nil
}
