// Package config loads service configuration from a YAML file with
// environment variable overrides and validated required fields.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	NOAA      NOAAConfig      `mapstructure:"noaa"`
	GridDB    GridDBConfig    `mapstructure:"griddb"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"min=1,max=65535"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

type NOAAConfig struct {
	BaseURL     string        `mapstructure:"base_url" validate:"required,url"`
	Application string        `mapstructure:"application" validate:"required"`
	Timeout     time.Duration `mapstructure:"timeout"`
	// Stations is the semicolon-separated station list:
	// "id,name,state,lat,lon,active[,region];..."
	Stations string `mapstructure:"stations"`
}

type GridDBConfig struct {
	URL                  string        `mapstructure:"url" validate:"required,url"`
	APIKey               string        `mapstructure:"api_key" validate:"required"`
	Timeout              time.Duration `mapstructure:"timeout"`
	WaterLevelContainer  string        `mapstructure:"water_level_container" validate:"required"`
	MonthlyMeanContainer string        `mapstructure:"monthly_mean_container" validate:"required"`
	StationContainer     string        `mapstructure:"station_container" validate:"required"`
}

type SchedulerConfig struct {
	WaterLevelCron  string        `mapstructure:"water_level_cron" validate:"required"`
	MonthlyMeanCron string        `mapstructure:"monthly_mean_cron" validate:"required"`
	StationDelay    time.Duration `mapstructure:"station_delay"`
	BootstrapDays   int           `mapstructure:"bootstrap_days"`
	BootstrapYears  int           `mapstructure:"bootstrap_years"`
	RefreshYears    int           `mapstructure:"refresh_years"`
}

type CacheConfig struct {
	Size int `mapstructure:"size" validate:"min=1"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given file. Environment variables are
// applied two ways: ${VAR} references inside the file are expanded, and
// COASTWATCH_* variables override individual keys
// (e.g. COASTWATCH_GRIDDB_API_KEY).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("COASTWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadConfig(strings.NewReader(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("metrics.addr", ":9090")

	v.SetDefault("noaa.base_url", "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter")
	v.SetDefault("noaa.application", "CoastWatch/1.0")
	v.SetDefault("noaa.timeout", "30s")
	v.SetDefault("noaa.stations", "")

	v.SetDefault("griddb.url", "http://localhost:8081/griddb/v2")
	v.SetDefault("griddb.api_key", "")
	v.SetDefault("griddb.timeout", "30s")
	v.SetDefault("griddb.water_level_container", "coastal_water_levels")
	v.SetDefault("griddb.monthly_mean_container", "coastal_monthly_means")
	v.SetDefault("griddb.station_container", "coastal_stations")

	v.SetDefault("scheduler.water_level_cron", "*/15 * * * *")
	v.SetDefault("scheduler.monthly_mean_cron", "0 2 * * *")
	v.SetDefault("scheduler.station_delay", "2s")
	v.SetDefault("scheduler.bootstrap_days", 7)
	v.SetDefault("scheduler.bootstrap_years", 5)
	v.SetDefault("scheduler.refresh_years", 1)

	v.SetDefault("cache.size", 256)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
