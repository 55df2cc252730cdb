package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/weather-core/internal/log"
)

type AppConfig struct {
	OpenWeatherAPIKey  string        `validate:"required"`
	OpenWeatherBaseURL string        `validate:"required,url"`
	HTTPTimeout        time.Duration `validate:"gt=0"`

	// FetchInterval controls how often the scheduler refreshes the snapshot.
	FetchInterval time.Duration `validate:"gte=1m"`
	// StaleAfter is the age at which displayed data is reported as stale.
	StaleAfter time.Duration `validate:"gt=0"`

	StoreBackend string `validate:"oneof=file sqlite memory"`
	StorePath    string `validate:"required_unless=StoreBackend memory"`
	StoreCodec   string `validate:"oneof=json msgpack"`
	SnapshotName string `validate:"required,excludesall=/"`

	// Device position. Lat/Lon win over City/Country, which are geocoded.
	LocationLat        *float64 `validate:"omitempty,gte=-90,lte=90"`
	LocationLon        *float64 `validate:"omitempty,gte=-180,lte=180"`
	LocationCity       string
	LocationCountry    string
	GeocoderAPIKey     string
	LocationPermission bool

	ReachabilityHost string `validate:"required,hostname_port"`

	Port     string `validate:"required,numeric"`
	LogDebug bool
	LogFile  string
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Infow("config: no .env file loaded", "error", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.OpenWeatherAPIKey = strings.TrimSpace(os.Getenv("OPENWEATHER_API_KEY"))
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5")

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "20s"); err != nil {
		return nil, err
	}
	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.StaleAfter, err = getenvDuration("STALE_AFTER", "30m"); err != nil {
		return nil, err
	}

	cfg.StoreBackend = strings.ToLower(getenvDefault("STORE_BACKEND", "file"))
	cfg.StorePath = getenvDefault("STORE_PATH", "./data")
	cfg.StoreCodec = strings.ToLower(getenvDefault("STORE_CODEC", "json"))
	cfg.SnapshotName = getenvDefault("SNAPSHOT_NAME", "weather-snapshot")

	if cfg.LocationLat, err = getenvFloat("LOCATION_LAT"); err != nil {
		return nil, err
	}
	if cfg.LocationLon, err = getenvFloat("LOCATION_LON"); err != nil {
		return nil, err
	}
	if (cfg.LocationLat == nil) != (cfg.LocationLon == nil) {
		return nil, fmt.Errorf("LOCATION_LAT and LOCATION_LON must be set together")
	}
	cfg.LocationCity = os.Getenv("LOCATION_CITY")
	cfg.LocationCountry = os.Getenv("LOCATION_COUNTRY")
	cfg.GeocoderAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")
	cfg.LocationPermission = getenvBool("LOCATION_PERMISSION", true)

	cfg.ReachabilityHost = getenvDefault("REACHABILITY_HOST", "api.openweathermap.org:443")
	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogDebug = getenvBool("LOG_DEBUG", false)
	cfg.LogFile = os.Getenv("LOG_FILE")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvFloat(key string) (*float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &f, nil
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
