package config

import (
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const defaultSearchEndpoint = "https://www.redfin.com/stingray/api/gis"

// Config holds all application configuration loaded from environment variables.
type Config struct {
	AppPort  string
	LogLevel string

	SearchEndpoint string
	ListingBaseURL string
	FetchTimeout   time.Duration

	ArtifactDir        string
	ArtifactURLPrefix  string
	CORSAllowedOrigins []string

	PDFRenderer string
	ChromeBin   string

	DebugDumpDir string

	QuartilePercent float64
	PriceAdjustment float64
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Info("[config] No .env file found, falling back to system env vars")
	}

	port := getEnv("APP_PORT", "8080")

	return &Config{
		AppPort:  port,
		LogLevel: getEnv("LOG_LEVEL", "info"),

		SearchEndpoint: getEnv("SEARCH_ENDPOINT", defaultSearchEndpoint),
		ListingBaseURL: strings.TrimRight(getEnv("LISTING_BASE_URL", "https://www.redfin.com"), "/"),
		FetchTimeout:   getEnvDuration("FETCH_TIMEOUT", 20*time.Second),

		ArtifactDir:        getEnv("ARTIFACT_DIR", "/tmp/undervalued"),
		ArtifactURLPrefix:  strings.TrimRight(getEnv("ARTIFACT_URL_PREFIX", "http://localhost:"+port), "/"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		PDFRenderer: strings.ToLower(getEnv("PDF_RENDERER", "fpdf")),
		ChromeBin:   getEnv("CHROME_BIN", ""),

		DebugDumpDir: getEnv("DEBUG_DUMP_DIR", ""),

		QuartilePercent: getEnvFloatInRange("QUARTILE_PERCENT", 25, 0, 100),
		PriceAdjustment: getEnvFloatInRange("PRICE_ADJUSTMENT", 0.9, 0.01, 10),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	}
	return fallback
}

// getEnvFloatInRange is getEnvFloat limited to [lo, hi]; values outside
// fall back with a warning.
func getEnvFloatInRange(key string, fallback, lo, hi float64) float64 {
	f := getEnvFloat(key, fallback)
	if f < lo || f > hi {
		logrus.Warnf("[config] %s=%v outside [%v, %v], using %v", key, f, lo, hi, fallback)
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping empty entries.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
