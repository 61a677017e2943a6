package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const (
	BackendChartAPI  = "chart-api"
	BackendFinanceGo = "finance-go"

	MethodPearson  = "pearson"
	MethodSpearman = "spearman"
)

type Config struct {
	ProjectDir string `json:"project_dir"`
	ResultsDir string `json:"results_dir"`

	// Market data
	DataBackend    string        `json:"data_backend"`
	YahooBaseURL   string        `json:"yahoo_base_url"`
	UserAgent      string        `json:"user_agent"`
	RequestTimeout time.Duration `json:"request_timeout"`
	Timezone       string        `json:"timezone"`
	CacheTTL       time.Duration `json:"cache_ttl"`

	PreviewRows int `json:"preview_rows"`

	// Chart rendering
	ChartWidth      int      `json:"chart_width"`
	ChartHeight     int      `json:"chart_height"`
	IncreasingColor string   `json:"increasing_color"`
	DecreasingColor string   `json:"decreasing_color"`
	Palette         []string `json:"palette"`
	OpenBrowser     bool     `json:"open_browser"`

	CorrelationMethod string `json:"correlation_method"`

	Debug bool `json:"debug"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	cfg := &Config{
		ProjectDir: currentDir,
		ResultsDir: filepath.Join(currentDir, "results"),

		DataBackend:    BackendChartAPI,
		YahooBaseURL:   "https://query1.finance.yahoo.com",
		UserAgent:      "Mozilla/5.0 (compatible; candlecorr/1.0)",
		RequestTimeout: 15 * time.Second,
		Timezone:       "America/New_York",
		CacheTTL:       10 * time.Minute,

		PreviewRows: 5,

		ChartWidth:      900,
		ChartHeight:     500,
		IncreasingColor: "tomato",
		DecreasingColor: "forestgreen",
		Palette:         []string{"tomato", "forestgreen", "royalblue"},

		CorrelationMethod: MethodPearson,
	}

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg.loadFromEnv()

	return cfg
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("RESULTS_DIR"); val != "" {
		c.ResultsDir = val
	}

	if val := os.Getenv("CANDLECORR_BACKEND"); val != "" {
		c.DataBackend = strings.ToLower(strings.TrimSpace(val))
	}
	if val := os.Getenv("CANDLECORR_YAHOO_BASE_URL"); val != "" {
		c.YahooBaseURL = strings.TrimRight(val, "/")
	}
	if val := os.Getenv("CANDLECORR_USER_AGENT"); val != "" {
		c.UserAgent = val
	}
	if val := os.Getenv("CANDLECORR_REQUEST_TIMEOUT"); val != "" {
		if secs, err := strconv.Atoi(val); err == nil {
			c.RequestTimeout = time.Duration(secs) * time.Second
		}
	}
	if val := os.Getenv("CANDLECORR_TIMEZONE"); val != "" {
		c.Timezone = val
	}
	if val := os.Getenv("CANDLECORR_CACHE_TTL"); val != "" {
		if ttl, err := time.ParseDuration(val); err == nil {
			c.CacheTTL = ttl
		}
	}

	if val := os.Getenv("CANDLECORR_PREVIEW_ROWS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.PreviewRows = v
		}
	}

	if val := os.Getenv("CANDLECORR_CHART_WIDTH"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.ChartWidth = v
		}
	}
	if val := os.Getenv("CANDLECORR_CHART_HEIGHT"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.ChartHeight = v
		}
	}
	if val := os.Getenv("CANDLECORR_INCREASING_COLOR"); val != "" {
		c.IncreasingColor = val
	}
	if val := os.Getenv("CANDLECORR_DECREASING_COLOR"); val != "" {
		c.DecreasingColor = val
	}
	if val := os.Getenv("CANDLECORR_PALETTE"); val != "" {
		var palette []string
		for _, color := range strings.Split(val, ",") {
			if color = strings.TrimSpace(color); color != "" {
				palette = append(palette, color)
			}
		}
		if len(palette) > 0 {
			c.Palette = palette
		}
	}
	if val := os.Getenv("CANDLECORR_OPEN_BROWSER"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.OpenBrowser = enabled
		}
	}

	if val := os.Getenv("CANDLECORR_CORR_METHOD"); val != "" {
		c.CorrelationMethod = strings.ToLower(strings.TrimSpace(val))
	}

	if val := os.Getenv("CANDLECORR_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}
}

// Location resolves the configured exchange timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) Validate() error {
	switch c.DataBackend {
	case BackendChartAPI, BackendFinanceGo:
	default:
		return fmt.Errorf("unknown data backend %q (want %s or %s)", c.DataBackend, BackendChartAPI, BackendFinanceGo)
	}
	switch c.CorrelationMethod {
	case MethodPearson, MethodSpearman:
	default:
		return fmt.Errorf("unknown correlation method %q (want %s or %s)", c.CorrelationMethod, MethodPearson, MethodSpearman)
	}
	if c.DataBackend == BackendChartAPI && strings.TrimSpace(c.YahooBaseURL) == "" {
		return fmt.Errorf("yahoo base url is required for the %s backend", BackendChartAPI)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.PreviewRows < 1 {
		return fmt.Errorf("preview rows must be at least 1, got %d", c.PreviewRows)
	}
	if c.ChartWidth <= 0 || c.ChartHeight <= 0 {
		return fmt.Errorf("chart size must be positive, got %dx%d", c.ChartWidth, c.ChartHeight)
	}
	if len(c.Palette) == 0 {
		return fmt.Errorf("palette must contain at least one color")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ResultsDir}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
