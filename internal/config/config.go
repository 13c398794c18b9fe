package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds every setting the binaries need. It is resolved once in main
// and handed to constructors; nothing reads the environment after that.
type Config struct {
	AccessToken string `env:"CPAS_ACCESS_TOKEN"`

	// Agency platform defaults
	AgencyBusinessID       string `env:"CPAS_AGENCY_BM_ID"`
	DefaultBrandBusinessID string `env:"CPAS_BRAND_BM_ID"`
	DefaultBrandName       string `env:"CPAS_BRAND_NAME"`
	DefaultContactEmail    string `env:"CPAS_CONTACT_EMAIL"`
	DefaultContactName     string `env:"CPAS_CONTACT_NAME"`

	// Merchant platform defaults
	MerchantBusinessID string `env:"CPAS_MERCHANT_BM_ID"`
	MerchantName       string `env:"CPAS_MERCHANT_NAME"`

	MerchantBMIDs MerchantBMIDs

	Graph GraphConfig

	DefaultTimezoneID  int    `env:"CPAS_DEFAULT_TIMEZONE_ID" envDefault:"50"`
	DefaultCurrency    string `env:"CPAS_DEFAULT_CURRENCY" envDefault:"INR"`
	DefaultDailyBudget int    `env:"CPAS_DEFAULT_DAILY_BUDGET" envDefault:"100000"`

	HTTPAddress    string  `env:"HTTP_ADDRESS" envDefault:":8080"`
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// TrustedProxies may set X-Forwarded-For for the rate limiter
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	DatabaseURL  string `env:"DATABASE_URL"`
	AMQPURL      string `env:"AMQP_URL"`
	ResultsQueue string `env:"RESULTS_QUEUE" envDefault:"partnership_ads_results"`

	Log LogConfig
}

// MerchantBMIDs are the Business Manager ids of the built-in merchant directory
type MerchantBMIDs struct {
	Blinkit     string `env:"CPAS_BLINKIT_BM_ID"`
	Swiggy      string `env:"CPAS_SWIGGY_BM_ID"`
	Zepto       string `env:"CPAS_ZEPTO_BM_ID"`
	BigBasket   string `env:"CPAS_BIGBASKET_BM_ID"`
	AmazonFresh string `env:"CPAS_AMAZON_FRESH_BM_ID"`
}

// ByKey maps merchant keys to configured ids, skipping empty ones
func (m MerchantBMIDs) ByKey() map[string]string {
	ids := map[string]string{}
	for key, id := range map[string]string{
		"blinkit":      m.Blinkit,
		"swiggy":       m.Swiggy,
		"zepto":        m.Zepto,
		"bigbasket":    m.BigBasket,
		"amazon_fresh": m.AmazonFresh,
	} {
		if id != "" {
			ids[key] = id
		}
	}
	return ids
}

type GraphConfig struct {
	BaseURL         string        `env:"GRAPH_API_BASE_URL" envDefault:"https://graph.facebook.com"`
	Version         string        `env:"GRAPH_API_VERSION" envDefault:"v22.0"`
	CreativeVersion string        `env:"GRAPH_CREATIVE_API_VERSION" envDefault:"v23.0"`
	RequestTimeout  time.Duration `env:"GRAPH_REQUEST_TIMEOUT" envDefault:"0s"`
}

type LogConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"text"`
	Output     string `env:"LOG_OUTPUT" envDefault:"stdout"`
	FilePath   string `env:"LOG_FILE" envDefault:"./logs/cpas.log"`
	MaxSize    int    `env:"LOG_MAX_SIZE" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"7"`
	MaxAge     int    `env:"LOG_MAX_AGE" envDefault:"7"`
	Compress   bool   `env:"LOG_COMPRESS" envDefault:"true"`
}

// Load reads an optional .env file and parses the environment into Config
func Load(files ...string) (*Config, error) {
	// a missing .env is fine, the OS environment is used as is
	_ = godotenv.Load(files...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
