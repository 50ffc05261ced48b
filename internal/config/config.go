package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/mExArb/sharpshooter/internal/exchange"
	"github.com/mExArb/sharpshooter/pkg/types"
)

// Config holds the full detector configuration.
type Config struct {
	LogLevel  string            `mapstructure:"log_level"`
	Start     Start             `mapstructure:"start"`
	Scan      Scan              `mapstructure:"scan"`
	Refresh   Refresh           `mapstructure:"refresh"`
	Blacklist []string          `mapstructure:"blacklist"`
	Synonyms  map[string]string `mapstructure:"synonyms"`
	Venues    []Venue           `mapstructure:"venues"`
	NATS      NATS              `mapstructure:"nats"`
	Redis     Redis             `mapstructure:"redis"`
	Metrics   Metrics           `mapstructure:"metrics"`
}

// Start is the roundtrip entry point: the currency held and how much of it.
type Start struct {
	Currency string  `mapstructure:"currency"`
	Amount   float64 `mapstructure:"amount"`
}

// Scan controls the enumerator and what gets reported.
type Scan struct {
	Threshold float64       `mapstructure:"threshold"`
	Interval  time.Duration `mapstructure:"interval"`
	MaxDepth  int           `mapstructure:"max_depth"`
	Venues    []string      `mapstructure:"venues"`
	Coins     []string      `mapstructure:"coins"`

	// Fees holds per-venue taker fractions for the fee-adjusted figure
	// logged next to raw profit. Empty disables the adjustment.
	Fees map[string]float64 `mapstructure:"fees"`
}

// Refresh controls how venue rates are pulled.
type Refresh struct {
	Interval   time.Duration `mapstructure:"interval"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	Workers    int           `mapstructure:"workers"`
	Depth      int           `mapstructure:"depth"`
}

// Venue is one exchange connection.
type Venue struct {
	Name      string `mapstructure:"name"`
	Kind      string `mapstructure:"kind"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Testnet   bool   `mapstructure:"testnet"`
}

// NATS configures the JetStream opportunity sink.
type NATS struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// Redis configures the pub/sub opportunity sink.
type Redis struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

// Metrics configures the prometheus endpoint.
type Metrics struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// defaultBlacklist suppresses the currencies the detector never trades
// through: thin listings plus non-USD fiat.
var defaultBlacklist = []string{
	"BAT", "FUEL", "CMT",
	"CAD", "GBP", "EUR", "JPY", "KRW", "CNY", "NZD", "AUD",
}

// Load reads configuration from the given file, or from
// configs/sharpshooter.yaml when path is empty, falling back to built-in
// defaults when no file exists. SHARPSHOOTER_* environment variables
// override file values (SHARPSHOOTER_START_CURRENCY, SHARPSHOOTER_SCAN_THRESHOLD, ...).
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sharpshooter")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SHARPSHOOTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Only the implicit lookup may come up empty.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.Venues) == 0 {
		cfg.Venues = defaultVenues()
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize uppercases currency codes. Viper folds map keys read from a
// file to lower case, so synonyms configured as XBT would otherwise come
// out as "xbt" and never match a rate lookup.
func (c *Config) normalize() {
	c.Start.Currency = strings.ToUpper(c.Start.Currency)
	for i, coin := range c.Blacklist {
		c.Blacklist[i] = strings.ToUpper(coin)
	}
	for i, coin := range c.Scan.Coins {
		c.Scan.Coins[i] = strings.ToUpper(coin)
	}
	if len(c.Synonyms) > 0 {
		synonyms := make(map[string]string, len(c.Synonyms))
		for from, to := range c.Synonyms {
			synonyms[strings.ToUpper(from)] = strings.ToUpper(to)
		}
		c.Synonyms = synonyms
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("start.currency", "ETH")
	v.SetDefault("start.amount", 10.0)

	v.SetDefault("scan.threshold", 0.025)
	v.SetDefault("scan.interval", "1s")
	v.SetDefault("scan.max_depth", 3)

	v.SetDefault("refresh.interval", "5s")
	v.SetDefault("refresh.timeout", "10s")
	v.SetDefault("refresh.max_retries", 5)
	v.SetDefault("refresh.workers", 64)
	v.SetDefault("refresh.depth", 100)

	v.SetDefault("blacklist", defaultBlacklist)
	v.SetDefault("synonyms", types.DefaultSynonyms())

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("metrics.listen", ":9100")
}

func defaultVenues() []Venue {
	return []Venue{
		{Name: exchange.KindBinance, Kind: exchange.KindBinance},
		{Name: exchange.KindBybit, Kind: exchange.KindBybit},
	}
}

// Validate rejects configurations the detector cannot run with. It is part
// of Load; callers building a Config by hand should run it themselves.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}

	if c.Start.Currency == "" {
		return fmt.Errorf("start.currency must be set")
	}
	if c.Start.Amount <= 0 {
		return fmt.Errorf("start.amount must be positive, got %v", c.Start.Amount)
	}

	if c.Scan.Threshold < 0 {
		return fmt.Errorf("scan.threshold must not be negative, got %v", c.Scan.Threshold)
	}
	if c.Scan.Interval <= 0 {
		return fmt.Errorf("scan.interval must be positive, got %v", c.Scan.Interval)
	}
	if c.Scan.MaxDepth < 1 {
		return fmt.Errorf("scan.max_depth must be at least 1, got %d", c.Scan.MaxDepth)
	}
	for venue, fee := range c.Scan.Fees {
		if fee < 0 || fee >= 1 {
			return fmt.Errorf("scan.fees.%s must be a fraction in [0, 1), got %v", venue, fee)
		}
	}

	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be positive, got %v", c.Refresh.Interval)
	}
	if c.Refresh.Timeout <= 0 {
		return fmt.Errorf("refresh.timeout must be positive, got %v", c.Refresh.Timeout)
	}
	if c.Refresh.MaxRetries < 1 {
		return fmt.Errorf("refresh.max_retries must be at least 1, got %d", c.Refresh.MaxRetries)
	}
	if c.Refresh.Workers < 1 {
		return fmt.Errorf("refresh.workers must be at least 1, got %d", c.Refresh.Workers)
	}
	if c.Refresh.Depth < 1 {
		return fmt.Errorf("refresh.depth must be at least 1, got %d", c.Refresh.Depth)
	}

	if len(c.Venues) == 0 {
		return fmt.Errorf("at least one venue must be configured")
	}
	seen := make(map[string]bool, len(c.Venues))
	for i, venue := range c.Venues {
		if venue.Kind == "" {
			return fmt.Errorf("venues[%d]: kind must be set", i)
		}
		name := venue.Name
		if name == "" {
			name = venue.Kind
		}
		if seen[name] {
			return fmt.Errorf("duplicate venue name %q", name)
		}
		seen[name] = true
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("nats.url must be set when nats is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr must be set when redis is enabled")
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return fmt.Errorf("metrics.listen must be set when metrics are enabled")
	}

	return nil
}

// Level returns the parsed logrus level. Call after Validate.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
