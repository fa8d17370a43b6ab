package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	GeoProviderIPAPI  = "ip-api"
	GeoProviderStatic = "static"
)

// EnrichmentConfig tunes the scheduled geolocation pass. It is read from
// enrichment.yml and reloaded when the file changes.
type EnrichmentConfig struct {
	Enabled        bool              `mapstructure:"enabled"`
	Schedule       string            `mapstructure:"schedule"`
	BatchSize      int               `mapstructure:"batchSize"`
	Timeout        time.Duration     `mapstructure:"timeout"`
	Provider       string            `mapstructure:"provider"`
	Endpoint       string            `mapstructure:"endpoint"`
	RequestTimeout time.Duration     `mapstructure:"requestTimeout"`
	Static         []StaticGeoRecord `mapstructure:"static"`
}

// StaticGeoRecord is one entry of the fixed dataset used instead of a live provider.
type StaticGeoRecord struct {
	Query       string `mapstructure:"query"`
	CountryCode string `mapstructure:"countryCode"`
	Region      string `mapstructure:"region"`
}

func DefaultEnrichmentConfig() EnrichmentConfig {
	return EnrichmentConfig{
		Enabled:        true,
		Schedule:       "0 * * * *",
		BatchSize:      100,
		Timeout:        2 * time.Minute,
		Provider:       GeoProviderIPAPI,
		Endpoint:       "http://ip-api.com/batch",
		RequestTimeout: 10 * time.Second,
	}
}

func (c EnrichmentConfig) withDefaults() EnrichmentConfig {
	defaults := DefaultEnrichmentConfig()
	if strings.TrimSpace(c.Schedule) == "" {
		c.Schedule = defaults.Schedule
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.Timeout <= 0 {
		c.Timeout = defaults.Timeout
	}
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = defaults.Provider
	}
	if strings.TrimSpace(c.Endpoint) == "" {
		c.Endpoint = defaults.Endpoint
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaults.RequestTimeout
	}
	return c
}

type EnrichmentConfigHolder struct {
	current atomic.Value // holds EnrichmentConfig
}

// NewEnrichmentConfigHolder loads enrichment.yml from ENRICHMENT_CONFIG_PATH
// or the standard locations, falling back to defaults when no file exists.
func NewEnrichmentConfigHolder(appCfg Config, log *zap.Logger) (*EnrichmentConfigHolder, error) {
	log = log.Named("config.enrichment")
	v := viper.New()

	if appCfg.EnrichmentConfigPath != "" {
		v.SetConfigFile(appCfg.EnrichmentConfigPath)
	} else {
		v.SetConfigName("enrichment")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/wapar")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("WAPAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultEnrichmentConfig()
	v.SetDefault("enrichment.enabled", defaults.Enabled)
	v.SetDefault("enrichment.schedule", defaults.Schedule)
	v.SetDefault("enrichment.batchSize", defaults.BatchSize)
	v.SetDefault("enrichment.timeout", defaults.Timeout)
	v.SetDefault("enrichment.provider", defaults.Provider)
	v.SetDefault("enrichment.endpoint", defaults.Endpoint)
	v.SetDefault("enrichment.requestTimeout", defaults.RequestTimeout)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		fileFound = false
		log.Info("enrichment config file not found, using defaults")
	}

	cfg, err := decodeEnrichmentConfig(v)
	if err != nil {
		return nil, err
	}

	holder := &EnrichmentConfigHolder{}
	holder.current.Store(cfg)

	if fileFound {
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := decodeEnrichmentConfig(v)
			if err != nil {
				log.Warn("enrichment config reload ignored", zap.String("file", e.Name), zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("enrichment config reloaded", zap.String("file", e.Name))
		})
		v.WatchConfig()
	}

	return holder, nil
}

// NewStaticEnrichmentConfigHolder wraps a fixed config, mostly for tests.
func NewStaticEnrichmentConfigHolder(cfg EnrichmentConfig) *EnrichmentConfigHolder {
	holder := &EnrichmentConfigHolder{}
	holder.current.Store(cfg.withDefaults())
	return holder
}

func (h *EnrichmentConfigHolder) Get() EnrichmentConfig {
	return h.current.Load().(EnrichmentConfig)
}

func decodeEnrichmentConfig(v *viper.Viper) (EnrichmentConfig, error) {
	// keys missing from the file keep their defaults
	cfg := DefaultEnrichmentConfig()
	if err := v.UnmarshalKey("enrichment", &cfg); err != nil {
		return EnrichmentConfig{}, err
	}
	cfg = cfg.withDefaults()
	if err := validateEnrichmentConfig(cfg); err != nil {
		return EnrichmentConfig{}, err
	}
	return cfg, nil
}

func validateEnrichmentConfig(cfg EnrichmentConfig) error {
	switch cfg.Provider {
	case GeoProviderIPAPI:
	case GeoProviderStatic:
		for i, rec := range cfg.Static {
			if strings.TrimSpace(rec.Query) == "" {
				return fmt.Errorf("enrichment.static[%d].query cannot be empty", i)
			}
		}
	default:
		return fmt.Errorf("enrichment.provider %q is not supported", cfg.Provider)
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return fmt.Errorf("enrichment.schedule %q: %w", cfg.Schedule, err)
	}
	if cfg.BatchSize > 100 {
		return errors.New("enrichment.batchSize cannot exceed 100")
	}
	return nil
}
