package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PricingConfig carries the operator-tunable pricing defaults. It lives
// in a mounted pricing.yml so shops can adjust gas offerings and
// component catalog names without a redeploy.
type PricingConfig struct {
	DefaultCurrency     string             `mapstructure:"defaultCurrency"`
	DefaultGasType      string             `mapstructure:"defaultGasType"`
	DefaultDivesPerTrip int                `mapstructure:"defaultDivesPerTrip"`
	GasTypes            map[string]GasSpec `mapstructure:"gasTypes"`
	GuideFeeItemName    string             `mapstructure:"guideFeeItemName"`
	ParkFeeItemName     string             `mapstructure:"parkFeeItemName"`
}

// GasSpec records the breathing-gas fractions used for validation and
// snapshot metadata.
type GasSpec struct {
	O2 float64 `mapstructure:"o2"`
	He float64 `mapstructure:"he"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		DefaultCurrency:     "MXN",
		DefaultGasType:      "air",
		DefaultDivesPerTrip: 2,
		GasTypes: map[string]GasSpec{
			"air":   {O2: 0.21, He: 0.0},
			"ean32": {O2: 0.32, He: 0.0},
			"ean36": {O2: 0.36, He: 0.0},
		},
		GuideFeeItemName: "Guide Fee",
		ParkFeeItemName:  "Park Entry Fee",
	}
}

// PricingConfigHolder exposes the current PricingConfig and hot-reloads
// it when the underlying file changes.
type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

func NewPricingConfigHolder() (*PricingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/diveops/config")
	v.AddConfigPath("/etc/diveops")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DIVEOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultPricingConfig()
		v.SetDefault("pricing.defaultCurrency", defaults.DefaultCurrency)
		v.SetDefault("pricing.defaultGasType", defaults.DefaultGasType)
		v.SetDefault("pricing.defaultDivesPerTrip", defaults.DefaultDivesPerTrip)
		v.SetDefault("pricing.gasTypes", defaults.GasTypes)
		v.SetDefault("pricing.guideFeeItemName", defaults.GuideFeeItemName)
		v.SetDefault("pricing.parkFeeItemName", defaults.ParkFeeItemName)
	}

	var cfg PricingConfig
	if err := v.UnmarshalKey("pricing", &cfg); err != nil {
		return nil, err
	}
	if err := validatePricingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PricingConfig
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Printf("[pricing-config] reload failed: %v", err)
			return
		}
		if err := validatePricingConfig(updated); err != nil {
			log.Printf("[pricing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[pricing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *PricingConfigHolder) Get() PricingConfig {
	return h.current.Load().(PricingConfig)
}

// NewStaticPricingConfigHolder wraps a fixed config, for tests.
func NewStaticPricingConfigHolder(cfg PricingConfig) *PricingConfigHolder {
	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validatePricingConfig(cfg PricingConfig) error {
	if strings.TrimSpace(cfg.DefaultCurrency) == "" {
		return errors.New("pricing.defaultCurrency cannot be empty")
	}
	if len(cfg.GasTypes) == 0 {
		return errors.New("pricing.gasTypes cannot be empty")
	}
	if _, ok := cfg.GasTypes[cfg.DefaultGasType]; !ok {
		return errors.New("pricing.defaultGasType must be a configured gas type")
	}
	if cfg.DefaultDivesPerTrip <= 0 {
		return errors.New("pricing.defaultDivesPerTrip must be positive")
	}
	return nil
}
