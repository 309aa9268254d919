package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	// OrphanPolicyDrop hides local courses that have no billing record.
	OrphanPolicyDrop = "drop"
	// OrphanPolicyPlaceholder lists them without billing data.
	OrphanPolicyPlaceholder = "placeholder"
)

// CatalogConfig is the hot-reloadable part of the configuration.
type CatalogConfig struct {
	OrphanPolicy             string `mapstructure:"orphanPolicy"`
	AdminRole                string `mapstructure:"adminRole"`
	InsufficientFundsMessage string `mapstructure:"insufficientFundsMessage"`
}

func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		OrphanPolicy:             OrphanPolicyDrop,
		AdminRole:                "ROLE_SUPER_ADMIN",
		InsufficientFundsMessage: "Not enough funds on your balance to pay for this course",
	}
}

type CatalogConfigHolder struct {
	current atomic.Value // holds CatalogConfig
}

// NewCatalogConfigHolder reads catalog.yml from the standard locations.
func NewCatalogConfigHolder() (*CatalogConfigHolder, error) {
	return LoadCatalogConfig("/var/lib/coursehub/config", "/etc/coursehub", ".")
}

// LoadCatalogConfig reads catalog.yml from the given paths and watches it for changes.
func LoadCatalogConfig(paths ...string) (*CatalogConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("catalog")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("COURSEHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultCatalogConfig()
	v.SetDefault("catalog.orphanPolicy", defaults.OrphanPolicy)
	v.SetDefault("catalog.adminRole", defaults.AdminRole)
	v.SetDefault("catalog.insufficientFundsMessage", defaults.InsufficientFundsMessage)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	cfg, err := unmarshalCatalog(v)
	if err != nil {
		return nil, err
	}

	holder := &CatalogConfigHolder{}
	holder.current.Store(cfg)

	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := unmarshalCatalog(v)
		if err != nil {
			zap.L().Warn("catalog config reload rejected", zap.String("file", e.Name), zap.Error(err))
			return
		}
		_ = holder.Set(updated)
		zap.L().Info("catalog config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticCatalogConfig wraps a fixed config, for tests and tools.
func NewStaticCatalogConfig(cfg CatalogConfig) *CatalogConfigHolder {
	holder := &CatalogConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *CatalogConfigHolder) Get() CatalogConfig {
	return h.current.Load().(CatalogConfig)
}

// Set swaps in cfg when it is valid.
func (h *CatalogConfigHolder) Set(cfg CatalogConfig) error {
	if err := validateCatalogConfig(cfg); err != nil {
		return err
	}
	h.current.Store(cfg)
	return nil
}

func unmarshalCatalog(v *viper.Viper) (CatalogConfig, error) {
	var cfg CatalogConfig
	if err := v.UnmarshalKey("catalog", &cfg); err != nil {
		return CatalogConfig{}, err
	}
	cfg.OrphanPolicy = strings.ToLower(strings.TrimSpace(cfg.OrphanPolicy))
	cfg.AdminRole = strings.TrimSpace(cfg.AdminRole)
	if err := validateCatalogConfig(cfg); err != nil {
		return CatalogConfig{}, err
	}
	return cfg, nil
}

func validateCatalogConfig(cfg CatalogConfig) error {
	switch cfg.OrphanPolicy {
	case OrphanPolicyDrop, OrphanPolicyPlaceholder:
	default:
		return fmt.Errorf("catalog.orphanPolicy %q is not supported", cfg.OrphanPolicy)
	}
	if cfg.AdminRole == "" {
		return errors.New("catalog.adminRole cannot be empty")
	}
	return nil
}
