package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig holds the tunable billing constants. The GST rate is stored
// in basis points so invoice math stays in integer arithmetic.
type BillingConfig struct {
	GSTRateBasisPoints    int    `mapstructure:"gstRateBasisPoints"`
	InvoiceNumberTemplate string `mapstructure:"invoiceNumberTemplate"`
	PaymentDueDays        int    `mapstructure:"paymentDueDays"`
	MaxRenewalMonths      int    `mapstructure:"maxRenewalMonths"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		GSTRateBasisPoints:    1800,
		InvoiceNumberTemplate: "INV-{YYYY}{MM}{DD}-{SEQ4}",
		PaymentDueDays:        15,
		MaxRenewalMonths:      12,
	}
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

// NewBillingConfigHolder reads billing.yml and keeps it hot-reloadable.
// Missing files fall back to defaults.
func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/backoffice")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BACKOFFICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.gstRateBasisPoints", defaults.GSTRateBasisPoints)
	v.SetDefault("billing.invoiceNumberTemplate", defaults.InvoiceNumberTemplate)
	v.SetDefault("billing.paymentDueDays", defaults.PaymentDueDays)
	v.SetDefault("billing.maxRenewalMonths", defaults.MaxRenewalMonths)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-config] reload failed: %v", err)
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticBillingConfigHolder wraps a fixed config with no file watching.
func NewStaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

func validateBillingConfig(cfg BillingConfig) error {
	if cfg.GSTRateBasisPoints < 0 {
		return errors.New("billing.gstRateBasisPoints cannot be negative")
	}
	if strings.TrimSpace(cfg.InvoiceNumberTemplate) == "" {
		return errors.New("billing.invoiceNumberTemplate cannot be empty")
	}
	if cfg.PaymentDueDays <= 0 {
		return errors.New("billing.paymentDueDays must be positive")
	}
	if cfg.MaxRenewalMonths <= 0 {
		return errors.New("billing.maxRenewalMonths must be positive")
	}
	return nil
}
