package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// InvoiceDefaults seeds new invoices and fills gaps in loaded templates.
type InvoiceDefaults struct {
	Seed             string        `mapstructure:"seed"`
	Currency         string        `mapstructure:"currency"`
	PaymentMode      string        `mapstructure:"paymentMode"`
	Company          CompanyConfig `mapstructure:"company"`
	Notes            string        `mapstructure:"notes"`
	DeliveryTimeline string        `mapstructure:"deliveryTimeline"`
	WarrantyInfo     string        `mapstructure:"warrantyInfo"`
	Theme            ThemeConfig   `mapstructure:"theme"`
}

type CompanyConfig struct {
	Name    string `mapstructure:"name"`
	Address string `mapstructure:"address"`
	Phone   string `mapstructure:"phone"`
	Email   string `mapstructure:"email"`
}

type ThemeConfig struct {
	PrimaryColor string `mapstructure:"primaryColor"`
	FontFamily   string `mapstructure:"fontFamily"`
}

func DefaultInvoiceDefaults() InvoiceDefaults {
	return InvoiceDefaults{
		Seed:        "7284",
		Currency:    "USD",
		PaymentMode: "Bank transfer",
		Theme: ThemeConfig{
			PrimaryColor: "#1f2937",
			FontFamily:   "Inter",
		},
	}
}

type InvoiceDefaultsHolder struct {
	current atomic.Value // holds InvoiceDefaults
}

// NewStaticDefaultsHolder returns a holder that never reloads.
func NewStaticDefaultsHolder(defaults InvoiceDefaults) *InvoiceDefaultsHolder {
	holder := &InvoiceDefaultsHolder{}
	holder.current.Store(defaults)
	return holder
}

func NewInvoiceDefaultsHolder(log *zap.Logger) (*InvoiceDefaultsHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.defaults")

	v := viper.New()

	v.SetConfigName("invoicer")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/invoicer") // System config
	v.AddConfigPath(".")             // Current directory (dev mode)

	v.SetEnvPrefix("INVOICER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultInvoiceDefaults()
	v.SetDefault("invoice.seed", defaults.Seed)
	v.SetDefault("invoice.currency", defaults.Currency)
	v.SetDefault("invoice.paymentMode", defaults.PaymentMode)
	v.SetDefault("invoice.theme.primaryColor", defaults.Theme.PrimaryColor)
	v.SetDefault("invoice.theme.fontFamily", defaults.Theme.FontFamily)

	found := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		found = false
	}

	cfg, err := decodeInvoiceDefaults(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticDefaultsHolder(cfg)
	if !found {
		return holder, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeInvoiceDefaults(v)
		if err != nil {
			log.Warn("invoice defaults reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("invoice defaults reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return holder, nil
}

func (h *InvoiceDefaultsHolder) Get() InvoiceDefaults {
	return h.current.Load().(InvoiceDefaults)
}

func decodeInvoiceDefaults(v *viper.Viper) (InvoiceDefaults, error) {
	var cfg InvoiceDefaults
	if err := v.UnmarshalKey("invoice", &cfg); err != nil {
		return InvoiceDefaults{}, err
	}
	if err := validateInvoiceDefaults(cfg); err != nil {
		return InvoiceDefaults{}, err
	}
	return cfg, nil
}

func validateInvoiceDefaults(cfg InvoiceDefaults) error {
	seed := strings.TrimSpace(cfg.Seed)
	if seed == "" {
		return errors.New("invoice.seed cannot be empty")
	}
	if strings.Contains(seed, " - ") {
		return errors.New("invoice.seed cannot contain the number separator")
	}
	return nil
}
