package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Policy holds purchasing limits that operators can tune without a restart.
type Policy struct {
	MaxLineItems    int `mapstructure:"maxLineItems"`
	DefaultPageSize int `mapstructure:"defaultPageSize"`
	MaxPageSize     int `mapstructure:"maxPageSize"`
}

func DefaultPolicy() Policy {
	return Policy{
		MaxLineItems:    500,
		DefaultPageSize: 50,
		MaxPageSize:     250,
	}
}

type PolicyHolder struct {
	current atomic.Value // holds Policy
}

func NewPolicyHolder(log *zap.Logger) (*PolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("purchasing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/eshop")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ESHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPolicy()
	v.SetDefault("purchasing.maxLineItems", defaults.MaxLineItems)
	v.SetDefault("purchasing.defaultPageSize", defaults.DefaultPageSize)
	v.SetDefault("purchasing.maxPageSize", defaults.MaxPageSize)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var policy Policy
	if err := v.UnmarshalKey("purchasing", &policy); err != nil {
		return nil, err
	}
	if err := validatePolicy(policy); err != nil {
		return nil, err
	}

	holder := NewStaticPolicyHolder(policy)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated Policy
		if err := v.UnmarshalKey("purchasing", &updated); err != nil {
			log.Warn("purchasing policy reload failed", zap.Error(err))
			return
		}
		if err := validatePolicy(updated); err != nil {
			log.Warn("invalid purchasing policy ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("purchasing policy reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticPolicyHolder returns a holder that never reloads.
func NewStaticPolicyHolder(policy Policy) *PolicyHolder {
	holder := &PolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func (h *PolicyHolder) Get() Policy {
	if h == nil {
		return DefaultPolicy()
	}
	return h.current.Load().(Policy)
}

// PageSize clamps a requested page size to the configured bounds.
func (p Policy) PageSize(requested int) int {
	if requested <= 0 {
		return p.DefaultPageSize
	}
	if requested > p.MaxPageSize {
		return p.MaxPageSize
	}
	return requested
}

func validatePolicy(p Policy) error {
	if p.MaxLineItems <= 0 {
		return errors.New("purchasing.maxLineItems must be positive")
	}
	if p.DefaultPageSize <= 0 || p.MaxPageSize <= 0 {
		return errors.New("purchasing page sizes must be positive")
	}
	if p.DefaultPageSize > p.MaxPageSize {
		return errors.New("purchasing.defaultPageSize cannot exceed maxPageSize")
	}
	return nil
}
