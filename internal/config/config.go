// Package config loads carrier and connection settings from an optional YAML
// file layered over compiled-in defaults, with env-var overrides for secrets.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"quotehub/internal/model"
	"quotehub/internal/registry"
)

// Service is the resolved configuration the process runs with.
type Service struct {
	Environment string // sandbox | production
	Carriers    []model.CarrierConfig
	API         *APIStore
}

// APIStore resolves per-carrier API connection settings. Absence of a config
// for a carrier is a fatal configuration error for that carrier's call path.
type APIStore struct {
	m map[string]model.CarrierAPIConfig
}

// Get returns the API config for carrierID; ok is false when none exists.
func (s *APIStore) Get(carrierID string) (model.CarrierAPIConfig, bool) {
	c, ok := s.m[carrierID]
	return c, ok
}

type fileConfig struct {
	Environment string                `yaml:"environment"`
	Carriers    []model.CarrierConfig `yaml:"carriers"`
	API         map[string]apiEntry   `yaml:"api"`
}

type apiEntry struct {
	BaseURL    string            `yaml:"baseUrl"`
	APIKey     string            `yaml:"apiKey"`
	PartnerID  string            `yaml:"partnerId"`
	TimeoutSec int               `yaml:"timeoutSec"`
	Headers    map[string]string `yaml:"headers"`
	MaxRPS     float64           `yaml:"maxRps"`
}

// defaultTimeouts in seconds, per carrier.
var defaultTimeouts = map[string]int{
	"geico":         30,
	"progressive":   25,
	"statefarm":     35,
	"allstate":      30,
	"libertymutual": 30,
}

// Load builds the service configuration. path may be empty (defaults only).
// Env overrides: CARRIER_ENV, PARTNER_ID, CARRIER_<ID>_API_KEY,
// CARRIER_<ID>_BASE_URL.
func Load(path string) (*Service, error) {
	var fc fileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read carriers config: %w", err)
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse carriers config: %w", err)
		}
	}

	env := fc.Environment
	if v := os.Getenv("CARRIER_ENV"); v != "" {
		env = v
	}
	if env == "" {
		env = "sandbox"
	}

	carriers := fc.Carriers
	if len(carriers) == 0 {
		carriers = registry.Defaults()
	}
	for i := range carriers {
		carriers[i].Environment = env
	}

	partner := os.Getenv("PARTNER_ID")
	if partner == "" {
		partner = "quotehub"
	}

	api := map[string]model.CarrierAPIConfig{}
	for _, c := range carriers {
		entry := fc.API[c.ID]
		cfg := model.CarrierAPIConfig{
			BaseURL:   entry.BaseURL,
			APIKey:    entry.APIKey,
			PartnerID: entry.PartnerID,
			Headers:   entry.Headers,
			MaxRPS:    entry.MaxRPS,
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = c.APIEndpoint
		}
		if cfg.APIKey == "" {
			cfg.APIKey = c.APIKey
		}
		if cfg.PartnerID == "" {
			cfg.PartnerID = partner
		}
		sec := entry.TimeoutSec
		if sec <= 0 {
			sec = defaultTimeouts[c.ID]
		}
		if sec <= 0 {
			sec = 30
		}
		cfg.Timeout = time.Duration(sec) * time.Second
		if v := os.Getenv(envKey(c.ID, "API_KEY")); v != "" {
			cfg.APIKey = v
		}
		if v := os.Getenv(envKey(c.ID, "BASE_URL")); v != "" {
			cfg.BaseURL = v
		}
		api[c.ID] = cfg
	}

	return &Service{Environment: env, Carriers: carriers, API: &APIStore{m: api}}, nil
}

// NewAPIStore builds a store from explicit configs; used by tests and by
// callers that construct the service without the file loader.
func NewAPIStore(m map[string]model.CarrierAPIConfig) *APIStore {
	cp := make(map[string]model.CarrierAPIConfig, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return &APIStore{m: cp}
}

func envKey(carrierID, suffix string) string {
	id := strings.ToUpper(strings.ReplaceAll(carrierID, "-", "_"))
	return "CARRIER_" + id + "_" + suffix
}
