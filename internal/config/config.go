// Package config loads and validates the souk.yaml configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mbourmaud/souk/internal/strategy"
)

// Simulation modes.
const (
	ModeIntegrated = "integrated"
	ModeSeparate   = "separate"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the full souk configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Market     MarketConfig     `yaml:"market"`
	Buyer      BuyerConfig      `yaml:"buyer"`
	Seller     SellerConfig     `yaml:"seller"`
	Simulation SimulationConfig `yaml:"simulation"`
}

// StoreConfig selects the shared store backend.
type StoreConfig struct {
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Addr string `yaml:"addr"`
}

// MarketConfig points at the marketplace item service.
type MarketConfig struct {
	URL string `yaml:"url,omitempty"`
}

// BuyerConfig contains the buyer agent's parameters.
type BuyerConfig struct {
	ID                  string             `yaml:"id"`
	Budget              int                `yaml:"budget"`
	InitialOfferPct     float64            `yaml:"initial_offer_pct"`
	IncrementPct        float64            `yaml:"increment_pct"`
	MaxRounds           int                `yaml:"max_rounds"`
	PollIntervalSeconds int                `yaml:"poll_interval_seconds"`
	MaxItems            int                `yaml:"max_items"`
	CategoryLimits      map[string]float64 `yaml:"category_limits"`
	DefaultLimit        float64            `yaml:"default_limit"`
}

// PollInterval returns the buyer's polling cadence.
func (c BuyerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Params maps the config onto the buyer strategy parameters.
func (c BuyerConfig) Params() strategy.BuyerParams {
	return strategy.BuyerParams{
		Budget:          c.Budget,
		CategoryLimits:  c.CategoryLimits,
		DefaultLimit:    c.DefaultLimit,
		InitialOfferPct: c.InitialOfferPct,
		IncrementPct:    c.IncrementPct,
		MaxRounds:       c.MaxRounds,
	}
}

// SellerConfig contains the seller agent's parameters and inventory.
type SellerConfig struct {
	ID                  string          `yaml:"id"`
	PollIntervalSeconds int             `yaml:"poll_interval_seconds"`
	InitialDiscount     float64         `yaml:"initial_discount"`
	DiscountPerRound    float64         `yaml:"discount_per_round"`
	DiscountCap         float64         `yaml:"discount_cap"`
	Inventory           []InventoryItem `yaml:"inventory"`
}

// InventoryItem is one listing the seller owns.
type InventoryItem struct {
	ID           string  `yaml:"id"`
	Title        string  `yaml:"title"`
	AskingPrice  int     `yaml:"asking_price"`
	Category     string  `yaml:"category"`
	MinimumPrice int     `yaml:"minimum_price"`
	Urgency      float64 `yaml:"urgency"`
}

// PollInterval returns the seller's polling cadence.
func (c SellerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// Params maps the config onto the seller strategy parameters.
func (c SellerConfig) Params() strategy.SellerParams {
	items := make([]strategy.InventoryItem, 0, len(c.Inventory))
	for _, it := range c.Inventory {
		items = append(items, strategy.InventoryItem{
			ID:           it.ID,
			Title:        it.Title,
			AskingPrice:  it.AskingPrice,
			Category:     it.Category,
			MinimumPrice: it.MinimumPrice,
			Urgency:      it.Urgency,
		})
	}
	return strategy.SellerParams{
		Inventory:        items,
		InitialDiscount:  c.InitialDiscount,
		DiscountPerRound: c.DiscountPerRound,
		DiscountCap:      c.DiscountCap,
	}
}

// SimulationConfig controls the simulate command.
type SimulationConfig struct {
	DurationSeconds int    `yaml:"duration_seconds"`
	Mode            string `yaml:"mode"`
}

// Duration returns the simulation run time.
func (c SimulationConfig) Duration() time.Duration {
	return time.Duration(c.DurationSeconds) * time.Second
}

// Default returns a Config with the stock parameters and sample inventory.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendMemory,
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Market: MarketConfig{
			URL: "http://localhost:8080",
		},
		Buyer: BuyerConfig{
			ID:                  "buyer_001",
			Budget:              1000,
			InitialOfferPct:     0.60,
			IncrementPct:        0.05,
			MaxRounds:           5,
			PollIntervalSeconds: 2,
			MaxItems:            2,
			CategoryLimits: map[string]float64{
				"Electronics": 0.85,
				"Furniture":   0.70,
				"Sports":      0.80,
			},
			DefaultLimit: 0.75,
		},
		Seller: SellerConfig{
			ID:                  "seller_001",
			PollIntervalSeconds: 3,
			InitialDiscount:     0.05,
			DiscountPerRound:    0.03,
			DiscountCap:         0.25,
			Inventory: []InventoryItem{
				{ID: "1", Title: "iPhone 12 Pro", AskingPrice: 520, Category: "Electronics", MinimumPrice: 420, Urgency: 0.3},
				{ID: "2", Title: "Vintage Leather Sofa", AskingPrice: 350, Category: "Furniture", MinimumPrice: 250, Urgency: 0.7},
				{ID: "3", Title: "Mountain Bike", AskingPrice: 850, Category: "Sports", MinimumPrice: 700, Urgency: 0.5},
			},
		},
		Simulation: SimulationConfig{
			DurationSeconds: 60,
			Mode:            ModeIntegrated,
		},
	}
}

// Load reads and parses a souk.yaml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault tries ./souk.yaml, falling back to the defaults.
func LoadOrDefault() *Config {
	cfg, err := Load(filepath.Join(".", "souk.yaml"))
	if err != nil {
		return Default()
	}
	return cfg
}

// Save writes the config to a file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration. Strategy parameter tables get their
// full validation at construction; this catches the structural problems.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", BackendMemory, BackendRedis, c.Store.Backend)
	}
	if c.Store.Backend == BackendRedis && c.Store.Redis.Addr == "" {
		return fmt.Errorf("store.redis.addr is required for the redis backend")
	}

	switch c.Simulation.Mode {
	case ModeIntegrated, ModeSeparate:
	default:
		return fmt.Errorf("simulation.mode must be %q or %q, got %q", ModeIntegrated, ModeSeparate, c.Simulation.Mode)
	}
	if c.Simulation.Mode == ModeSeparate && c.Store.Backend != BackendRedis {
		return fmt.Errorf("simulation.mode %q requires the redis store backend", ModeSeparate)
	}
	if c.Simulation.DurationSeconds < 1 {
		return fmt.Errorf("simulation.duration_seconds must be at least 1")
	}

	if c.Buyer.PollIntervalSeconds < 1 {
		return fmt.Errorf("buyer.poll_interval_seconds must be at least 1")
	}
	if c.Seller.PollIntervalSeconds < 1 {
		return fmt.Errorf("seller.poll_interval_seconds must be at least 1")
	}
	if c.Buyer.MaxItems < 1 {
		return fmt.Errorf("buyer.max_items must be at least 1")
	}

	// Surface strategy parameter errors at config time.
	if _, err := strategy.NewBuyer(c.Buyer.Params(), nil); err != nil {
		return fmt.Errorf("buyer: %w", err)
	}
	if _, err := strategy.NewSeller(c.Seller.Params(), nil); err != nil {
		return fmt.Errorf("seller: %w", err)
	}
	return nil
}
