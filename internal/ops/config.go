// Package ops loads the relay's JSON file configuration.
package ops

import (
	"encoding/json"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"main/internal/model/enum"
	"main/internal/quoting"
)

var (
	ErrUnknownSource    = errors.New("config: unknown feed source")
	ErrDuplicateSource  = errors.New("config: feed sources must differ")
	ErrNoSymbols        = errors.New("config: feed needs at least one symbol")
	ErrNegativeDuration = errors.New("config: duration must not be negative")
)

// FileConfig mirrors the JSON config layout. Decimal-valued fields are kept
// as strings so ticks survive the round trip exactly.
type FileConfig struct {
	Feeds       FeedsConfig       `json:"feeds"`
	Arbitration ArbitrationConfig `json:"arbitration"`
	Quoting     QuotingConfig     `json:"quoting"`
	Postgres    *PostgresConfig   `json:"postgres"`
}

// FeedsConfig names the two independent quote sources.
type FeedsConfig struct {
	Primary   FeedConfig `json:"primary"`
	Secondary FeedConfig `json:"secondary"`
}

// FeedConfig describes one venue stream.
type FeedConfig struct {
	Source  string   `json:"source"`
	DevMode bool     `json:"devMode"`
	Symbols []string `json:"symbols"`
}

// ArbitrationConfig tunes the cross-source comparison.
type ArbitrationConfig struct {
	Tolerance     string `json:"tolerance"`
	QueueCapacity int    `json:"queueCapacity"`
}

// QuotingConfig overlays the quoting model defaults. Empty fields keep the
// defaults.
type QuotingConfig struct {
	RiskAversion          string `json:"riskAversion"`
	Kappa                 string `json:"kappa"`
	Volatility            string `json:"volatility"`
	TargetInventory       string `json:"targetInventory"`
	TimeLeftFraction      string `json:"timeLeftFraction"`
	PriceQuantum          string `json:"priceQuantum"`
	QAdjustment           string `json:"qAdjustment"`
	VolToSpreadMultiplier string `json:"volToSpreadMultiplier"`
	MinSpread             string `json:"minSpread"`
	MaxSpread             string `json:"maxSpread"`
}

// PostgresConfig enables the persistence writers.
type PostgresConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Password     string `json:"password"`
	Database     string `json:"database"`
	SyncInterval string `json:"syncInterval"`
}

// FeedSpec is a resolved feed definition.
type FeedSpec struct {
	Source  enum.Source
	DevMode bool
	Symbols []string
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Primary       FeedSpec
	Secondary     FeedSpec
	Tolerance     decimal.Decimal
	QueueCapacity int
	Quoting       quoting.Params
	Postgres      *PostgresConfig
	SyncInterval  time.Duration
}

// Load reads a JSON config file and resolves it.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "read config")
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, errors.Wrap(err, "unmarshal config")
	}
	return Resolve(cfg)
}

// Resolve validates a file config and builds the typed view.
func Resolve(cfg FileConfig) (Loaded, error) {
	primary, err := resolveFeed(cfg.Feeds.Primary)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "primary feed")
	}
	secondary, err := resolveFeed(cfg.Feeds.Secondary)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "secondary feed")
	}
	if primary.Source == secondary.Source {
		return Loaded{}, errors.Wrapf(ErrDuplicateSource, "source: %s", primary.Source)
	}

	tolerance := decimal.Zero
	if cfg.Arbitration.Tolerance != "" {
		tolerance, err = decimal.NewFromString(cfg.Arbitration.Tolerance)
		if err != nil {
			return Loaded{}, errors.Wrap(err, "parse tolerance")
		}
	}

	params, err := resolveQuoting(cfg.Quoting)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "quoting")
	}

	syncInterval := time.Duration(0)
	if cfg.Postgres != nil && cfg.Postgres.SyncInterval != "" {
		syncInterval, err = time.ParseDuration(cfg.Postgres.SyncInterval)
		if err != nil {
			return Loaded{}, errors.Wrap(err, "parse sync interval")
		}
		if syncInterval < 0 {
			return Loaded{}, errors.Wrapf(ErrNegativeDuration, "sync interval: %s", syncInterval)
		}
	}

	return Loaded{
		Primary:       primary,
		Secondary:     secondary,
		Tolerance:     tolerance,
		QueueCapacity: cfg.Arbitration.QueueCapacity,
		Quoting:       params,
		Postgres:      cfg.Postgres,
		SyncInterval:  syncInterval,
	}, nil
}

func resolveFeed(cfg FeedConfig) (FeedSpec, error) {
	source, err := parseSource(cfg.Source)
	if err != nil {
		return FeedSpec{}, err
	}
	if len(cfg.Symbols) == 0 {
		return FeedSpec{}, errors.Wrapf(ErrNoSymbols, "source: %s", cfg.Source)
	}
	return FeedSpec{
		Source:  source,
		DevMode: cfg.DevMode,
		Symbols: cfg.Symbols,
	}, nil
}

func parseSource(name string) (enum.Source, error) {
	switch name {
	case "btcc":
		return enum.SourceBTCC, nil
	case "binance":
		return enum.SourceBinance, nil
	default:
		return 0, errors.Wrapf(ErrUnknownSource, "name: %s", name)
	}
}

func resolveQuoting(cfg QuotingConfig) (quoting.Params, error) {
	params := quoting.DefaultParams()

	fields := []struct {
		name  string
		raw   string
		value *decimal.Decimal
	}{
		{"riskAversion", cfg.RiskAversion, &params.RiskAversion},
		{"kappa", cfg.Kappa, &params.Kappa},
		{"volatility", cfg.Volatility, &params.Volatility},
		{"targetInventory", cfg.TargetInventory, &params.TargetInventory},
		{"timeLeftFraction", cfg.TimeLeftFraction, &params.TimeLeftFraction},
		{"priceQuantum", cfg.PriceQuantum, &params.PriceQuantum},
		{"qAdjustment", cfg.QAdjustment, &params.QAdjustment},
		{"volToSpreadMultiplier", cfg.VolToSpreadMultiplier, &params.VolToSpreadMultiplier},
		{"minSpread", cfg.MinSpread, &params.MinSpread},
		{"maxSpread", cfg.MaxSpread, &params.MaxSpread},
	}
	for _, field := range fields {
		if field.raw == "" {
			continue
		}
		value, err := decimal.NewFromString(field.raw)
		if err != nil {
			return quoting.Params{}, errors.Wrapf(err, "parse %s: %s", field.name, field.raw)
		}
		*field.value = value
	}

	return params, nil
}
