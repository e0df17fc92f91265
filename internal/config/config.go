package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"comptrade/internal/costmodel"
	"comptrade/internal/market"
	"comptrade/internal/sourcing"
)

// Config is the complete pipeline configuration. Precedence is
// environment (COMPTRADE_*) over YAML file over built-in defaults.
type Config struct {
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Model   ModelConfig   `yaml:"model" envconfig:"MODEL"`
	Trade   TradeConfig   `yaml:"trade" envconfig:"TRADE"`
	Market  MarketConfig  `yaml:"market" envconfig:"MARKET"`
	Demand  DemandConfig  `yaml:"demand" envconfig:"DEMAND"`
}

// PathsConfig locates the reference data and the report output.
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ReportDir string `yaml:"report_dir" envconfig:"REPORT_DIR"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// ModelConfig carries the structural cost parameters.
type ModelConfig struct {
	PUEBase              float64 `yaml:"pue_base" envconfig:"PUE_BASE"`
	PUESlope             float64 `yaml:"pue_slope" envconfig:"PUE_SLOPE"`
	PUERefTempC          float64 `yaml:"pue_ref_temp_c" envconfig:"PUE_REF_TEMP_C"`
	GPUTDPkW             float64 `yaml:"gpu_tdp_kw" envconfig:"GPU_TDP_KW"`
	GPUPriceUSD          float64 `yaml:"gpu_price_usd" envconfig:"GPU_PRICE_USD"`
	GPULifeYears         float64 `yaml:"gpu_life_years" envconfig:"GPU_LIFE_YEARS"`
	GPUUtilization       float64 `yaml:"gpu_utilization" envconfig:"GPU_UTILIZATION"`
	HoursPerYear         float64 `yaml:"hours_per_year" envconfig:"HOURS_PER_YEAR"`
	NetworkingUSDPerHour float64 `yaml:"networking_usd_per_hour" envconfig:"NETWORKING_USD_PER_HOUR"`
	DCLifeYears          float64 `yaml:"dc_life_years" envconfig:"DC_LIFE_YEARS"`
}

// Params converts to the cost-model parameter object.
func (m ModelConfig) Params() costmodel.Params {
	return costmodel.Params{
		PUEBase:              m.PUEBase,
		PUESlope:             m.PUESlope,
		PUERefTempC:          m.PUERefTempC,
		GPUTDPkW:             m.GPUTDPkW,
		GPUPriceUSD:          m.GPUPriceUSD,
		GPULifeYears:         m.GPULifeYears,
		GPUUtilization:       m.GPUUtilization,
		HoursPerYear:         m.HoursPerYear,
		NetworkingUSDPerHour: m.NetworkingUSDPerHour,
		DCLifeYears:          m.DCLifeYears,
	}
}

// TradeConfig carries the delivered-cost parameters.
type TradeConfig struct {
	LatencyRate       float64 `yaml:"latency_rate" envconfig:"LATENCY_RATE"`
	LatencyCeilingMS  float64 `yaml:"latency_ceiling_ms" envconfig:"LATENCY_CEILING_MS"`
	SovereigntyMarkup float64 `yaml:"sovereignty_markup" envconfig:"SOVEREIGNTY_MARKUP"`
}

// Params converts to the sourcing parameter object.
func (t TradeConfig) Params() sourcing.Params {
	return sourcing.Params{
		LatencyRate:       t.LatencyRate,
		LatencyCeilingMS:  t.LatencyCeilingMS,
		SovereigntyMarkup: t.SovereigntyMarkup,
	}
}

// MarketConfig bounds the fixed-point solve.
type MarketConfig struct {
	MaxIterations int     `yaml:"max_iterations" envconfig:"MAX_ITERATIONS"`
	Tolerance     float64 `yaml:"tolerance" envconfig:"TOLERANCE"`
}

// DemandConfig describes the global demand block and the sanction list.
type DemandConfig struct {
	// ScaleGPUHours is total demand per period (Q_total).
	ScaleGPUHours float64 `yaml:"scale_gpu_hours" envconfig:"SCALE_GPU_HOURS"`
	// BulkShare is the training fraction of demand (alpha).
	BulkShare float64 `yaml:"bulk_share" envconfig:"BULK_SHARE"`
	// Sanctioned lists ISO3 codes flagged as sanctioned sellers.
	Sanctioned []string `yaml:"sanctioned" envconfig:"SANCTIONED"`
	// CostRecoveryPrices maps subsidizing countries to cost-reflective
	// electricity prices ($/kWh) for the cost-recovery scenario.
	CostRecoveryPrices map[string]float64 `yaml:"cost_recovery_prices" envconfig:"COST_RECOVERY_PRICES"`
}

// Default returns the baseline calibration configuration.
func Default() *Config {
	p := costmodel.DefaultParams()
	s := sourcing.DefaultParams()
	return &Config{
		Paths: PathsConfig{
			DataDir:   "data",
			ReportDir: "reports",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Model: ModelConfig{
			PUEBase:              p.PUEBase,
			PUESlope:             p.PUESlope,
			PUERefTempC:          p.PUERefTempC,
			GPUTDPkW:             p.GPUTDPkW,
			GPUPriceUSD:          p.GPUPriceUSD,
			GPULifeYears:         p.GPULifeYears,
			GPUUtilization:       p.GPUUtilization,
			HoursPerYear:         p.HoursPerYear,
			NetworkingUSDPerHour: p.NetworkingUSDPerHour,
			DCLifeYears:          p.DCLifeYears,
		},
		Trade: TradeConfig{
			LatencyRate:       s.LatencyRate,
			LatencyCeilingMS:  s.LatencyCeilingMS,
			SovereigntyMarkup: s.SovereigntyMarkup,
		},
		Market: MarketConfig{
			MaxIterations: market.DefaultMaxIterations,
			Tolerance:     market.DefaultTolerance,
		},
		Demand: DemandConfig{
			ScaleGPUHours: 60e9,
			BulkShare:     0.50,
			Sanctioned:    []string{"IRN"},
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty or the file does not exist), then
// COMPTRADE_* environment variables on top.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Defaults plus environment only.
		default:
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("COMPTRADE", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks the assembled configuration, delegating parameter
// ranges to the packages that own them.
func (c *Config) Validate() error {
	if c.Paths.DataDir == "" {
		return fmt.Errorf("paths.data_dir must be set")
	}
	if c.Paths.ReportDir == "" {
		return fmt.Errorf("paths.report_dir must be set")
	}
	if err := c.Model.Params().Validate(); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if err := c.Trade.Params().Validate(); err != nil {
		return fmt.Errorf("trade: %w", err)
	}
	if c.Market.MaxIterations <= 0 {
		return fmt.Errorf("market.max_iterations must be > 0, got %d", c.Market.MaxIterations)
	}
	if c.Market.Tolerance <= 0 {
		return fmt.Errorf("market.tolerance must be > 0, got %g", c.Market.Tolerance)
	}
	if c.Demand.ScaleGPUHours < 0 {
		return fmt.Errorf("demand.scale_gpu_hours must be >= 0, got %g", c.Demand.ScaleGPUHours)
	}
	if c.Demand.BulkShare < 0 || c.Demand.BulkShare > 1 {
		return fmt.Errorf("demand.bulk_share must be in [0, 1], got %g", c.Demand.BulkShare)
	}
	return nil
}
