package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/proppant-cli/internal/classify"
	"github.com/sells-group/proppant-cli/internal/engine"
	"github.com/sells-group/proppant-cli/internal/estimate"
	"github.com/sells-group/proppant-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Engine   EngineConfig   `yaml:"engine" mapstructure:"engine"`
	Units    UnitsConfig    `yaml:"units" mapstructure:"units"`
	Revenue  RevenueConfig  `yaml:"revenue" mapstructure:"revenue"`
	Accuracy AccuracyConfig `yaml:"accuracy" mapstructure:"accuracy"`
	Quality  QualityConfig  `yaml:"quality" mapstructure:"quality"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// EngineConfig configures the attribution stages.
type EngineConfig struct {
	ShortJobThresholdDays   int     `yaml:"short_job_threshold_days" mapstructure:"short_job_threshold_days"`
	LongJobOutlierDays      int     `yaml:"long_job_outlier_days" mapstructure:"long_job_outlier_days"`
	WaterDensity            float64 `yaml:"water_density" mapstructure:"water_density"`
	ReportedMassMinCoverage float64 `yaml:"reported_mass_min_coverage" mapstructure:"reported_mass_min_coverage"`
	SupplierPolicy          string  `yaml:"supplier_policy" mapstructure:"supplier_policy"`
	ProductPolicy           string  `yaml:"product_policy" mapstructure:"product_policy"`
	Workers                 int     `yaml:"workers" mapstructure:"workers"`
	FocusBasin              string  `yaml:"focus_basin" mapstructure:"focus_basin"`
	CatalogPath             string  `yaml:"catalog_path" mapstructure:"catalog_path"`
}

// UnitsConfig converts source mass units to pricing units.
type UnitsConfig struct {
	MassPerPricingUnit float64 `yaml:"mass_per_pricing_unit" mapstructure:"mass_per_pricing_unit"`
}

// RevenueConfig configures forward revenue estimates and price back-solving.
type RevenueConfig struct {
	PricePerUnit        float64 `yaml:"price_per_unit" mapstructure:"price_per_unit"`
	ContractFraction    float64 `yaml:"contract_fraction" mapstructure:"contract_fraction"`
	SpotPriceMultiplier float64 `yaml:"spot_price_multiplier" mapstructure:"spot_price_multiplier"`
	VolatilityWarnPct   float64 `yaml:"volatility_warn_pct" mapstructure:"volatility_warn_pct"`
}

// AccuracyConfig sets the volume-validation bands, in absolute error percent.
type AccuracyConfig struct {
	GoodPct     float64 `yaml:"good_pct" mapstructure:"good_pct"`
	ModeratePct float64 `yaml:"moderate_pct" mapstructure:"moderate_pct"`
}

// QualityConfig tunes the data-quality checks.
type QualityConfig struct {
	MaxProppantPercent         float64 `yaml:"max_proppant_percent" mapstructure:"max_proppant_percent"`
	MaxProppantWaterRatio      float64 `yaml:"max_proppant_water_ratio" mapstructure:"max_proppant_water_ratio"`
	HighWaterVolume            float64 `yaml:"high_water_volume" mapstructure:"high_water_volume"`
	MinSupplierCompletenessPct float64 `yaml:"min_supplier_completeness_pct" mapstructure:"min_supplier_completeness_pct"`
}

// StoreConfig configures run persistence.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the read API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from ./config.yaml, if present, and environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from path and environment. An empty path
// falls back to an optional ./config.yaml; a named file must exist.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("PROPPANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := engine.DefaultParams()

	// Defaults
	v.SetDefault("engine.short_job_threshold_days", def.ShortJobThresholdDays)
	v.SetDefault("engine.long_job_outlier_days", def.LongJobOutlierDays)
	v.SetDefault("engine.water_density", def.WaterDensity)
	v.SetDefault("engine.reported_mass_min_coverage", def.ReportedMassMinCoverage)
	v.SetDefault("engine.supplier_policy", string(def.SupplierPolicy))
	v.SetDefault("engine.product_policy", string(def.ProductPolicy))
	v.SetDefault("engine.workers", def.Workers)
	v.SetDefault("engine.focus_basin", def.FocusBasin)
	v.SetDefault("engine.catalog_path", "")
	v.SetDefault("units.mass_per_pricing_unit", def.Pricing.MassPerPricingUnit)
	v.SetDefault("revenue.price_per_unit", def.Pricing.PricePerUnit)
	v.SetDefault("revenue.contract_fraction", def.Pricing.ContractFraction)
	v.SetDefault("revenue.spot_price_multiplier", def.Pricing.SpotMultiplier)
	v.SetDefault("revenue.volatility_warn_pct", def.VolatilityWarnPct)
	v.SetDefault("accuracy.good_pct", def.Bands.GoodPct)
	v.SetDefault("accuracy.moderate_pct", def.Bands.ModeratePct)
	v.SetDefault("quality.max_proppant_percent", def.Quality.MaxProppantPercent)
	v.SetDefault("quality.max_proppant_water_ratio", def.Quality.MaxProppantWaterRatio)
	v.SetDefault("quality.high_water_volume", def.Quality.HighWaterVolume)
	v.SetDefault("quality.min_supplier_completeness_pct", def.Quality.MinSupplierCompletenessPct)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "proppant.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_rps", 20)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("server.allowed_origins", []string{"*"})

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrapf(err, "config: read file %q", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// EngineParams converts the configuration into validated engine.Params.
func (c *Config) EngineParams() (engine.Params, error) {
	p := engine.DefaultParams()
	p.ShortJobThresholdDays = c.Engine.ShortJobThresholdDays
	p.LongJobOutlierDays = c.Engine.LongJobOutlierDays
	p.WaterDensity = c.Engine.WaterDensity
	p.ReportedMassMinCoverage = c.Engine.ReportedMassMinCoverage
	p.SupplierPolicy = classify.SupplierPolicy(c.Engine.SupplierPolicy)
	p.ProductPolicy = classify.ProductPolicy(c.Engine.ProductPolicy)
	p.Workers = c.Engine.Workers
	p.FocusBasin = c.Engine.FocusBasin
	p.Pricing = estimate.Pricing{
		PricePerUnit:       c.Revenue.PricePerUnit,
		ContractFraction:   c.Revenue.ContractFraction,
		SpotMultiplier:     c.Revenue.SpotPriceMultiplier,
		MassPerPricingUnit: c.Units.MassPerPricingUnit,
	}
	p.VolatilityWarnPct = c.Revenue.VolatilityWarnPct
	p.Bands = estimate.Bands{GoodPct: c.Accuracy.GoodPct, ModeratePct: c.Accuracy.ModeratePct}
	p.Quality.MaxProppantPercent = c.Quality.MaxProppantPercent
	p.Quality.MaxProppantWaterRatio = c.Quality.MaxProppantWaterRatio
	p.Quality.HighWaterVolume = c.Quality.HighWaterVolume
	p.Quality.MinSupplierCompletenessPct = c.Quality.MinSupplierCompletenessPct
	p.Quality.WaterDensity = p.WaterDensity

	if err := p.Validate(); err != nil {
		return engine.Params{}, eris.Wrap(err, "config: engine params")
	}
	return p, nil
}

// StoreBackend returns the store backend settings.
func (c *Config) StoreBackend() store.Config {
	return store.Config{
		Driver:      c.Store.Driver,
		DatabaseURL: c.Store.DatabaseURL,
		MaxConns:    c.Store.MaxConns,
		MinConns:    c.Store.MinConns,
	}
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
